package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

const actorContextKey = "actor"

// authMiddleware resolves a bearer token to an Actor and aborts with 401
// otherwise. Handlers downstream only ever see the resolved identity.
func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "no token provided",
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid or expired token",
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid token claims",
			})
			return
		}

		sub, _ := claims["sub"].(string)
		rawRole, _ := claims["role"].(string)
		role, valid := entity.ParseRole(rawRole)
		if sub == "" || !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid token claims",
			})
			return
		}

		c.Set(actorContextKey, entity.Actor{ID: sub, Role: role})
		c.Next()
	}
}

// actorFrom returns the Actor resolved by authMiddleware
func actorFrom(c *gin.Context) entity.Actor {
	actor, _ := c.MustGet(actorContextKey).(entity.Actor)
	return actor
}
