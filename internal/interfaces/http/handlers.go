package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nadersamir/approval-flow/internal/application/service"
	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	authService         service.AuthService
	workflowService     service.WorkflowService
	requestService      service.RequestService
	dashboardService    service.DashboardService
	notificationService service.NotificationService
	activityLogService  service.ActivityLogService
	logger              Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	authService service.AuthService,
	workflowService service.WorkflowService,
	requestService service.RequestService,
	dashboardService service.DashboardService,
	notificationService service.NotificationService,
	activityLogService service.ActivityLogService,
	logger Logger,
) *Handlers {
	return &Handlers{
		authService:         authService,
		workflowService:     workflowService,
		requestService:      requestService,
		dashboardService:    dashboardService,
		notificationService: notificationService,
		activityLogService:  activityLogService,
		logger:              logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// respondError maps domain errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, approval.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, approval.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, approval.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, approval.ErrAlreadyDecided),
		errors.Is(err, approval.ErrAlreadyFinalized),
		errors.Is(err, approval.ErrConcurrencyConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, approval.ErrInvalidStep):
		status, message = http.StatusBadRequest, err.Error()
	default:
		h.logger.Error("Unhandled error", "error", err)
	}

	c.JSON(status, Response{Success: false, Error: message})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// --- Auth ---

// RegisterRequest is the payload for POST /api/auth/register
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the payload for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the signed token and the user it belongs to
type AuthResponse struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: AuthResponse{User: user, Token: token}})
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: AuthResponse{User: user, Token: token}})
}

// --- Workflows ---

// StepPayload is one workflow step in API requests
type StepPayload struct {
	Title        string `json:"title"`
	Order        int    `json:"order"`
	AssignedRole string `json:"assigned_role"`
}

// CreateWorkflowRequest is the payload for POST /api/workflows
type CreateWorkflowRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Steps       []StepPayload `json:"steps"`
}

// UpdateWorkflowRequest is the payload for PUT /api/workflows/:id.
// Omitted fields are left unchanged.
type UpdateWorkflowRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Steps       []StepPayload `json:"steps"`
}

func toSteps(payloads []StepPayload) []entity.Step {
	steps := make([]entity.Step, 0, len(payloads))
	for _, p := range payloads {
		// ParseRole normalizes; unknown roles pass through and fail
		// service validation.
		role, _ := entity.ParseRole(p.AssignedRole)
		steps = append(steps, entity.Step{
			Title:        p.Title,
			Order:        p.Order,
			AssignedRole: role,
		})
	}
	return steps
}

// CreateWorkflow handles POST /api/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	wf, err := h.workflowService.Create(c.Request.Context(), actorFrom(c), req.Name, req.Description, toSteps(req.Steps))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: wf})
}

// ListWorkflows handles GET /api/workflows
func (h *Handlers) ListWorkflows(c *gin.Context) {
	workflows, err := h.workflowService.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: workflows})
}

// GetWorkflow handles GET /api/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	wf, err := h.workflowService.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: wf})
}

// UpdateWorkflow handles PUT /api/workflows/:id
func (h *Handlers) UpdateWorkflow(c *gin.Context) {
	var req UpdateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	patch := service.WorkflowPatch{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Steps != nil {
		patch.Steps = toSteps(req.Steps)
	}

	wf, err := h.workflowService.Update(c.Request.Context(), actorFrom(c), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: wf})
}

// DeleteWorkflow handles DELETE /api/workflows/:id
func (h *Handlers) DeleteWorkflow(c *gin.Context) {
	if err := h.workflowService.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// --- Requests ---

// AttachmentPayload is an opaque attachment descriptor in API requests
type AttachmentPayload struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	StorageRef   string `json:"storage_ref"`
}

// CreateRequestRequest is the payload for POST /api/requests/workflow/:workflowId
type CreateRequestRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Attachments []AttachmentPayload `json:"attachments"`
}

// DecisionRequest is the payload for POST /api/requests/:requestId/approve
type DecisionRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// CreateRequest handles POST /api/requests/workflow/:workflowId
func (h *Handlers) CreateRequest(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	attachments := make([]entity.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, entity.Attachment{
			Filename:     a.Filename,
			OriginalName: a.OriginalName,
			MimeType:     a.MimeType,
			SizeBytes:    a.SizeBytes,
			StorageRef:   a.StorageRef,
		})
	}

	created, err := h.requestService.Create(c.Request.Context(), actorFrom(c), c.Param("workflowId"), req.Title, req.Description, attachments)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	requests, err := h.requestService.ListFor(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// ListPendingRequests handles GET /api/requests/pending
func (h *Handlers) ListPendingRequests(c *gin.Context) {
	requests, err := h.requestService.ListPending(c.Request.Context(), actorFrom(c).Role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.requestService.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// SubmitDecision handles POST /api/requests/:requestId/approve
func (h *Handlers) SubmitDecision(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	updated, err := h.requestService.Decide(c.Request.Context(), actorFrom(c), c.Param("requestId"), entity.Decision(req.Decision), req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// --- Dashboard ---

// Dashboard handles GET /api/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	summary, err := h.dashboardService.Summary(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// --- Notifications ---

// CreateNotificationRequest is the payload for POST /api/notifications/:userId
type CreateNotificationRequest struct {
	Message string            `json:"message"`
	Type    string            `json:"type"`
	Meta    map[string]string `json:"meta"`
}

// CreateNotification handles POST /api/notifications/:userId. The
// notification is addressed to the authenticated actor; the path
// parameter is accepted for URL compatibility but not trusted.
func (h *Handlers) CreateNotification(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	n, err := h.notificationService.Create(c.Request.Context(), actorFrom(c).ID, req.Message, req.Type, req.Meta)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: n})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	notifications, err := h.notificationService.ListFor(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: notifications})
}

// MarkNotificationRead handles PATCH /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	n, err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: n})
}

// --- Activity logs ---

// RecordActivityRequest is the payload for POST /api/activitylogs
type RecordActivityRequest struct {
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Timestamp  *time.Time `json:"timestamp"`
}

// RecordActivity handles POST /api/activitylogs
func (h *Handlers) RecordActivity(c *gin.Context) {
	var req RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	log, err := h.activityLogService.Record(c.Request.Context(), actorFrom(c), req.Action, req.EntityType, req.EntityID, req.Timestamp)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: log})
}

// ListActivityLogs handles GET /api/activitylogs
func (h *Handlers) ListActivityLogs(c *gin.Context) {
	logs, err := h.activityLogService.ListAll(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: logs})
}

// ListUserActivityLogs handles GET /api/activitylogs/:userId
func (h *Handlers) ListUserActivityLogs(c *gin.Context) {
	logs, err := h.activityLogService.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: logs})
}
