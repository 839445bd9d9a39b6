package elections

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-elections/backend/internal/apperr"
	"github.com/aura-elections/backend/internal/middleware"
	"github.com/aura-elections/backend/pkg/response"
)

// CreateRequest is the body for POST /elections.
type CreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Options     []string   `json:"options"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func (r CreateRequest) input() CreateInput {
	in := CreateInput{Title: r.Title, Description: r.Description, Options: r.Options}
	if r.StartDate != nil {
		in.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		in.EndDate = *r.EndDate
	}
	return in
}

// Handler handles election HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an elections handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /elections.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.svc.Create(c.Request.Context(), userID, req.input())
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	h.logger.Info("election created", zap.String("election_id", e.ID.String()), zap.String("created_by", userID.String()))
	response.Created(c, e)
}

// GetByID handles GET /elections/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid election id")
		return
	}
	v, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	response.OK(c, v)
}

// ListActive handles GET /elections/active.
func (h *Handler) ListActive(c *gin.Context) {
	list, err := h.svc.Active(c.Request.Context())
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// ListPast handles GET /elections/past.
func (h *Handler) ListPast(c *gin.Context) {
	list, err := h.svc.Past(c.Request.Context())
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /elections/mine.
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	list, err := h.svc.ByCreator(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	response.OK(c, list)
}
