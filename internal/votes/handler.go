package votes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-elections/backend/internal/apperr"
	"github.com/aura-elections/backend/internal/middleware"
	"github.com/aura-elections/backend/internal/models"
	"github.com/aura-elections/backend/pkg/response"
)

// CastRequest is the body for POST /elections/:id/votes.
type CastRequest struct {
	OptionIndex *int `json:"option_index" binding:"required"`
}

// MyVoteResponse is the body of GET /elections/:id/votes/me.
type MyVoteResponse struct {
	HasVoted    bool       `json:"has_voted"`
	OptionIndex *int       `json:"option_index,omitempty"`
	VoteID      *uuid.UUID `json:"vote_id,omitempty"`
}

// ResultsPublisher pushes fresh results to live subscribers.
type ResultsPublisher interface {
	PublishResults(summary *models.ResultSummary)
}

// ArchiveScheduler requests a durable copy of final results.
type ArchiveScheduler interface {
	ScheduleResultsArchive(ctx context.Context, electionID uuid.UUID) error
}

// ArchiveLocator resolves a download URL for archived results.
type ArchiveLocator interface {
	ResultsArchiveURL(ctx context.Context, electionID uuid.UUID) (url string, ok bool, err error)
}

// Handler handles vote and results HTTP endpoints.
type Handler struct {
	svc       *Service
	logger    *zap.Logger
	publisher ResultsPublisher
	scheduler ArchiveScheduler
	locator   ArchiveLocator
}

// NewHandler creates a votes handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// SetPublisher enables live result updates after each vote.
func (h *Handler) SetPublisher(p ResultsPublisher) { h.publisher = p }

// SetArchive enables the results archive; either argument may be nil.
func (h *Handler) SetArchive(s ArchiveScheduler, l ArchiveLocator) {
	h.scheduler = s
	h.locator = l
}

func electionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid election id")
		return uuid.Nil, false
	}
	return id, true
}

// Cast handles POST /elections/:id/votes.
func (h *Handler) Cast(c *gin.Context) {
	id, ok := electionID(c)
	if !ok {
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req CastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: option_index is required")
		return
	}

	v, err := h.svc.Cast(c.Request.Context(), id, userID, *req.OptionIndex)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	h.logger.Info("vote cast", zap.String("election_id", id.String()), zap.String("vote_id", v.ID.String()))

	if h.publisher != nil {
		if summary, err := h.svc.Results(c.Request.Context(), id); err != nil {
			h.logger.Warn("results refresh failed", zap.String("election_id", id.String()), zap.Error(err))
		} else {
			h.publisher.PublishResults(summary)
		}
	}
	response.Created(c, v)
}

// MyVote handles GET /elections/:id/votes/me.
func (h *Handler) MyVote(c *gin.Context) {
	id, ok := electionID(c)
	if !ok {
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	voted, v, err := h.svc.HasVoted(c.Request.Context(), id, userID)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	resp := MyVoteResponse{HasVoted: voted}
	if v != nil {
		resp.OptionIndex = &v.OptionIndex
		resp.VoteID = &v.ID
	}
	response.OK(c, resp)
}

// Results handles GET /elections/:id/results.
func (h *Handler) Results(c *gin.Context) {
	id, ok := electionID(c)
	if !ok {
		return
	}
	summary, err := h.svc.Results(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	if summary.Status == models.StatusEnded && h.scheduler != nil {
		if err := h.scheduler.ScheduleResultsArchive(c.Request.Context(), id); err != nil {
			h.logger.Warn("schedule results archive", zap.String("election_id", id.String()), zap.Error(err))
		}
	}
	response.OK(c, summary)
}

// ArchiveURL handles GET /elections/:id/results/archive.
func (h *Handler) ArchiveURL(c *gin.Context) {
	id, ok := electionID(c)
	if !ok {
		return
	}
	if h.locator == nil {
		response.ServiceUnavailable(c, "results archive is not configured")
		return
	}
	url, found, err := h.locator.ResultsArchiveURL(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.logger, apperr.Store("locate results archive", err))
		return
	}
	if !found {
		response.NotFound(c, "results archive not found")
		return
	}
	response.OK(c, gin.H{"election_id": id, "download_url": url})
}
