package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aura-elections/backend/internal/apperr"
	"github.com/aura-elections/backend/internal/middleware"
	"github.com/aura-elections/backend/internal/models"
	"github.com/aura-elections/backend/pkg/response"
	"github.com/aura-elections/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FederatedRequest is the body for POST /auth/federated.
type FederatedRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo      UserStore
	jwt       *JWTService
	federated *FederatedVerifier
	logger    *zap.Logger
}

// NewHandler creates an auth handler. federated may be nil.
func NewHandler(repo UserStore, jwt *JWTService, federated *FederatedVerifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, federated: federated, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		response.BadRequest(c, "invalid email")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = email
	}
	user := &models.User{Email: email, Password: hash, DisplayName: name}
	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			response.Conflict(c, "email already registered")
			return
		}
		apperr.Respond(c, h.logger, err)
		return
	}
	h.issue(c, user, true)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		response.BadRequest(c, "invalid email")
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		apperr.Respond(c, h.logger, err)
		return
	}
	if user == nil || user.Provider != models.ProviderPassword || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	h.issue(c, user, false)
}

// Federated handles POST /auth/federated.
func (h *Handler) Federated(c *gin.Context) {
	if !h.federated.Enabled() {
		response.ServiceUnavailable(c, ErrFederatedDisabled.Error())
		return
	}
	var req FederatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	id, err := h.federated.Verify(req.IDToken)
	if err != nil {
		response.Unauthorized(c, "invalid id token")
		return
	}
	name := id.Name
	if name == "" {
		name = id.Email
	}
	user, err := h.repo.UpsertFederated(c.Request.Context(), id.Subject, normalizeEmail(id.Email), name)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			response.Conflict(c, "email is registered with a password account")
			return
		}
		apperr.Respond(c, h.logger, err)
		return
	}
	h.issue(c, user, false)
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	response.OK(c, user.ToPublic())
}

func (h *Handler) issue(c *gin.Context, user *models.User, created bool) {
	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Provider))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	body := TokenResponse{Token: token, User: user.ToPublic()}
	if created {
		response.Created(c, body)
		return
	}
	response.OK(c, body)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validEmail checks the normalized address with gin's validator engine.
func validEmail(email string) bool {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return email != ""
	}
	return v.Var(email, "required,email") == nil
}
