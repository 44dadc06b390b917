package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/middleware"
	"github.com/upb/authgate/services"
	"github.com/upb/authgate/utils"
	"go.uber.org/zap"
)

// SessionManager ends sessions for the current or another user.
type SessionManager interface {
	Logout(ctx context.Context, p *auth.Principal) error
	LogoutEverywhere(ctx context.Context, p *auth.Principal) (int64, error)
	InvalidateSessions(ctx context.Context, userID string) (int64, error)
}

// SessionHandler handles principal and session endpoints
type SessionHandler struct {
	sessions SessionManager
	logger   *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions SessionManager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type invalidateSessionsRequest struct {
	UserID string `validate:"required,uuid"`
}

type listRolesRequest struct {
	Min string `validate:"omitempty,role"`
}

// TokenVersionResponse reports a user's token version after invalidation
type TokenVersionResponse struct {
	UserID       string `json:"user_id"`
	TokenVersion int64  `json:"token_version"`
}

// HandleMe handles GET /api/v1/me
func (h *SessionHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	if p == nil {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}
	_ = utils.WriteOK(w, p)
}

// HandleLogout handles POST /api/v1/auth/logout
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	if err := h.sessions.Logout(r.Context(), p); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteMessage(w, "logged out")
}

// HandleLogoutAll handles POST /api/v1/auth/logout-all
func (h *SessionHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	version, err := h.sessions.LogoutEverywhere(r.Context(), p)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, TokenVersionResponse{UserID: p.Subject, TokenVersion: version})
}

// HandleInvalidateUserSessions handles POST /api/v1/admin/users/{id}/sessions/revoke
func (h *SessionHandler) HandleInvalidateUserSessions(w http.ResponseWriter, r *http.Request) {
	req := invalidateSessionsRequest{UserID: chi.URLParam(r, "id")}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	version, err := h.sessions.InvalidateSessions(r.Context(), req.UserID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if admin := middleware.GetPrincipalFromContext(r.Context()); admin != nil {
		h.logger.Info("admin invalidated user sessions",
			zap.String("admin", admin.Subject),
			zap.String("user_id", req.UserID),
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		)
	}
	_ = utils.WriteOK(w, TokenVersionResponse{UserID: req.UserID, TokenVersion: version})
}

// HandleListRoles handles GET /api/v1/admin/roles?min=<role>
func (h *SessionHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	req := listRolesRequest{Min: r.URL.Query().Get("min")}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	min := auth.RoleBasic
	if req.Min != "" {
		min, _ = auth.ParseRole(req.Min)
	}
	_ = utils.WriteOK(w, auth.RolesAtOrAbove(min))
}
