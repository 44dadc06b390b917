package middleware

import (
	"context"
	"net/http"

	"github.com/upb/authgate/internal/auth"
	"go.uber.org/zap"
)

// Authenticator runs the authentication pipeline and role checks.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*auth.Principal, error)
	Authorize(p *auth.Principal, required auth.Role) error
}

// DecisionRecorder counts gate outcomes.
type DecisionRecorder interface {
	RecordDecision(outcome string)
}

const outcomeAccepted = "accepted"

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	gate              Authenticator
	recorder          DecisionRecorder
	logger            *zap.Logger
	exposeDiagnostics bool
}

// Option configures an AuthMiddleware.
type Option func(*AuthMiddleware)

// WithDecisionRecorder records every accept/reject outcome.
func WithDecisionRecorder(r DecisionRecorder) Option {
	return func(m *AuthMiddleware) {
		m.recorder = r
	}
}

// WithDiagnostics includes the internal cause chain in rejection bodies.
// Never enable in production.
func WithDiagnostics(enabled bool) Option {
	return func(m *AuthMiddleware) {
		m.exposeDiagnostics = enabled
	}
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(gate Authenticator, logger *zap.Logger, opts ...Option) *AuthMiddleware {
	m := &AuthMiddleware{
		gate:   gate,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RequireAuth is a middleware that requires a valid bearer token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		principal, err := m.gate.Authenticate(ctx, r.Header.Get("Authorization"))
		if err != nil {
			m.reject(w, r, err)
			return
		}

		m.record(outcomeAccepted)
		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", principal.Subject),
			zap.String("role", principal.Role.String()))

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(ctx, principal)))
	})
}

// RequireRole is a middleware that requires at least the given role.
// It must be mounted after RequireAuth.
func (m *AuthMiddleware) RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := GetPrincipalFromContext(ctx)

			if err := m.gate.Authorize(principal, role); err != nil {
				m.reject(w, r, err)
				return
			}

			m.logger.Debug("role check passed",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("required_role", role.String()))

			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) record(outcome string) {
	if m.recorder != nil {
		m.recorder.RecordDecision(outcome)
	}
}
