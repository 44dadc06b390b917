package middleware

import (
	"net/http"

	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/utils"
	"go.uber.org/zap"
)

// reject renders a gate failure. Errors that are not rejections are
// treated as infrastructure failures so nothing escapes as a 5xx.
func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	rej, ok := auth.AsRejection(err)
	if !ok {
		rej = auth.Reject(auth.KindInfrastructureUnavailable, err)
	}
	m.record(string(rej.Kind))

	fields := []zap.Field{
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("kind", string(rej.Kind)),
		zap.Int("status", rej.Status()),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if rej.Err != nil {
		fields = append(fields, zap.Error(rej.Err))
	}

	switch rej.Kind {
	case auth.KindInfrastructureUnavailable:
		m.logger.Error("authentication dependency unavailable", fields...)
	case auth.KindInsufficientPermission:
		m.logger.Warn("insufficient permissions", fields...)
	case auth.KindMissingToken,
		auth.KindTokenMalformed,
		auth.KindTokenExpired,
		auth.KindTokenRevoked,
		auth.KindUserNotFound,
		auth.KindTokenInvalidated:
		m.logger.Warn("request rejected", fields...)
	default:
		m.logger.Warn("request rejected with unknown kind", fields...)
	}

	var stack string
	if m.exposeDiagnostics {
		stack = rej.Error()
	}
	_ = utils.WriteErrorWithStack(w, rej.Status(), rej.Message, stack)
}
