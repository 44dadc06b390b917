package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors produced by collaborators and the codec.
var (
	ErrTokenExpired     = errors.New("auth: token expired")
	ErrTokenMalformed   = errors.New("auth: token malformed")
	ErrIdentityNotFound = errors.New("auth: identity not found")
)

// Kind is the closed set of rejection reasons.
type Kind string

const (
	KindMissingToken              Kind = "missing_token"
	KindTokenMalformed            Kind = "token_malformed"
	KindTokenExpired              Kind = "token_expired"
	KindTokenRevoked              Kind = "token_revoked"
	KindUserNotFound              Kind = "user_not_found"
	KindTokenInvalidated          Kind = "token_invalidated"
	KindInsufficientPermission    Kind = "insufficient_permission"
	KindInfrastructureUnavailable Kind = "infrastructure_unavailable"
)

// Kinds lists every rejection kind.
var Kinds = []Kind{
	KindMissingToken,
	KindTokenMalformed,
	KindTokenExpired,
	KindTokenRevoked,
	KindUserNotFound,
	KindTokenInvalidated,
	KindInsufficientPermission,
	KindInfrastructureUnavailable,
}

// Status returns the HTTP status for the kind. Only a permission failure is
// 403; every other kind, collaborator outages and unknown kinds included,
// fails closed as 401.
func (k Kind) Status() int {
	if k == KindInsufficientPermission {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// Message returns the client-facing message for the kind.
func (k Kind) Message() string {
	switch k {
	case KindMissingToken:
		return "Missing or invalid authorization header"
	case KindTokenMalformed:
		return "Invalid token"
	case KindTokenExpired:
		return "Token expired"
	case KindTokenRevoked:
		return "Token has been revoked"
	case KindUserNotFound:
		return "User no longer exists"
	case KindTokenInvalidated:
		return "Session invalidated, please sign in again"
	case KindInsufficientPermission:
		return "Insufficient permissions"
	case KindInfrastructureUnavailable:
		return "Unable to verify credentials"
	default:
		return "Authentication required"
	}
}

// Rejection is the terminal outcome of a failed gate stage.
type Rejection struct {
	Kind    Kind
	Message string
	Err     error
}

// Reject builds a Rejection with the kind's default message.
func Reject(kind Kind, err error) *Rejection {
	return &Rejection{Kind: kind, Message: kind.Message(), Err: err}
}

// Error implements the error interface
func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", r.Kind, r.Message, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// Unwrap implements errors.Unwrap
func (r *Rejection) Unwrap() error {
	return r.Err
}

// Is matches another *Rejection by kind.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	if !ok {
		return false
	}
	return r.Kind == t.Kind
}

// Status returns the HTTP status code for the rejection.
func (r *Rejection) Status() int {
	return r.Kind.Status()
}

// AsRejection extracts a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// KindOf returns the rejection kind carried by err, or "" if none.
func KindOf(err error) Kind {
	if rej, ok := AsRejection(err); ok {
		return rej.Kind
	}
	return ""
}
