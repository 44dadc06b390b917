package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Stage names, used for instrumentation.
const (
	StageExtractToken    = "extract_token"
	StageCheckRevocation = "check_revocation"
	StageVerifyToken     = "verify_token"
	StageResolveIdentity = "resolve_identity"
	StageCheckVersion    = "check_token_version"
)

const bearerScheme = "bearer"

// StageObserver receives the duration of each executed gate stage.
type StageObserver func(stage string, elapsed time.Duration)

// GateConfig configures a Gate.
type GateConfig struct {
	// RevocationTimeout bounds each registry lookup.
	// Default: 500ms
	RevocationTimeout time.Duration

	// IdentityTimeout bounds each identity lookup.
	// Default: 1s
	IdentityTimeout time.Duration

	// Observer is optional.
	Observer StageObserver
}

// Gate runs the authentication pipeline and the authorization check.
type Gate struct {
	codec    *Codec
	registry RevocationRegistry
	resolver IdentityResolver
	config   GateConfig
}

// NewGate wires the gate to its collaborators.
func NewGate(codec *Codec, registry RevocationRegistry, resolver IdentityResolver, config GateConfig) *Gate {
	if config.RevocationTimeout <= 0 {
		config.RevocationTimeout = 500 * time.Millisecond
	}
	if config.IdentityTimeout <= 0 {
		config.IdentityTimeout = time.Second
	}
	return &Gate{
		codec:    codec,
		registry: registry,
		resolver: resolver,
		config:   config,
	}
}

// Authenticate runs every stage in order against an Authorization header
// value. The first failing stage wins; the error is always a *Rejection.
func (g *Gate) Authenticate(ctx context.Context, authorization string) (*Principal, error) {
	var raw string
	if err := g.observe(StageExtractToken, func() error {
		var err error
		raw, err = ExtractBearer(authorization)
		return err
	}); err != nil {
		return nil, err
	}

	tokenID := TokenID(raw)
	if err := g.observe(StageCheckRevocation, func() error {
		return g.checkRevocation(ctx, raw, tokenID)
	}); err != nil {
		return nil, err
	}

	var claims *Claims
	if err := g.observe(StageVerifyToken, func() error {
		var err error
		claims, err = g.verify(raw)
		return err
	}); err != nil {
		return nil, err
	}

	var identity *Identity
	if err := g.observe(StageResolveIdentity, func() error {
		var err error
		identity, err = g.resolveIdentity(ctx, claims.Subject)
		return err
	}); err != nil {
		return nil, err
	}

	if err := g.observe(StageCheckVersion, func() error {
		return checkTokenVersion(claims, identity)
	}); err != nil {
		return nil, err
	}

	return newPrincipal(tokenID, claims, identity), nil
}

// Authorize checks p against the route's required role.
func (g *Gate) Authorize(p *Principal, required Role) error {
	if p == nil {
		return Reject(KindMissingToken, errors.New("no authenticated principal"))
	}
	if !Satisfies(p.Role, required) {
		return Reject(KindInsufficientPermission,
			fmt.Errorf("role %q does not satisfy %q", p.Role, required))
	}
	return nil
}

// ExtractBearer returns the token from an "Authorization: Bearer <token>" value.
func ExtractBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", Reject(KindMissingToken, errors.New("authorization header missing"))
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != bearerScheme {
		return "", Reject(KindMissingToken, errors.New("authorization scheme is not bearer"))
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", Reject(KindMissingToken, errors.New("bearer token empty"))
	}
	return token, nil
}

// An expired token reports expiry whether the registry says revoked, has
// purged the entry, or cannot be reached at all.
func (g *Gate) checkRevocation(ctx context.Context, raw, tokenID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.config.RevocationTimeout)
	defer cancel()

	revoked, err := g.registry.IsRevoked(ctx, tokenID)
	if err != nil {
		if expired := g.expired(raw); expired != nil {
			return expired
		}
		return Reject(KindInfrastructureUnavailable, fmt.Errorf("revocation check: %w", err))
	}
	if revoked {
		if expired := g.expired(raw); expired != nil {
			return expired
		}
		return Reject(KindTokenRevoked, nil)
	}
	return nil
}

// expired returns a TokenExpired rejection when raw verifies as expired.
func (g *Gate) expired(raw string) error {
	if _, err := g.codec.Verify(raw); errors.Is(err, ErrTokenExpired) {
		return Reject(KindTokenExpired, err)
	}
	return nil
}

func (g *Gate) verify(raw string) (*Claims, error) {
	claims, err := g.codec.Verify(raw)
	if err == nil {
		return claims, nil
	}
	if errors.Is(err, ErrTokenExpired) {
		return nil, Reject(KindTokenExpired, err)
	}
	return nil, Reject(KindTokenMalformed, err)
}

func (g *Gate) resolveIdentity(ctx context.Context, subject string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.IdentityTimeout)
	defer cancel()

	identity, err := g.resolver.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, Reject(KindUserNotFound, err)
		}
		return nil, Reject(KindInfrastructureUnavailable, fmt.Errorf("identity lookup: %w", err))
	}
	if identity == nil {
		return nil, Reject(KindUserNotFound, ErrIdentityNotFound)
	}
	return identity, nil
}

func checkTokenVersion(claims *Claims, identity *Identity) error {
	if claims.TokenVersion != identity.TokenVersion {
		return Reject(KindTokenInvalidated, fmt.Errorf("token version %d, current %d",
			claims.TokenVersion, identity.TokenVersion))
	}
	return nil
}

func newPrincipal(tokenID string, claims *Claims, identity *Identity) *Principal {
	p := &Principal{
		Subject:      claims.Subject,
		Role:         identity.Role,
		TokenVersion: identity.TokenVersion,
		TokenID:      tokenID,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p
}

func (g *Gate) observe(stage string, fn func() error) error {
	if g.config.Observer == nil {
		return fn()
	}
	start := time.Now()
	err := fn()
	g.config.Observer(stage, time.Since(start))
	return err
}
