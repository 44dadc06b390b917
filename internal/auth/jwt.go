package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the decoded payload of an access token.
type Claims struct {
	Role         Role  `json:"role"`
	TokenVersion int64 `json:"token_version"`
	jwt.RegisteredClaims
}

// CodecConfig configures a Codec.
type CodecConfig struct {
	// Secret is the HMAC signing key.
	Secret []byte

	// Issuer, when set, is stamped on signed tokens and required on verified ones.
	Issuer string

	// Leeway tolerates clock skew on exp/iat/nbf.
	Leeway time.Duration

	// TimeFunc overrides time.Now; used by tests.
	TimeFunc func() time.Time
}

// Codec verifies and signs HS256 access tokens.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec creates a Codec. The secret must be non-empty.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	if cfg.TimeFunc == nil {
		cfg.TimeFunc = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(cfg.TimeFunc),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Codec{
		secret: secret,
		issuer: cfg.Issuer,
		now:    cfg.TimeFunc,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify checks the token's signature and expiry and decodes its claims.
// It fails with ErrTokenExpired or ErrTokenMalformed.
func (c *Codec) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenMalformed)
	}

	claims := &Claims{}
	token, err := c.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token not valid", ErrTokenMalformed)
	}

	if err := validateClaims(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return claims, nil
}

// Sign issues a token for claims. Missing iat/jti/iss are filled in.
func (c *Codec) Sign(claims Claims) (string, error) {
	if err := validateClaims(&claims); err != nil {
		return "", err
	}
	if claims.ExpiresAt == nil {
		return "", errors.New("auth: expiration is required")
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(c.now())
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
	if claims.Issuer == "" {
		claims.Issuer = c.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func validateClaims(claims *Claims) error {
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	role, err := ParseRole(string(claims.Role))
	if err != nil {
		return err
	}
	claims.Role = role
	if claims.TokenVersion < 0 {
		return errors.New("negative token version")
	}
	return nil
}

// TokenID derives the revocation key for a raw token string.
func TokenID(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
