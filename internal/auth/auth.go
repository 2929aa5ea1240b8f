// Package auth verifies the bearer tokens issued by the external identity
// provider and turns them into an Identity.
package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
)

// Identity is the verified subject of a token.
type Identity struct {
	UID   string
	Email string
}

// Config defines how tokens are verified. Exactly one of HMACSecret and
// PublicKey is set.
type Config struct {
	Issuer     string
	Audience   string
	HMACSecret []byte
	PublicKey  ed25519.PublicKey
	Now        func() time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Verifier checks token signatures and registered claims.
type Verifier struct {
	cfg     Config
	methods []string
}

// NewVerifier validates cfg and returns a Verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	switch {
	case len(cfg.HMACSecret) > 0 && cfg.PublicKey != nil:
		return nil, errors.New("configure either an HMAC secret or a public key, not both")
	case len(cfg.HMACSecret) > 0:
		return &Verifier{cfg: cfg, methods: []string{jwt.SigningMethodHS256.Alg()}}, nil
	case len(cfg.PublicKey) == ed25519.PublicKeySize:
		return &Verifier{cfg: cfg, methods: []string{jwt.SigningMethodEdDSA.Alg()}}, nil
	case cfg.PublicKey != nil:
		return nil, fmt.Errorf("public key must be %d bytes", ed25519.PublicKeySize)
	}
	return nil, errors.New("token verifier is not configured")
}

// ParsePublicKey decodes a base64 Ed25519 public key.
func ParsePublicKey(value string) (ed25519.PublicKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty public key")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(value)
	}
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(decoded), nil
}

// Verify parses token and returns its identity. Every failure is reported
// as apperr.ErrUnauthorized.
func (v *Verifier) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, apperr.Unauthorized("missing token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithTimeFunc(v.cfg.Now),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, v.key, opts...)
	if err != nil {
		return Identity{}, mapJWTError(err)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Identity{}, apperr.Unauthorized("token subject is required")
	}
	return Identity{UID: parsed.Subject, Email: strings.ToLower(parsed.Email)}, nil
}

func (v *Verifier) key(token *jwt.Token) (any, error) {
	if !slices.Contains(v.methods, token.Method.Alg()) {
		return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
	}
	if len(v.cfg.HMACSecret) > 0 {
		return v.cfg.HMACSecret, nil
	}
	return v.cfg.PublicKey, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Unauthorized("token is expired")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return apperr.Unauthorized("token not active yet")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return apperr.Unauthorized("token was not issued for this service")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperr.Unauthorized("token signature is invalid")
	}
	return apperr.Unauthorized("invalid token")
}
