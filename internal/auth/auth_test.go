package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
)

var authNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func signHS256(t *testing.T, secret string, c jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims() claims {
	return claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			Issuer:    "https://id.club.test",
			Audience:  jwt.ClaimStrings{"club"},
			IssuedAt:  jwt.NewNumericDate(authNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(authNow.Add(time.Hour)),
		},
		Email: "Member@Club.Test",
	}
}

func hmacVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{
		Issuer:     "https://id.club.test",
		Audience:   "club",
		HMACSecret: []byte("s3cret"),
		Now:        func() time.Time { return authNow },
	})
	require.NoError(t, err)
	return v
}

func TestVerifyHS256(t *testing.T) {
	v := hmacVerifier(t)

	id, err := v.Verify(signHS256(t, "s3cret", validClaims()))
	require.NoError(t, err)
	require.Equal(t, Identity{UID: "uid-1", Email: "member@club.test"}, id)
}

func TestVerifyRejects(t *testing.T) {
	v := hmacVerifier(t)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(authNow.Add(-time.Second))

	noExp := validClaims()
	noExp.ExpiresAt = nil

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.test"

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not.a.token",
		"wrong secret":   signHS256(t, "other", validClaims()),
		"expired":        signHS256(t, "s3cret", expired),
		"no expiry":      signHS256(t, "s3cret", noExp),
		"wrong issuer":   signHS256(t, "s3cret", wrongIssuer),
		"wrong audience": signHS256(t, "s3cret", wrongAudience),
		"no subject":     signHS256(t, "s3cret", noSubject),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			require.ErrorIs(t, err, apperr.ErrUnauthorized)
		})
	}
}

func TestVerifyEdDSA(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	key, err := ParsePublicKey(base64.StdEncoding.EncodeToString(pub))
	require.NoError(t, err)

	v, err := NewVerifier(Config{PublicKey: key, Now: func() time.Time { return authNow }})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, validClaims()).SignedString(priv)
	require.NoError(t, err)
	id, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "uid-1", id.UID)

	// An HS256 token must not pass an EdDSA verifier.
	_, err = v.Verify(signHS256(t, "s3cret", validClaims()))
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestNewVerifierConfig(t *testing.T) {
	_, err := NewVerifier(Config{})
	require.Error(t, err)

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, err = NewVerifier(Config{HMACSecret: []byte("x"), PublicKey: pub})
	require.Error(t, err)

	_, err = ParsePublicKey(base64.StdEncoding.EncodeToString([]byte("short")))
	require.Error(t, err)
}
