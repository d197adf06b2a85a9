package main

import (
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func testAuth(t *testing.T) Auth {
	t.Helper()
	hash, err := hashPassword("s3cret")
	if err != nil {
		t.Fatalf("hashPassword returned error: %v", err)
	}
	return Auth{
		JWTSecret:         "test-secret",
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		TokenLifetime:     "24h",
	}
}

func newTestGate(t *testing.T, now time.Time) *Gate {
	t.Helper()
	gate, err := NewGate(testAuth(t))
	if err != nil {
		t.Fatalf("NewGate returned error: %v", err)
	}
	gate.now = func() time.Time { return now }
	return gate
}

func signClaims(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestGateIssueAndVerify(t *testing.T) {
	now := time.Date(2024, 5, 17, 20, 0, 0, 0, time.UTC)
	gate := newTestGate(t, now)

	token, claims, err := gate.Issue("admin", "s3cret")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if claims.ExpiresAt != now.Add(24*time.Hour).Unix() {
		t.Fatalf("unexpected expiry %d", claims.ExpiresAt)
	}

	got, err := gate.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got.Username != "admin" || got.Role != "admin" {
		t.Fatalf("unexpected claims %+v", got)
	}

	gate.now = func() time.Time { return now.Add(24*time.Hour + time.Second) }
	if _, err := gate.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after lifetime, got %v", err)
	}
}

func TestGateRejectsBadCredentials(t *testing.T) {
	gate := newTestGate(t, time.Now())

	for _, tc := range []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "s3cret"},
		{"", ""},
	} {
		if _, _, err := gate.Issue(tc.user, tc.pass); !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("Issue(%q, %q) error = %v, want ErrBadCredentials", tc.user, tc.pass, err)
		}
	}
}

func TestGateExpiredTokenIsUnauthorizedWhateverTheSignature(t *testing.T) {
	now := time.Date(2024, 5, 17, 20, 0, 0, 0, time.UTC)
	gate := newTestGate(t, now)

	expired := &Claims{
		Username:       "admin",
		Role:           "admin",
		StandardClaims: jwt.StandardClaims{ExpiresAt: now.Add(-time.Minute).Unix()},
	}

	for name, secret := range map[string]string{"good signature": "test-secret", "bad signature": "other-secret"} {
		t.Run(name, func(t *testing.T) {
			_, err := gate.Verify(signClaims(t, secret, expired))
			if !errors.Is(err, ErrTokenExpired) {
				t.Fatalf("expected ErrTokenExpired, got %v", err)
			}
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected error to be unauthorized, got %v", err)
			}
		})
	}
}

func TestGateRejectsInvalidTokens(t *testing.T) {
	now := time.Date(2024, 5, 17, 20, 0, 0, 0, time.UTC)
	gate := newTestGate(t, now)
	valid := jwt.StandardClaims{ExpiresAt: now.Add(time.Hour).Unix()}

	tests := map[string]string{
		"garbage":       "not-a-token",
		"bad signature": signClaims(t, "other-secret", &Claims{Username: "admin", Role: "admin", StandardClaims: valid}),
		"no expiry":     signClaims(t, "test-secret", &Claims{Username: "admin", Role: "admin"}),
		"wrong role":    signClaims(t, "test-secret", &Claims{Username: "admin", Role: "guest", StandardClaims: valid}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := gate.Verify(token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}

	if _, err := gate.Verify(""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	if tok, err := bearerToken("Bearer abc.def"); err != nil || tok != "abc.def" {
		t.Fatalf("bearerToken = %q, %v", tok, err)
	}
	for _, header := range []string{"", "Bearer ", "Basic abc", "abc"} {
		if _, err := bearerToken(header); !errors.Is(err, ErrTokenMissing) {
			t.Fatalf("bearerToken(%q) error = %v", header, err)
		}
	}
}

func TestGateTokenWithoutExpiryIsInvalid(t *testing.T) {
	gate := newTestGate(t, time.Now())

	token := signClaims(t, "test-secret", &Claims{Username: "admin", Role: "admin"})
	_, err := gate.Verify(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Fatalf("token without expiry reported as expired: %v", err)
	}
}
