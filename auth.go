package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenMissing   = fmt.Errorf("%w: no token provided", ErrUnauthorized)
	ErrTokenInvalid   = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrBadCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
)

const adminRole = "admin"

// Claims is the payload of an admin token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

// Gate issues admin tokens and checks them on the way in.
type Gate struct {
	secret       []byte
	username     string
	passwordHash []byte
	lifetime     time.Duration
	now          func() time.Time
}

func NewGate(auth Auth) (*Gate, error) {
	lifetime, err := auth.TokenLifetimeDuration()
	if err != nil {
		return nil, err
	}
	return &Gate{
		secret:       []byte(auth.JWTSecret),
		username:     auth.AdminUsername,
		passwordHash: []byte(auth.AdminPasswordHash),
		lifetime:     lifetime,
		now:          time.Now,
	}, nil
}

// Issue checks username and password against the configured admin and
// returns a signed token valid for the configured lifetime.
func (g *Gate) Issue(username, password string) (string, *Claims, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	if !userOK {
		return "", nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)); err != nil {
		return "", nil, ErrBadCredentials
	}

	now := g.now()
	claims := &Claims{
		Username: username,
		Role:     adminRole,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(g.lifetime).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, claims, nil
}

// Verify checks the signature and the expiry of token. Expiry is checked
// first, so an expired token is rejected as expired whatever its signature.
// A token without an expiry is invalid.
func (g *Gate) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}

	parser := &jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}

	unverified := &Claims{}
	if _, _, err := parser.ParseUnverified(token, unverified); err != nil {
		return nil, ErrTokenInvalid
	}
	if unverified.ExpiresAt == 0 {
		return nil, ErrTokenInvalid
	}
	if !unverified.VerifyExpiresAt(g.now().Unix(), true) {
		return nil, ErrTokenExpired
	}

	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.Role != adminRole {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrTokenMissing
	}
	return strings.TrimSpace(token), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
