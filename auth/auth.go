// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IdentityProvider resolves the agent behind a request.
type IdentityProvider interface {
	AgentID(r *http.Request) (string, error)
}

// TokenIdentity reads HS256 bearer tokens whose subject is the agent id.
type TokenIdentity struct {
	secret []byte
}

func NewTokenIdentity(secret string) *TokenIdentity {
	return &TokenIdentity{secret: []byte(secret)}
}

// AgentID implements IdentityProvider.
func (ti *TokenIdentity) AgentID(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", ErrMissingToken
	}
	return ti.Verify(token)
}

// Verify checks the signature and expiry of token and returns its subject.
func (ti *TokenIdentity) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IssueAgentToken mints a token for agentID. A zero ttl issues a token
// without expiry.
func IssueAgentToken(agentID, secret string, ttl time.Duration) (string, error) {
	if agentID == "" {
		return "", errors.New("agent id is required")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  agentID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign agent token: %w", err)
	}
	return signed, nil
}
