// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Token uses issued by the user pool.
const (
	TokenUseAccess = "access"
	TokenUseID     = "id"
)

const jwksSuffix = "/.well-known/jwks.json"

// Claims are the user pool claims used by the service.
type Claims struct {
	TokenUse        string `json:"token_use"`
	ClientID        string `json:"client_id,omitempty"`
	Username        string `json:"username,omitempty"`
	CognitoUsername string `json:"cognito:username,omitempty"`
	Email           string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the caller identity.
func (c *Claims) Identity() *Subject {
	id := c.RegisteredClaims.Subject
	if id == "" {
		id = c.Email
	}
	username := c.Username
	if username == "" {
		username = c.CognitoUsername
	}
	return &Subject{ID: id, Username: username, Email: c.Email}
}

// User converts ID token claims into the session user.
func (c *Claims) User() *User {
	s := c.Identity()
	return &User{ID: s.ID, Username: s.Username, Email: s.Email}
}

// Verifier checks a raw token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

var _ Verifier = (*TokenVerifier)(nil)

// TokenVerifier verifies RS256 tokens from one user pool app client.
type TokenVerifier struct {
	keys     *JWKSCache
	clientID string
	issuer   string
	leeway   time.Duration
}

// NewTokenVerifier creates a verifier. The expected issuer is derived from
// the JWKS URI when it has the standard "/.well-known/jwks.json" suffix;
// otherwise the issuer is not checked.
func NewTokenVerifier(keys *JWKSCache, clientID string) *TokenVerifier {
	issuer := ""
	if uri := keys.URI(); strings.HasSuffix(uri, jwksSuffix) {
		issuer = strings.TrimSuffix(uri, jwksSuffix)
	}
	return &TokenVerifier{
		keys:     keys,
		clientID: clientID,
		issuer:   issuer,
		leeway:   30 * time.Second,
	}
}

// Verify checks the signature, expiry, issuer and audience. An access token
// must name the client in client_id, an ID token in aud.
func (v *TokenVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("token missing kid header")
		}
		key, err := v.keys.GetKey(ctx, kid)
		if err != nil {
			return nil, fmt.Errorf("failed to get key for kid %s: %w", kid, err)
		}
		return key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	switch claims.TokenUse {
	case TokenUseAccess:
		if claims.ClientID != v.clientID {
			return nil, fmt.Errorf("%w: client_id %q", ErrInvalidToken, claims.ClientID)
		}
	case TokenUseID:
		if !slices.Contains(claims.Audience, v.clientID) {
			return nil, fmt.Errorf("%w: audience %v", ErrInvalidToken, claims.Audience)
		}
	default:
		return nil, fmt.Errorf("%w: token_use %q", ErrInvalidToken, claims.TokenUse)
	}
	return claims, nil
}
