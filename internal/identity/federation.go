// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"
	"golang.org/x/oauth2"

	"github.com/tomtom215/coffeechat/internal/metrics"
)

// ErrTokenExchangeFailed wraps failures of the authorization code exchange.
var ErrTokenExchangeFailed = errors.New("token exchange failed")

// DefaultScopes are requested from the hosted UI.
var DefaultScopes = []string{oidc.ScopeEmail, oidc.ScopeOpenID, oidc.ScopeProfile}

// FederationConfig configures the hosted UI client.
type FederationConfig struct {
	// Domain is the hosted UI domain. A value with an http(s) scheme is
	// used as the base URL unchanged; otherwise https is assumed.
	Domain       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// IdentityProvider selects the upstream provider, e.g. "Google".
	// Empty shows the hosted UI provider picker.
	IdentityProvider string
	Scopes           []string
	HTTPClient       *http.Client
}

// Federation runs the hosted UI authorization code flow.
type Federation struct {
	party rp.RelyingParty
	idp   string
}

// NewFederation creates the relying party in OAuth2 mode. The pool's ID
// token is returned as is and verified separately.
func NewFederation(cfg FederationConfig) (*Federation, error) {
	if cfg.Domain == "" || cfg.ClientID == "" || cfg.RedirectURI == "" {
		return nil, fmt.Errorf("federation requires domain, client id and redirect uri")
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	base := cfg.Domain
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	base = strings.TrimSuffix(base, "/")

	party, err := rp.NewRelyingPartyOAuth(&oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/oauth2/authorize",
			TokenURL: base + "/oauth2/token",
		},
	}, rp.WithHTTPClient(cfg.HTTPClient))
	if err != nil {
		return nil, fmt.Errorf("create relying party: %w", err)
	}

	return &Federation{party: party, idp: cfg.IdentityProvider}, nil
}

// AuthCodeURL returns the hosted UI authorize URL carrying state.
func (f *Federation) AuthCodeURL(state string) string {
	if f.idp == "" {
		return rp.AuthURL(state, f.party)
	}
	return rp.AuthURL(state, f.party, rp.AuthURLOpt(rp.WithURLParam("identity_provider", f.idp)))
}

// Exchange trades an authorization code for tokens.
func (f *Federation) Exchange(ctx context.Context, code string) (*Tokens, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrTokenExchangeFailed)
	}

	done := metrics.ObserveExternalCall("cognito", "oauth2.token")
	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, f.party)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchangeFailed, err)
	}

	out := &Tokens{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		IDToken:      tokens.IDToken,
	}
	// OAuth2 mode leaves IDToken unset; the raw value is in the extras.
	if out.IDToken == "" && tokens.Token != nil {
		if raw, ok := tokens.Extra("id_token").(string); ok {
			out.IDToken = raw
		}
	}
	if !tokens.Expiry.IsZero() {
		out.ExpiresIn = int32(time.Until(tokens.Expiry).Seconds())
	}
	return out, nil
}

// NewState returns 16 random bytes, hex encoded.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
