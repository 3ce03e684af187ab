// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package identity talks to the Cognito user pool.
//
// Client covers the username and password flows through the
// cognitoidentityprovider API: sign up, confirmation, USER_PASSWORD_AUTH
// login and password reset. When the app client has a secret, every call
// carries the SECRET_HASH derived from it.
//
// Federation covers the hosted UI authorization code flow, used for
// social sign-in through an identity provider configured on the pool:
//
//	fed, err := identity.NewFederation(identity.FederationConfig{...})
//	state, _ := identity.NewState()
//	http.Redirect(w, r, fed.AuthCodeURL(state), http.StatusFound)
//	// later, on the callback
//	tokens, err := fed.Exchange(ctx, r.URL.Query().Get("code"))
//
// Tokens are not verified here; see auth.TokenVerifier.
package identity
