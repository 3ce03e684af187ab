// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

const testClientID = "test-client"

// testIssuer serves a JWKS and signs tokens with its key.
type testIssuer struct {
	t       *testing.T
	key     *rsa.PrivateKey
	kid     string
	server  *httptest.Server
	fetches atomic.Int32
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	iss := &testIssuer{t: t, key: key, kid: "test-kid"}

	mux := http.NewServeMux()
	mux.HandleFunc("/pool/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		iss.fetches.Add(1)
		e := big.NewInt(int64(key.E)).Bytes()
		body := map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": iss.kid,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(e),
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	iss.server = httptest.NewServer(mux)
	t.Cleanup(iss.server.Close)
	return iss
}

func (i *testIssuer) jwksURI() string {
	return i.server.URL + "/pool/.well-known/jwks.json"
}

func (i *testIssuer) issuer() string {
	return i.server.URL + "/pool"
}

func (i *testIssuer) verifier() *TokenVerifier {
	return NewTokenVerifier(NewJWKSCache(i.jwksURI(), i.server.Client(), time.Hour), testClientID)
}

// accessToken returns a valid access token; mutate adjusts the claims.
func (i *testIssuer) accessToken(mutate func(*Claims)) string {
	i.t.Helper()
	now := time.Now()
	claims := &Claims{
		TokenUse: TokenUseAccess,
		ClientID: testClientID,
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer(),
			Subject:   "sub-alice",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	if mutate != nil {
		mutate(claims)
	}
	return i.sign(claims, jwt.SigningMethodRS256, i.kid)
}

func (i *testIssuer) sign(claims jwt.Claims, method jwt.SigningMethod, kid string) string {
	i.t.Helper()
	token := jwt.NewWithClaims(method, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	var key interface{} = i.key
	if method == jwt.SigningMethodHS256 {
		key = []byte("not-the-key")
	}
	s, err := token.SignedString(key)
	if err != nil {
		i.t.Fatalf("sign token: %v", err)
	}
	return s
}
