// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/tomtom215/coffeechat/internal/auth"
	"github.com/tomtom215/coffeechat/internal/models"
)

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("success regenerates the session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		before, cookie := env.session("")

		rec := env.serve(formRequest(http.MethodPost, "/auth/login",
			url.Values{"username": {"alice"}, "password": {"correct-horse"}}), cookie)
		assertRedirect(t, rec, "/posts/list")

		s := env.sessionFromResponse(rec)
		if s.ID == before.ID {
			t.Error("session id was not regenerated")
		}
		if s.Token != "tok-alice" {
			t.Errorf("Token = %q", s.Token)
		}
		if s.User == nil || s.User.ID != "alice-id" {
			t.Errorf("User = %+v, want alice-id from ID token", s.User)
		}
		if _, err := env.store.Get(context.Background(), before.ID); err == nil {
			t.Error("old session id still valid")
		}
	})

	tests := []struct {
		name     string
		form     url.Values
		loginErr error
		wantMsg  string
	}{
		{
			name:    "missing password",
			form:    url.Values{"username": {"alice"}},
			wantMsg: "password is required",
		},
		{
			name:     "wrong password",
			form:     url.Values{"username": {"alice"}, "password": {"nope"}},
			loginErr: &types.NotAuthorizedException{},
			wantMsg:  "Incorrect username or password.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			env.identity.loginErr = tt.loginErr
			s, cookie := env.session("")

			rec := env.serve(formRequest(http.MethodPost, "/auth/login", tt.form), cookie)
			assertRedirect(t, rec, auth.LoginPath)

			got := env.storedSession(s.ID)
			if got.Token != "" {
				t.Error("failed login stored a token")
			}
			if len(got.Flash.Error) != 1 || got.Flash.Error[0] != tt.wantMsg {
				t.Errorf("flash = %+v, want %q", got.Flash.Error, tt.wantMsg)
			}
		})
	}
}

func TestLoginPage_StoresState(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.serve(httptest.NewRequest(http.MethodGet, "/auth/login", nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	s := env.sessionFromResponse(rec)
	if s.State == "" {
		t.Fatal("no state stored in session")
	}

	var page models.Page
	decodeJSON(t, rec, &page)
	data, _ := page.Data.(map[string]interface{})
	link, _ := data["federatedLoginUrl"].(string)
	if !strings.HasSuffix(link, "state="+s.State) {
		t.Errorf("federatedLoginUrl = %q, want state %s", link, s.State)
	}
}

func TestCallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		sessionState  string
		queryState    string
		wantLocation  string
		wantExchanges int
		wantToken     string
	}{
		{name: "matching state", sessionState: "s-123", queryState: "s-123", wantLocation: "/posts/list", wantExchanges: 1, wantToken: "tok-bob"},
		{name: "mismatched state", sessionState: "s-123", queryState: "forged", wantLocation: auth.LoginPath},
		{name: "no pending state", queryState: "s-123", wantLocation: auth.LoginPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			_, cookie := env.session("", func(s *auth.Session) { s.State = tt.sessionState })

			target := "/auth/callback?code=abc&state=" + url.QueryEscape(tt.queryState)
			rec := env.serve(httptest.NewRequest(http.MethodGet, target, nil), cookie)
			assertRedirect(t, rec, tt.wantLocation)

			if got := env.federation.exchangeCount(); got != tt.wantExchanges {
				t.Errorf("exchanges = %d, want %d", got, tt.wantExchanges)
			}
			s := env.sessionFromResponse(rec)
			if s.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", s.Token, tt.wantToken)
			}
			if s.State != "" {
				t.Error("state must be consumed")
			}
			if tt.wantExchanges == 0 {
				if len(s.Flash.Error) != 1 || s.Flash.Error[0] != MsgInvalidState {
					t.Errorf("flash = %+v, want %q", s.Flash.Error, MsgInvalidState)
				}
			}
		})
	}
}

func TestRegisterAndConfirm(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.serve(formRequest(http.MethodPost, "/auth/register", url.Values{
		"username": {"carol"}, "email": {"carol@example.com"}, "password": {"Sup3r-secret"},
	}), nil)
	assertRedirect(t, rec, "/auth/confirm?username=carol")

	rec = env.serve(formRequest(http.MethodPost, "/auth/confirm", url.Values{
		"username": {"carol"}, "code": {"123456"},
	}), nil)
	assertRedirect(t, rec, auth.LoginPath)

	if len(env.identity.signedUp) != 1 || len(env.identity.confirmed) != 1 {
		t.Errorf("signedUp = %v confirmed = %v", env.identity.signedUp, env.identity.confirmed)
	}
}

func TestRegister_Invalid(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.serve(formRequest(http.MethodPost, "/auth/register", url.Values{
		"username": {"carol"}, "email": {"not-an-email"}, "password": {"Sup3r-secret"},
	}), nil)
	assertRedirect(t, rec, "/auth/register")
	if len(env.identity.signedUp) != 0 {
		t.Error("invalid form reached the identity provider")
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	s, cookie := env.session("alice")

	rec := env.serve(httptest.NewRequest(http.MethodGet, "/auth/logout", nil), cookie)
	assertRedirect(t, rec, auth.LoginPath)

	if _, err := env.store.Get(context.Background(), s.ID); err == nil {
		t.Error("session survived logout")
	}
	fresh := env.sessionFromResponse(rec)
	if fresh.Authenticated() {
		t.Error("new session is authenticated")
	}
	if len(fresh.Flash.Success) != 1 || fresh.Flash.Success[0] != MsgLoggedOut {
		t.Errorf("flash = %+v", fresh.Flash)
	}
}

func TestResetPasswordPage_RequiresEmail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.serve(httptest.NewRequest(http.MethodGet, "/auth/reset-password", nil), nil)
	assertRedirect(t, rec, "/auth/forgot-password")

	rec = env.serve(httptest.NewRequest(http.MethodGet, "/auth/reset-password?email=a%40example.com", nil), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
