// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"net/http"
	"net/url"

	"github.com/tomtom215/coffeechat/internal/auth"
	"github.com/tomtom215/coffeechat/internal/identity"
	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
)

// Flash messages of the authentication flows.
const (
	MsgRegistered        = "Registration successful! Please check your email to confirm your account."
	MsgConfirmed         = "Email confirmed! You can now log in."
	MsgLoggedOut         = "You are logged out successfully"
	MsgResetCodeSent     = "A password reset code has been sent to your email."
	MsgPasswordReset     = "Password reset successfully! You can now log in."
	MsgInvalidState      = "Invalid state parameter"
	MsgAuthFailed        = "Authentication failed."
	MsgSessionSaveFailed = "Session save failed"
	MsgNoResetEmail      = "No email provided for password reset"
	MsgFederationOff     = "Federated login is not configured"
)

// Paths the authentication flows redirect to.
const (
	homePath          = "/posts/list"
	registerPath      = "/auth/register"
	confirmPath       = "/auth/confirm"
	forgotPath        = "/auth/forgot-password"
	resetPasswordPath = "/auth/reset-password"
)

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type registerForm struct {
	Username string `form:"username" validate:"required,min=3,max=64"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=8"`
}

type confirmForm struct {
	Username string `form:"username" validate:"required"`
	Code     string `form:"code" validate:"required"`
}

type forgotForm struct {
	Email string `form:"email" validate:"required"`
}

type resetForm struct {
	Email            string `form:"email" validate:"required"`
	VerificationCode string `form:"verificationCode" validate:"required"`
	NewPassword      string `form:"newPassword" validate:"required,min=8"`
}

func withUsername(path, username string) string {
	return path + "?username=" + url.QueryEscape(username)
}

func withEmail(path, email string) string {
	return path + "?email=" + url.QueryEscape(email)
}

// recordAuth writes the security log line and the auth event counter.
func (h *Handler) recordAuth(r *http.Request, event logging.AuthEvent, user string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	h.security.Log(event, user, clientIP(r), reason)
	label := string(event)
	if err != nil && event != logging.EventLoginFailure && event != logging.EventStateMismatch {
		label += "_failure"
	}
	metrics.AuthEvents.WithLabelValues(label).Inc()
}

// Home returns the landing page payload.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	h.renderPage(w, r, "home", map[string]interface{}{
		"authenticated": session != nil && session.Authenticated(),
	})
}

// LoginPage stores a fresh anti-forgery state and returns the login page,
// including the hosted UI URL when federation is configured.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{"federated": h.federation != nil}

	if h.federation != nil {
		state, err := identity.NewState()
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, "Internal server error", err)
			return
		}
		session := auth.SessionFromContext(r.Context())
		session.State = state
		h.sessions.SaveOrLog(r, w, session)
		data["federatedLoginUrl"] = h.federation.AuthCodeURL(state)
	}

	h.renderPage(w, r, "auth/login", data)
}

// Login authenticates with username and password and stores the access
// token in a regenerated session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form := loginForm{Username: r.PostFormValue("username"), Password: r.PostFormValue("password")}
	if msg := validateForm(&form); msg != "" {
		h.redirectWithError(w, r, auth.LoginPath, msg)
		return
	}

	tokens, err := h.identity.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		h.recordAuth(r, logging.EventLoginFailure, form.Username, err)
		h.redirectWithError(w, r, auth.LoginPath, identity.UserMessage(err, "Login failed"))
		return
	}

	session := auth.SessionFromContext(r.Context())
	if err := h.startSession(r, session, tokens); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to start session")
		h.redirectWithError(w, r, auth.LoginPath, MsgSessionSaveFailed)
		return
	}
	if err := h.sessions.Save(r.Context(), w, session); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to save session")
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}

	h.recordAuth(r, logging.EventLoginSuccess, form.Username, nil)
	http.Redirect(w, r, homePath, http.StatusFound)
}

// startSession regenerates the session id and stores the tokens. The ID
// token, when it verifies, supplies the user shown in pages.
func (h *Handler) startSession(r *http.Request, session *auth.Session, tokens *identity.Tokens) error {
	if err := h.sessions.Regenerate(r.Context(), session); err != nil {
		return err
	}
	session.Token = tokens.AccessToken
	session.State = ""
	session.User = nil

	if tokens.IDToken != "" {
		claims, err := h.verifier.Verify(r.Context(), tokens.IDToken)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("ID token rejected, continuing without profile")
			return nil
		}
		session.User = claims.User()
	}
	return nil
}

// RegisterPage returns the registration page.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "auth/register", nil)
}

// Register signs a user up and sends them to the confirmation page.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form := registerForm{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if msg := validateForm(&form); msg != "" {
		h.redirectWithError(w, r, registerPath, msg)
		return
	}

	if err := h.identity.SignUp(r.Context(), form.Username, form.Email, form.Password); err != nil {
		h.recordAuth(r, logging.EventSignUp, form.Username, err)
		h.redirectWithError(w, r, registerPath, identity.UserMessage(err, "Error registering"))
		return
	}

	h.recordAuth(r, logging.EventSignUp, form.Username, nil)
	h.redirectWithSuccess(w, r, withUsername(confirmPath, form.Username), MsgRegistered)
}

// ConfirmPage returns the confirmation code page.
func (h *Handler) ConfirmPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "auth/confirm", map[string]string{"username": r.URL.Query().Get("username")})
}

// Confirm submits the emailed confirmation code.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	form := confirmForm{Username: r.PostFormValue("username"), Code: r.PostFormValue("code")}
	if msg := validateForm(&form); msg != "" {
		h.redirectWithError(w, r, withUsername(confirmPath, form.Username), msg)
		return
	}

	if err := h.identity.ConfirmSignUp(r.Context(), form.Username, form.Code); err != nil {
		h.recordAuth(r, logging.EventConfirm, form.Username, err)
		h.redirectWithError(w, r, withUsername(confirmPath, form.Username), identity.UserMessage(err, "Error confirming user"))
		return
	}

	h.recordAuth(r, logging.EventConfirm, form.Username, nil)
	h.redirectWithSuccess(w, r, auth.LoginPath, MsgConfirmed)
}

// FederatedLogin stores a fresh state and redirects to the hosted UI.
func (h *Handler) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	if h.federation == nil {
		h.redirectWithError(w, r, auth.LoginPath, MsgFederationOff)
		return
	}
	state, err := identity.NewState()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	session := auth.SessionFromContext(r.Context())
	session.State = state
	if err := h.sessions.Save(r.Context(), w, session); err != nil {
		respondError(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	http.Redirect(w, r, h.federation.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the hosted UI login. The state must match the one
// stored in the session; otherwise no code exchange is attempted.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	state := r.URL.Query().Get("state")
	expected := session.State
	session.State = ""

	if expected == "" || state != expected {
		h.recordAuth(r, logging.EventStateMismatch, "", errStateMismatch)
		h.redirectWithError(w, r, auth.LoginPath, MsgInvalidState)
		return
	}
	if h.federation == nil {
		h.redirectWithError(w, r, auth.LoginPath, MsgFederationOff)
		return
	}

	tokens, err := h.federation.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.recordAuth(r, logging.EventLoginFailure, "", err)
		h.redirectWithError(w, r, auth.LoginPath, MsgAuthFailed)
		return
	}

	if err := h.startSession(r, session, tokens); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to start session")
		h.redirectWithError(w, r, auth.LoginPath, MsgSessionSaveFailed)
		return
	}
	if err := h.sessions.Save(r.Context(), w, session); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to save session")
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}

	user := ""
	if session.User != nil {
		user = session.User.ID
	}
	h.recordAuth(r, logging.EventLoginSuccess, user, nil)
	http.Redirect(w, r, homePath, http.StatusFound)
}

// Logout destroys the session. The goodbye message rides on a new one.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if err := h.sessions.Destroy(r.Context(), w, session); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to destroy session")
	}
	h.recordAuth(r, logging.EventLogout, "", nil)

	fresh := h.sessions.New()
	fresh.AddSuccess(MsgLoggedOut)
	h.sessions.SaveOrLog(r, w, fresh)
	http.Redirect(w, r, auth.LoginPath, http.StatusFound)
}

// ForgotPasswordPage returns the reset request page.
func (h *Handler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "auth/forgot-password", nil)
}

// ForgotPassword sends a reset code to the user's email.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	form := forgotForm{Email: r.PostFormValue("email")}
	if msg := validateForm(&form); msg != "" {
		h.redirectWithError(w, r, forgotPath, msg)
		return
	}

	if _, err := h.identity.ForgotPassword(r.Context(), form.Email); err != nil {
		h.recordAuth(r, logging.EventPasswordReset, form.Email, err)
		h.redirectWithError(w, r, forgotPath, identity.UserMessage(err, "Error sending reset code"))
		return
	}

	h.redirectWithSuccess(w, r, withEmail(resetPasswordPath, form.Email), MsgResetCodeSent)
}

// ResetPasswordPage returns the reset form for the email in the query.
func (h *Handler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.redirectWithError(w, r, forgotPath, MsgNoResetEmail)
		return
	}
	h.renderPage(w, r, "auth/reset-password", map[string]string{"email": email})
}

// ConfirmResetPassword sets the new password with the emailed code.
func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	form := resetForm{
		Email:            r.PostFormValue("email"),
		VerificationCode: r.PostFormValue("verificationCode"),
		NewPassword:      r.PostFormValue("newPassword"),
	}
	if msg := validateForm(&form); msg != "" {
		h.redirectWithError(w, r, withEmail(resetPasswordPath, form.Email), msg)
		return
	}

	err := h.identity.ConfirmForgotPassword(r.Context(), form.Email, form.VerificationCode, form.NewPassword)
	h.recordAuth(r, logging.EventPasswordReset, form.Email, err)
	if err != nil {
		h.redirectWithError(w, r, withEmail(resetPasswordPath, form.Email), identity.UserMessage(err, "Error resetting password"))
		return
	}

	h.redirectWithSuccess(w, r, auth.LoginPath, MsgPasswordReset)
}
