// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/coffeechat/internal/auth"
	"github.com/tomtom215/coffeechat/internal/authz"
	"github.com/tomtom215/coffeechat/internal/config"
	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/models"
)

//nolint:gochecknoinits // quiet logger for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

const (
	testCookieName = "coffeechat.sid"
	testOrigin     = "http://localhost:3000"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// testEnv is a router over in-memory fakes.
type testEnv struct {
	t          *testing.T
	docs       *fakeDocs
	records    *fakeRecords
	images     *fakeImages
	identity   *fakeIdentity
	federation *fakeFederation
	notifier   *fakeNotifier
	store      *auth.MemorySessionStore
	sessions   *auth.SessionManager
	handler    *Handler
	router     http.Handler
}

func newTestEnv(t *testing.T, moderators ...string) *testEnv {
	t.Helper()

	authorizer, err := authz.New(moderators)
	if err != nil {
		t.Fatalf("authz.New() error = %v", err)
	}

	env := &testEnv{
		t:          t,
		docs:       newFakeDocs(),
		records:    newFakeRecords(),
		images:     newFakeImages(),
		identity:   &fakeIdentity{passwords: map[string]string{"alice": "correct-horse"}},
		federation: &fakeFederation{},
		notifier:   &fakeNotifier{},
		store:      auth.NewMemorySessionStore(),
	}
	env.sessions = auth.NewSessionManager(env.store, auth.SessionManagerConfig{
		CookieName: testCookieName,
		Secret:     testSecret,
		TTL:        time.Hour,
	})

	cfg := &config.Config{
		Security: config.SecurityConfig{
			CORSOrigins:       []string{testOrigin},
			RateLimitDisabled: true,
		},
	}
	env.handler = NewHandler(Dependencies{
		Config:     cfg,
		Docs:       env.docs,
		Records:    env.records,
		Images:     env.images,
		Identity:   env.identity,
		Federation: env.federation,
		Notifier:   env.notifier,
		Sessions:   env.sessions,
		Verifier:   fakeVerifier{},
		Authorizer: authorizer,
	})
	env.router = NewRouter(env.handler).SetupChi()
	return env
}

// session stores a session and returns its cookie. A non-empty username
// logs the session in.
func (e *testEnv) session(username string, mutate ...func(*auth.Session)) (*auth.Session, *http.Cookie) {
	e.t.Helper()
	s := auth.NewSession(time.Hour)
	if username != "" {
		s.Token = "tok-" + username
	}
	for _, m := range mutate {
		m(s)
	}
	if err := e.store.Save(context.Background(), s); err != nil {
		e.t.Fatalf("store.Save() error = %v", err)
	}
	return s, &http.Cookie{Name: testCookieName, Value: auth.SignCookieValue(s.ID, testSecret)}
}

// storedSession reads a session back from the store.
func (e *testEnv) storedSession(id string) *auth.Session {
	e.t.Helper()
	s, err := e.store.Get(context.Background(), id)
	if err != nil {
		e.t.Fatalf("store.Get(%s) error = %v", id, err)
	}
	return s
}

// serve runs req through the router.
func (e *testEnv) serve(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// addPost stores a post owned by ownerID directly in the fakes.
func (e *testEnv) addPost(ownerID, title string) *models.Post {
	e.t.Helper()
	p := &models.Post{
		PostID:   fmt.Sprintf("post-%s-%d", ownerID, time.Now().UnixNano()),
		Title:    title,
		ImageURL: e.images.ObjectURL(ownerID + "/1700000000000.png"),
		User:     ownerID,
	}
	if err := e.docs.CreatePost(context.Background(), p); err != nil {
		e.t.Fatalf("CreatePost() error = %v", err)
	}
	if err := e.records.Put(context.Background(), p.Record(e.records.Partition())); err != nil {
		e.t.Fatalf("records.Put() error = %v", err)
	}
	return p
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// multipartRequest builds a post form. An empty fileName omits the file.
func multipartRequest(t *testing.T, target string, fields map[string]string, fileName, contentType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, imageField, fileName))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart() error = %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("part.Write() error = %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart Close() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, prefix string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 (body %q)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, prefix) {
		t.Errorf("Location = %q, want prefix %q", loc, prefix)
	}
}

// sessionCookie returns the session cookie set on rec, if any.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName && c.MaxAge >= 0 && c.Value != "" {
			return c
		}
	}
	return nil
}

// sessionFromResponse resolves the session cookie set on rec.
func (e *testEnv) sessionFromResponse(rec *httptest.ResponseRecorder) *auth.Session {
	e.t.Helper()
	c := sessionCookie(rec)
	if c == nil {
		e.t.Fatal("response set no session cookie")
	}
	id, ok := auth.VerifyCookieValue(c.Value, testSecret)
	if !ok {
		e.t.Fatal("session cookie signature invalid")
	}
	return e.storedSession(id)
}
