// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/tomtom215/coffeechat/internal/auth"
	"github.com/tomtom215/coffeechat/internal/docstore"
	"github.com/tomtom215/coffeechat/internal/identity"
	"github.com/tomtom215/coffeechat/internal/models"
	"github.com/tomtom215/coffeechat/internal/objectstore"
	"github.com/tomtom215/coffeechat/internal/recordstore"
)

var errFake = errors.New("fake failure")

// fakeDocs is an in-memory DocumentStore.
type fakeDocs struct {
	mu        sync.Mutex
	posts     map[bson.ObjectID]*models.Post
	comments  map[bson.ObjectID]*models.Comment
	createErr error
	pingErr   error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{
		posts:    make(map[bson.ObjectID]*models.Post),
		comments: make(map[bson.ObjectID]*models.Comment),
	}
}

func (f *fakeDocs) Ping(context.Context) error { return f.pingErr }

func (f *fakeDocs) CreatePost(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = bson.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeDocs) GetPost(_ context.Context, id bson.ObjectID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeDocs) UpdatePost(_ context.Context, id bson.ObjectID, u docstore.PostUpdate) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	p.Title = u.Title
	p.Content = u.Content
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	now := time.Now().UTC()
	p.UpdatedAt = &now
	cp := *p
	return &cp, nil
}

func (f *fakeDocs) DeletePost(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return docstore.ErrNotFound
	}
	delete(f.posts, id)
	for cid, c := range f.comments {
		if c.ParentID == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

func (f *fakeDocs) ListPosts(context.Context) ([]models.PostSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PostSummary, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, models.PostSummary{Post: *p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeDocs) CreateComment(_ context.Context, c *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = bson.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	cp := *c
	f.comments[c.ID] = &cp
	return nil
}

func (f *fakeDocs) ListComments(_ context.Context, postID bson.ObjectID) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for _, c := range f.comments {
		if c.ParentID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeDocs) UpdateComment(ctx context.Context, id bson.ObjectID, writerID, content string) error {
	f.mu.Lock()
	c, ok := f.comments[id]
	f.mu.Unlock()
	if !ok || c.WriterID != writerID {
		return docstore.ErrNotFound
	}
	return f.UpdateCommentAny(ctx, id, content)
}

func (f *fakeDocs) DeleteComment(ctx context.Context, id bson.ObjectID, writerID string) error {
	f.mu.Lock()
	c, ok := f.comments[id]
	f.mu.Unlock()
	if !ok || c.WriterID != writerID {
		return docstore.ErrNotFound
	}
	return f.DeleteCommentAny(ctx, id)
}

func (f *fakeDocs) UpdateCommentAny(_ context.Context, id bson.ObjectID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return docstore.ErrNotFound
	}
	c.Content = content
	return nil
}

func (f *fakeDocs) DeleteCommentAny(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return docstore.ErrNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeDocs) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeDocs) onlyPost() *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		cp := *p
		return &cp
	}
	return nil
}

func (f *fakeDocs) comment(id bson.ObjectID) *models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.comments[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}

// fakeRecords is an in-memory RecordStore.
type fakeRecords struct {
	mu      sync.Mutex
	items   map[string]models.PostRecord
	deleted []string
	putErr  error
	scanErr error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{items: make(map[string]models.PostRecord)}
}

func (f *fakeRecords) Partition() string { return "n1234567@qut.edu.au" }

func (f *fakeRecords) Put(_ context.Context, rec models.PostRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.items[rec.PostID] = rec
	return nil
}

func (f *fakeRecords) Get(_ context.Context, postID string) (*models.PostRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.items[postID]
	if !ok {
		return nil, recordstore.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeRecords) Scan(context.Context) ([]models.PostRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := make([]models.PostRecord, 0, len(f.items))
	for _, rec := range f.items {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeRecords) Delete(_ context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, postID)
	delete(f.items, postID)
	return nil
}

func (f *fakeRecords) record(postID string) (models.PostRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.items[postID]
	return rec, ok
}

// fakeImages records uploads and deletes.
type fakeImages struct {
	mu        sync.Mutex
	uploaded  map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{uploaded: make(map[string][]byte)}
}

func (f *fakeImages) PresignUpload(_ context.Context, userID, fileName string) (*objectstore.PresignedUpload, error) {
	key := userID + "/" + fileName
	return &objectstore.PresignedUpload{
		Key:    key,
		URL:    "https://coffeechat-images.s3.ap-southeast-2.amazonaws.com/" + key + "?X-Amz-Signature=x",
		Method: "PUT",
	}, nil
}

func (f *fakeImages) Upload(_ context.Context, up *objectstore.PresignedUpload, body io.Reader, _ int64, _ string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded[up.Key] = data
	return nil
}

func (f *fakeImages) PresignDownload(_ context.Context, key string) (string, error) {
	return f.ObjectURL(key) + "?X-Amz-Signature=read", nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.uploaded, key)
	return nil
}

func (f *fakeImages) ObjectURL(key string) string {
	return "https://coffeechat-images.s3.ap-southeast-2.amazonaws.com/" + key
}

func (f *fakeImages) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeImages) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploaded)
}

// fakeIdentity answers Login with tokens for known passwords.
type fakeIdentity struct {
	mu        sync.Mutex
	passwords map[string]string
	loginErr  error
	signedUp  []string
	confirmed []string
}

func (f *fakeIdentity) SignUp(_ context.Context, username, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedUp = append(f.signedUp, username)
	return nil
}

func (f *fakeIdentity) ConfirmSignUp(_ context.Context, username, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, username)
	return nil
}

func (f *fakeIdentity) Login(_ context.Context, username, password string) (*identity.Tokens, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if want, ok := f.passwords[username]; !ok || want != password {
		return nil, errFake
	}
	return &identity.Tokens{AccessToken: "tok-" + username, IDToken: "tok-" + username, ExpiresIn: 3600}, nil
}

func (f *fakeIdentity) ForgotPassword(context.Context, string) (string, error) {
	return "a***@example.com", nil
}

func (f *fakeIdentity) ConfirmForgotPassword(context.Context, string, string, string) error {
	return nil
}

// fakeFederation counts code exchanges.
type fakeFederation struct {
	mu        sync.Mutex
	exchanges []string
}

func (f *fakeFederation) AuthCodeURL(state string) string {
	return "https://coffeechat.auth.ap-southeast-2.amazoncognito.com/oauth2/authorize?state=" + state
}

func (f *fakeFederation) Exchange(_ context.Context, code string) (*identity.Tokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges = append(f.exchanges, code)
	return &identity.Tokens{AccessToken: "tok-bob", IDToken: "tok-bob"}, nil
}

func (f *fakeFederation) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.exchanges)
}

// fakeNotifier records published notifications.
type fakeNotifier struct {
	mu        sync.Mutex
	published []models.PostNotification
}

func (f *fakeNotifier) Publish(_ context.Context, n models.PostNotification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, n)
}

func (f *fakeNotifier) all() []models.PostNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PostNotification(nil), f.published...)
}

// fakeVerifier accepts tokens of the form "tok-<username>".
type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, raw string) (*auth.Claims, error) {
	username, ok := strings.CutPrefix(raw, "tok-")
	if !ok || username == "" {
		return nil, errFake
	}
	return &auth.Claims{
		TokenUse: auth.TokenUseAccess,
		Username: username,
		Email:    username + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: username + "-id",
		},
	}, nil
}

var (
	_ DocumentStore    = (*fakeDocs)(nil)
	_ RecordStore      = (*fakeRecords)(nil)
	_ ImageStore       = (*fakeImages)(nil)
	_ IdentityProvider = (*fakeIdentity)(nil)
	_ FederatedLogin   = (*fakeFederation)(nil)
	_ Notifier         = (*fakeNotifier)(nil)
	_ auth.Verifier    = fakeVerifier{}
)
