// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/tomtom215/coffeechat/internal/auth"
	"github.com/tomtom215/coffeechat/internal/authz"
	"github.com/tomtom215/coffeechat/internal/config"
	"github.com/tomtom215/coffeechat/internal/docstore"
	"github.com/tomtom215/coffeechat/internal/identity"
	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/models"
	"github.com/tomtom215/coffeechat/internal/objectstore"
	"github.com/tomtom215/coffeechat/internal/queue"
	"github.com/tomtom215/coffeechat/internal/recordstore"
	ws "github.com/tomtom215/coffeechat/internal/websocket"
)

// DocumentStore is the subset of *docstore.Store used by the handlers.
type DocumentStore interface {
	Ping(ctx context.Context) error
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id bson.ObjectID) (*models.Post, error)
	UpdatePost(ctx context.Context, id bson.ObjectID, u docstore.PostUpdate) (*models.Post, error)
	DeletePost(ctx context.Context, id bson.ObjectID) error
	ListPosts(ctx context.Context) ([]models.PostSummary, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, postID bson.ObjectID) ([]models.Comment, error)
	UpdateComment(ctx context.Context, id bson.ObjectID, writerID, content string) error
	DeleteComment(ctx context.Context, id bson.ObjectID, writerID string) error
	UpdateCommentAny(ctx context.Context, id bson.ObjectID, content string) error
	DeleteCommentAny(ctx context.Context, id bson.ObjectID) error
}

// RecordStore is the subset of *recordstore.Store used by the handlers.
type RecordStore interface {
	Partition() string
	Put(ctx context.Context, rec models.PostRecord) error
	Get(ctx context.Context, postID string) (*models.PostRecord, error)
	Scan(ctx context.Context) ([]models.PostRecord, error)
	Delete(ctx context.Context, postID string) error
}

// ImageStore is the subset of *objectstore.Store used by the handlers.
type ImageStore interface {
	PresignUpload(ctx context.Context, userID, fileName string) (*objectstore.PresignedUpload, error)
	Upload(ctx context.Context, up *objectstore.PresignedUpload, body io.Reader, size int64, contentType string) error
	PresignDownload(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	ObjectURL(key string) string
}

// IdentityProvider is the subset of *identity.Client used by the handlers.
type IdentityProvider interface {
	SignUp(ctx context.Context, username, email, password string) error
	ConfirmSignUp(ctx context.Context, username, code string) error
	Login(ctx context.Context, username, password string) (*identity.Tokens, error)
	ForgotPassword(ctx context.Context, username string) (string, error)
	ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error
}

// FederatedLogin is satisfied by *identity.Federation.
type FederatedLogin interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*identity.Tokens, error)
}

// Notifier announces new posts. Satisfied by *queue.Producer.
type Notifier interface {
	Publish(ctx context.Context, n models.PostNotification)
}

var (
	_ DocumentStore    = (*docstore.Store)(nil)
	_ RecordStore      = (*recordstore.Store)(nil)
	_ ImageStore       = (*objectstore.Store)(nil)
	_ IdentityProvider = (*identity.Client)(nil)
	_ FederatedLogin   = (*identity.Federation)(nil)
	_ Notifier         = (*queue.Producer)(nil)
)

// Dependencies groups everything NewHandler needs. Federation and Notifier
// are optional.
type Dependencies struct {
	Config     *config.Config
	Docs       DocumentStore
	Records    RecordStore
	Images     ImageStore
	Identity   IdentityProvider
	Federation FederatedLogin
	Notifier   Notifier
	Sessions   *auth.SessionManager
	Verifier   auth.Verifier
	Authorizer *authz.Authorizer
	Hub        *ws.Hub
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_auth.go: registration, login, federation, password reset
//   - handlers_posts.go: post pages and the dual write
//   - handlers_comments.go: comment add, edit, delete
//   - handlers_records.go: read-only key-value table views
//   - handlers_chat.go: the WebSocket upgrade
//   - handlers_health.go: probes
type Handler struct {
	config     *config.Config
	docs       DocumentStore
	records    RecordStore
	images     ImageStore
	identity   IdentityProvider
	federation FederatedLogin
	notifier   Notifier
	sessions   *auth.SessionManager
	verifier   auth.Verifier
	authz      *authz.Authorizer
	hub        *ws.Hub
	security   *logging.SecurityLogger
	startTime  time.Time
}

// NewHandler creates a handler from deps.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		config:     deps.Config,
		docs:       deps.Docs,
		records:    deps.Records,
		images:     deps.Images,
		identity:   deps.Identity,
		federation: deps.Federation,
		notifier:   deps.Notifier,
		sessions:   deps.Sessions,
		verifier:   deps.Verifier,
		authz:      deps.Authorizer,
		hub:        deps.Hub,
		security:   logging.NewSecurityLogger(),
		startTime:  time.Now(),
	}
}

// maxUploadBytes returns the configured multipart limit, 50MB by default.
func (h *Handler) maxUploadBytes() int64 {
	if h.config != nil && h.config.Storage.MaxUploadBytes > 0 {
		return h.config.Storage.MaxUploadBytes
	}
	return 50 << 20
}
