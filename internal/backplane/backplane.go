// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package backplane

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
)

// ErrClosed is returned by PublishRoom after Close.
var ErrClosed = errors.New("backplane closed")

// Deliverer performs the local room broadcast. Satisfied by *websocket.Hub.
type Deliverer interface {
	DeliverRoom(msg models.ChatMessage)
}

// Config configures a Backplane.
type Config struct {
	// URL is the NATS server, e.g. "nats://127.0.0.1:4222".
	URL string
	// SubjectPrefix is prepended to the room token, e.g. "coffeechat.rooms".
	SubjectPrefix string
	Breaker       BreakerConfig
	// MaxReconnects is passed to nats.go; -1 retries forever.
	MaxReconnects int
	ReconnectWait time.Duration
}

// Backplane publishes local room messages and delivers remote ones.
// It implements websocket.Relay and suture.Service.
type Backplane struct {
	pub     message.Publisher
	sub     message.Subscriber
	breaker *gobreaker.CircuitBreaker[struct{}]
	prefix  string
	local   Deliverer

	mu     sync.RWMutex
	closed bool

	readyOnce sync.Once
	ready     chan struct{}
}

// New connects a publisher and a subscriber to cfg.URL.
func New(cfg Config, local Deliverer) (*Backplane, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("coffeechat-backplane"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("backplane disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("backplane reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create backplane publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:               cfg.URL,
		SubjectCalculator: fanOutSubject,
		SubscribersCount:  1,
		CloseTimeout:      5 * time.Second,
		AckWaitTimeout:    5 * time.Second,
		NatsOptions:       natsOpts,
		Unmarshaler:       &wmNats.NATSMarshaler{},
		JetStream:         wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create backplane subscriber: %w", err)
	}

	return NewWithPubSub(pub, sub, cfg, local), nil
}

// NewWithPubSub builds a backplane over existing watermill endpoints.
func NewWithPubSub(pub message.Publisher, sub message.Subscriber, cfg Config, local Deliverer) *Backplane {
	breakerCfg := cfg.Breaker
	if breakerCfg.Name == "" {
		breakerCfg = DefaultBreakerConfig()
	}
	prefix := strings.TrimSuffix(cfg.SubjectPrefix, ".")
	if prefix == "" {
		prefix = "coffeechat.rooms"
	}
	return &Backplane{
		pub:     pub,
		sub:     sub,
		breaker: newBreaker(breakerCfg),
		prefix:  prefix,
		local:   local,
		ready:   make(chan struct{}),
	}
}

// fanOutSubject never sets a queue group: every process must see every
// message.
func fanOutSubject(_ string, topic string) *wmNats.SubjectDetail {
	return &wmNats.SubjectDetail{Primary: topic}
}

// Subject returns the subject a room's messages are published on.
func (b *Backplane) Subject(room string) string {
	return b.prefix + "." + subjectToken(room)
}

// subjectToken returns room when it is a valid NATS subject token and its
// base64url encoding otherwise.
func subjectToken(room string) string {
	if room != "" && !strings.ContainsAny(room, ".*> \t\r\n") {
		return room
	}
	return "b64-" + base64.RawURLEncoding.EncodeToString([]byte(room))
}

// PublishRoom sends msg to every process, this one included.
func (b *Backplane) PublishRoom(ctx context.Context, msg models.ChatMessage) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode room message: %w", err)
	}
	wm := message.NewMessage(watermill.NewUUID(), payload)
	wm.Metadata.Set("room", msg.Room)
	wm.SetContext(ctx)

	subject := b.Subject(msg.Room)
	_, err = b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.pub.Publish(subject, wm)
	})
	metrics.CircuitBreakerRequests.WithLabelValues(b.breaker.Name(), breakerResult(err)).Inc()
	metrics.RecordBackplane("publish", err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Serve subscribes to every room and delivers messages locally until ctx
// is canceled.
func (b *Backplane) Serve(ctx context.Context) error {
	messages, err := b.sub.Subscribe(ctx, b.prefix+".>")
	if err != nil {
		return fmt.Errorf("subscribe to %s.>: %w", b.prefix, err)
	}
	b.readyOnce.Do(func() { close(b.ready) })
	logging.Info().Str("subject", b.prefix+".>").Msg("backplane subscriber started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("backplane subscription closed")
			}
			b.handle(msg)
		}
	}
}

// Ready is closed once the first subscription is in place.
func (b *Backplane) Ready() <-chan struct{} {
	return b.ready
}

func (b *Backplane) handle(msg *message.Message) {
	var chat models.ChatMessage
	err := json.Unmarshal(msg.Payload, &chat)
	metrics.RecordBackplane("consume", err)
	if err != nil {
		logging.Warn().Err(err).Str("uuid", msg.UUID).Msg("dropping undecodable backplane message")
		msg.Ack()
		return
	}
	b.local.DeliverRoom(chat)
	msg.Ack()
}

// String implements fmt.Stringer for supervisor logs.
func (b *Backplane) String() string {
	return "backplane"
}

// Close releases both NATS connections.
func (b *Backplane) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return errors.Join(b.pub.Close(), b.sub.Close())
}
