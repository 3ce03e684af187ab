// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package queue

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/coffeechat/internal/cache"
	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
)

// Broadcaster fans a notification out to connected clients.
// Satisfied by *websocket.Hub.
type Broadcaster interface {
	BroadcastNewPost(n models.PostNotification)
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	QueueURL string
	// WaitSeconds is the long-poll wait, 0 to 20.
	WaitSeconds int32
	// PollInterval is the minimum spacing between receive calls.
	PollInterval time.Duration
	// Dedup drops redelivered postIds. Nil rebroadcasts every delivery.
	Dedup *cache.Dedup
}

// Consumer polls the queue and relays each notification to a Broadcaster.
// It implements suture.Service.
type Consumer struct {
	api         SQSAPI
	broadcaster Broadcaster
	queueURL    string
	wait        int32
	limiter     *rate.Limiter
	dedup       *cache.Dedup
}

// NewConsumer creates a consumer.
func NewConsumer(api SQSAPI, broadcaster Broadcaster, cfg ConsumerConfig) *Consumer {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Consumer{
		api:         api,
		broadcaster: broadcaster,
		queueURL:    cfg.QueueURL,
		wait:        cfg.WaitSeconds,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		dedup:       cfg.Dedup,
	}
}

// Serve polls until ctx is canceled. Receive errors are logged and the
// loop continues at the limiter's pace.
func (c *Consumer) Serve(ctx context.Context) error {
	logging.Info().
		Str("queue_url", c.queueURL).
		Bool("dedup", c.dedup != nil).
		Msg("queue consumer started")

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			// Wait also fails early when the deadline falls before the next token.
			<-ctx.Done()
			return ctx.Err()
		}
		if err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Warn().Err(err).Msg("queue receive failed")
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (c *Consumer) String() string {
	return "queue-consumer"
}

// Poll receives at most one message and relays it.
func (c *Consumer) Poll(ctx context.Context) error {
	done := metrics.ObserveExternalCall("sqs", "ReceiveMessage")
	out, err := c.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     c.wait,
	})
	if errors.Is(err, context.Canceled) {
		done(nil)
		return err
	}
	done(err)
	if err != nil {
		metrics.QueueErrors.WithLabelValues("receive").Inc()
		return err
	}

	for i := range out.Messages {
		c.handle(ctx, &out.Messages[i])
	}
	return nil
}

// handle relays one message and deletes it. A body that does not decode is
// deleted without a broadcast; it would never decode on redelivery either.
func (c *Consumer) handle(ctx context.Context, m *sqstypes.Message) {
	metrics.QueueMessagesReceived.Inc()
	messageID := aws.ToString(m.MessageId)

	var n models.PostNotification
	if err := json.Unmarshal([]byte(aws.ToString(m.Body)), &n); err != nil {
		metrics.QueueErrors.WithLabelValues("parse").Inc()
		logging.Warn().Err(err).Str("message_id", messageID).Msg("dropping undecodable queue message")
		c.delete(ctx, m)
		return
	}

	key := n.PostID
	if key == "" {
		key = messageID
	}
	if c.dedup != nil && c.dedup.Seen(key) {
		metrics.QueueMessagesDuplicate.Inc()
		logging.Debug().Str("post_id", n.PostID).Str("message_id", messageID).Msg("dropping redelivered post notification")
		c.delete(ctx, m)
		return
	}

	c.broadcaster.BroadcastNewPost(n)
	metrics.QueueMessagesRelayed.Inc()
	logging.Debug().Str("post_id", n.PostID).Msg("post notification relayed")

	c.delete(ctx, m)
}

func (c *Consumer) delete(ctx context.Context, m *sqstypes.Message) {
	done := metrics.ObserveExternalCall("sqs", "DeleteMessage")
	_, err := c.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: m.ReceiptHandle,
	})
	done(err)
	if err != nil {
		metrics.QueueErrors.WithLabelValues("delete").Inc()
		logging.Warn().Err(err).Str("message_id", aws.ToString(m.MessageId)).Msg("failed to delete queue message")
	}
}
