// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/goccy/go-json"

	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
)

// Producer sends post notifications to a queue.
type Producer struct {
	api      SQSAPI
	queueURL string
}

// NewProducer creates a producer for queueURL.
func NewProducer(api SQSAPI, queueURL string) *Producer {
	return &Producer{api: api, queueURL: queueURL}
}

// Publish sends n. Failures are logged and counted, never returned: a post
// that was stored stays stored whether or not anyone hears about it.
func (p *Producer) Publish(ctx context.Context, n models.PostNotification) {
	body, err := json.Marshal(n)
	if err != nil {
		metrics.QueueErrors.WithLabelValues("send").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("post_id", n.PostID).Msg("failed to encode post notification")
		return
	}

	done := metrics.ObserveExternalCall("sqs", "SendMessage")
	out, err := p.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	done(err)
	if err != nil {
		metrics.QueueErrors.WithLabelValues("send").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("post_id", n.PostID).Msg("failed to send post notification")
		return
	}

	logging.Ctx(ctx).Debug().
		Str("post_id", n.PostID).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("post notification sent")
}
