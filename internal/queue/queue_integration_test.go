// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

//go:build integration

package queue

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/tomtom215/coffeechat/internal/cache"
	"github.com/tomtom215/coffeechat/internal/models"
	"github.com/tomtom215/coffeechat/internal/testinfra"
)

func TestRelayIntegration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	ls, err := testinfra.NewLocalStackContainer(ctx)
	if err != nil {
		t.Fatalf("start localstack: %v", err)
	}
	t.Cleanup(func() { testinfra.CleanupContainer(t, ctx, ls) })

	client := sqs.NewFromConfig(ls.AWSConfig())
	created, err := client.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String("coffeechat-posts")})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	queueURL := aws.ToString(created.QueueUrl)

	producer := NewProducer(client, queueURL)
	n := models.PostNotification{PostID: "p-1", Title: "Cortado", UserID: "alice-id"}
	// The same post twice: the consumer relays it once.
	producer.Publish(ctx, n)
	producer.Publish(ctx, n)

	broadcaster := &recordingBroadcaster{}
	consumer := NewConsumer(client, broadcaster, ConsumerConfig{
		QueueURL:     queueURL,
		WaitSeconds:  1,
		PollInterval: 10 * time.Millisecond,
		Dedup:        cache.NewDedup(100, time.Minute),
	})

	pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		if err := consumer.Poll(pollCtx); err != nil {
			t.Fatalf("Poll: %v", err)
		}
	}

	if got := broadcaster.count(); got != 1 {
		t.Fatalf("broadcasts = %d, want 1", got)
	}
	if broadcaster.posts[0].PostID != "p-1" {
		t.Errorf("broadcast = %+v", broadcaster.posts[0])
	}

	out, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{QueueUrl: aws.String(queueURL), WaitTimeSeconds: 1})
	if err != nil {
		t.Fatalf("ReceiveMessage: %v", err)
	}
	if len(out.Messages) != 0 {
		t.Errorf("queue still holds %d messages; duplicates should be deleted", len(out.Messages))
	}
}
