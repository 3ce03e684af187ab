// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package testinfra starts throwaway containers for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
//
// # MongoDB
//
//	func TestPosts(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    mongoC, err := testinfra.NewMongoContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, mongoC)
//
//	    client, err := docstore.Connect(ctx, mongoC.URI, 10*time.Second)
//	    // ...
//	}
//
// # LocalStack
//
// LocalStackContainer exposes one edge endpoint serving S3, DynamoDB, SQS,
// SSM and Secrets Manager. AWSConfig returns a client configuration with
// static credentials pointed at it:
//
//	ls, err := testinfra.NewLocalStackContainer(ctx)
//	// ...
//	client := sqs.NewFromConfig(ls.AWSConfig())
//
// Tests skip when Docker is unavailable. The first run pulls images.
package testinfra
