// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package main is the entry point for the coffeechat server.

coffeechat is a small social service: users sign in through a Cognito user
pool (directly or through the hosted UI), write posts with one image, comment
on posts, and chat in named rooms over a WebSocket.

# Application Architecture

	RootSupervisor ("coffeechat")
	├── StorageSupervisor ("storage-layer")
	│   └── session-cleanup
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub
	│   ├── nats-server (BACKPLANE_ENABLED and NATS_EMBEDDED)
	│   ├── backplane (BACKPLANE_ENABLED)
	│   └── queue-consumer (SQS_QUEUE_URL and QUEUE_CONSUMER_ENABLED)
	└── APISupervisor ("api-layer")
	    └── http-server

Startup order:

 1. Configuration: defaults, YAML, .env, SSM Parameter Store, environment
 2. Logging: zerolog, JSON or console
 3. AWS clients from the default credential chain
 4. Document store (MongoDB) and its indexes
 5. Key-value table (DynamoDB), created when DYNAMO_CREATE_TABLE is set
 6. Session store (mongo, badger or memory) and the token verifier
 7. WebSocket hub, room backplane and queue relay
 8. HTTP server under the supervisor tree

# Configuration

Required:

	COGNITO_CLIENT_ID=...
	JWKS_URI=https://cognito-idp.<region>.amazonaws.com/<pool>/.well-known/jwks.json
	DB_URL=mongodb://localhost:27017
	AWS_BUCKET_NAME=coffeechat-images
	DYNAMO_TABLE_NAME=coffeechat-posts
	QUT_USERNAME=n1234567@qut.edu.au
	SESSION_SECRET=<32+ chars>            # production only

Optional:

	COGNITO_DOMAIN, COGNITO_REDIRECT_URI    # hosted UI login
	SQS_QUEUE_URL                           # post notifications
	BACKPLANE_ENABLED=true                  # cross-process room chat
	AWS_ENDPOINT_URL=http://localhost:4566  # LocalStack

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service within SHUTDOWN_TIMEOUT; the HTTP server drains in-flight requests
first. Services that do not stop in time are logged by name.

# Example Usage

	export COGNITO_CLIENT_ID=abc123
	export JWKS_URI=https://cognito-idp.ap-southeast-2.amazonaws.com/ap-southeast-2_x/.well-known/jwks.json
	export DB_URL=mongodb://localhost:27017
	export AWS_BUCKET_NAME=coffeechat-images
	export DYNAMO_TABLE_NAME=coffeechat-posts
	export QUT_USERNAME=n1234567@qut.edu.au
	export SESSION_SECRET=$(openssl rand -base64 32)
	./coffeechat
*/
package main
