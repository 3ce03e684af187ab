// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/tomtom215/coffeechat/internal/config"
)

// emulatorAccessKey is accepted by LocalStack for any account.
const emulatorAccessKey = "test"

// awsClients holds one client per AWS service used by the server.
type awsClients struct {
	S3       *s3.Client
	Presign  *s3.PresignClient
	DynamoDB *dynamodb.Client
	SQS      *sqs.Client
	Cognito  *cip.Client
}

// loadAWSConfig resolves credentials through the default chain. With an
// endpoint override every client talks to that endpoint, and static
// emulator credentials are used unless AWS_ACCESS_KEY_ID is set.
func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(emulatorAccessKey, emulatorAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS configuration: %w", err)
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return awsCfg, nil
}

func newAWSClients(awsCfg aws.Config, endpoint string) *awsClients {
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Emulators serve buckets by path, not by virtual host.
		o.UsePathStyle = endpoint != ""
	})
	return &awsClients{
		S3:       s3Client,
		Presign:  s3.NewPresignClient(s3Client),
		DynamoDB: dynamodb.NewFromConfig(awsCfg),
		SQS:      sqs.NewFromConfig(awsCfg),
		Cognito:  cip.NewFromConfig(awsCfg),
	}
}

// newParamResolver is the remote configuration factory passed to
// config.LoadWithKoanf.
func newParamResolver(ctx context.Context, bootstrap *config.Config) (*config.Resolver, error) {
	awsCfg, err := loadAWSConfig(ctx, bootstrap.AWS)
	if err != nil {
		return nil, err
	}
	var secrets config.SecretsAPI
	if bootstrap.ParamStore.SecretID != "" {
		secrets = secretsmanager.NewFromConfig(awsCfg)
	}
	return config.NewResolver(ssm.NewFromConfig(awsCfg), secrets, bootstrap.ParamStore.Prefix), nil
}
