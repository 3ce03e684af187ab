// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/goccy/go-json"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultLocalStackImage is the LocalStack image used by tests.
	DefaultLocalStackImage = "localstack/localstack:3"

	// DefaultLocalStackPort is the LocalStack edge port.
	DefaultLocalStackPort = "4566"

	// LocalStackRegion is the region every client must use against LocalStack.
	LocalStackRegion = "us-east-1"
)

// LocalStackContainer is a running LocalStack with the services the
// gateways use. Any access key works.
type LocalStackContainer struct {
	testcontainers.Container
	Endpoint string
}

// NewLocalStackContainer starts LocalStack with s3, dynamodb, sqs and ssm.
func NewLocalStackContainer(ctx context.Context) (*LocalStackContainer, error) {
	services := []string{"s3", "dynamodb", "sqs", "ssm", "secretsmanager"}
	req := testcontainers.ContainerRequest{
		Image:        DefaultLocalStackImage,
		ExposedPorts: []string{DefaultLocalStackPort + "/tcp"},
		Env: map[string]string{
			"SERVICES": strings.Join(services, ","),
		},
		WaitingFor: wait.ForHTTP("/_localstack/health").
			WithPort(DefaultLocalStackPort + "/tcp").
			WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create localstack container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultLocalStackPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	ls := &LocalStackContainer{
		Container: container,
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
	}

	// The health endpoint answers before every service is running.
	err = WaitForReady(ctx, container, func() bool {
		return ls.servicesRunning(ctx, services)
	}, time.Minute)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("wait for localstack services: %w", err)
	}
	return ls, nil
}

func (c *LocalStackContainer) servicesRunning(ctx context.Context, services []string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/_localstack/health", http.NoBody)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	var health struct {
		Services map[string]string `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	for _, s := range services {
		switch health.Services[s] {
		case "running", "available":
		default:
			return false
		}
	}
	return true
}

// AWSConfig returns a client configuration pointed at the container.
func (c *LocalStackContainer) AWSConfig() aws.Config {
	return aws.Config{
		Region:       LocalStackRegion,
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
		BaseEndpoint: aws.String(c.Endpoint),
	}
}
