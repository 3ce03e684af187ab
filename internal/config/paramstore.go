// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/goccy/go-json"
	"github.com/knadh/koanf/maps"
)

// SSMAPI is the subset of the SSM client used by the resolver.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// SecretsAPI is the subset of the Secrets Manager client used by the resolver.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var (
	_ SSMAPI     = (*ssm.Client)(nil)
	_ SecretsAPI = (*secretsmanager.Client)(nil)
)

// ErrParameterNotFound is returned by Get when the parameter does not exist.
var ErrParameterNotFound = errors.New("parameter not found")

// Resolver reads named values from SSM Parameter Store and Secrets Manager.
// Nothing is cached: every call is a round trip.
type Resolver struct {
	ssm     SSMAPI
	secrets SecretsAPI
	prefix  string
}

// NewResolver creates a resolver for parameters under prefix. secrets may
// be nil when no secret is layered.
func NewResolver(ssmClient SSMAPI, secrets SecretsAPI, prefix string) *Resolver {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Resolver{ssm: ssmClient, secrets: secrets, prefix: prefix}
}

// Get fetches a single decrypted parameter by its short name, e.g.
// "AWS_BUCKET_NAME" under the configured prefix.
func (r *Resolver) Get(ctx context.Context, name string) (string, error) {
	out, err := r.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(r.prefix + name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var nf *ssmtypes.ParameterNotFound
		if errors.As(err, &nf) {
			return "", fmt.Errorf("%s: %w", name, ErrParameterNotFound)
		}
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%s: %w", name, ErrParameterNotFound)
	}
	return *out.Parameter.Value, nil
}

// All lists every parameter under the prefix, keyed by short name.
func (r *Resolver) All(ctx context.Context) (map[string]string, error) {
	values := make(map[string]string)
	paginator := ssm.NewGetParametersByPathPaginator(r.ssm, &ssm.GetParametersByPathInput{
		Path:           aws.String(r.prefix),
		Recursive:      aws.Bool(false),
		WithDecryption: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list parameters under %s: %w", r.prefix, err)
		}
		for _, p := range page.Parameters {
			if p.Name == nil || p.Value == nil {
				continue
			}
			values[strings.TrimPrefix(*p.Name, r.prefix)] = *p.Value
		}
	}
	return values, nil
}

// Secret fetches a Secrets Manager secret holding a flat JSON object.
func (r *Resolver) Secret(ctx context.Context, secretID string) (map[string]string, error) {
	if r.secrets == nil {
		return nil, fmt.Errorf("secrets manager client not configured")
	}
	out, err := r.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", secretID)
	}
	values := make(map[string]string)
	if err := json.Unmarshal([]byte(*out.SecretString), &values); err != nil {
		return nil, fmt.Errorf("secret %s is not a flat JSON object: %w", secretID, err)
	}
	return values, nil
}

// Provider returns a koanf.Provider over the parameters and, when secretID
// is not empty, the secret. Names are translated with the same mapping as
// environment variables; unknown names are ignored.
func (r *Resolver) Provider(ctx context.Context, secretID string) *ParamProvider {
	return &ParamProvider{ctx: ctx, resolver: r, secretID: secretID}
}

// ParamProvider implements koanf.Provider.
type ParamProvider struct {
	ctx      context.Context
	resolver *Resolver
	secretID string
}

// ReadBytes is not supported; the provider yields a map.
func (p *ParamProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("paramstore provider does not support ReadBytes")
}

// Read implements koanf.Provider.
func (p *ParamProvider) Read() (map[string]interface{}, error) {
	params, err := p.resolver.All(p.ctx)
	if err != nil {
		return nil, err
	}
	if p.secretID != "" {
		secret, err := p.resolver.Secret(p.ctx, p.secretID)
		if err != nil {
			return nil, err
		}
		for k, v := range secret {
			params[k] = v
		}
	}

	flat := make(map[string]interface{}, len(params))
	for name, value := range params {
		if path := envTransformFunc(name); path != "" {
			flat[path] = value
		}
	}
	return maps.Unflatten(flat, "."), nil
}
