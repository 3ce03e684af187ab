// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package config loads and validates the coffeechat runtime configuration.

# Configuration Sources

Sources are layered with koanf, lowest priority first:

 1. Built-in defaults (defaultConfig)
 2. YAML file from CONFIG_PATH or DefaultConfigPaths
 3. A .env file (DOTENV_PATH, default ".env"), exported into the environment
 4. SSM Parameter Store parameters under PARAMSTORE_PREFIX, plus the JSON
    object in PARAMSTORE_SECRET_ID when set (only with PARAMSTORE_ENABLED=true)
 5. Environment variables

Parameter names in the remote store use the same names as the environment
variables, e.g. "/coffeechat/AWS_BUCKET_NAME".

# Required Variables

  - COGNITO_CLIENT_ID, JWKS_URI
  - DB_URL, DB_NAME
  - AWS_BUCKET_NAME
  - DYNAMO_TABLE_NAME, QUT_USERNAME

SQS_QUEUE_URL is optional; without it the post notification relay is off.
COGNITO_DOMAIN and COGNITO_REDIRECT_URI enable federated login together.

# Usage

	cfg, err := config.LoadWithKoanf(ctx, func(ctx context.Context, b *config.Config) (*config.Resolver, error) {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(b.AWS.Region))
		if err != nil {
			return nil, err
		}
		return config.NewResolver(ssm.NewFromConfig(awsCfg), secretsmanager.NewFromConfig(awsCfg), b.ParamStore.Prefix), nil
	})

The returned Config is not modified after Load and is safe for concurrent reads.
*/
package config
