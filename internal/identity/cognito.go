// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/tomtom215/coffeechat/internal/metrics"
)

// CognitoAPI is the subset of the Cognito client used by Client.
type CognitoAPI interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
}

var _ CognitoAPI = (*cip.Client)(nil)

// ErrChallengeRequired is returned by Login when the pool answers with an
// auth challenge (MFA, new password) instead of tokens. Challenges are not
// supported.
var ErrChallengeRequired = errors.New("authentication challenge required")

// Tokens are the tokens issued by a successful authentication.
type Tokens struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int32
}

// Client performs user pool operations for one app client.
type Client struct {
	api          CognitoAPI
	clientID     string
	clientSecret string
}

// NewClient creates a Client. clientSecret may be empty for public app
// clients.
func NewClient(api CognitoAPI, clientID, clientSecret string) *Client {
	return &Client{api: api, clientID: clientID, clientSecret: clientSecret}
}

// SecretHash computes base64(HMAC-SHA256(secret, username+clientID)).
func SecretHash(username, clientID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) secretHash(username string) *string {
	if c.clientSecret == "" {
		return nil
	}
	return aws.String(SecretHash(username, c.clientID, c.clientSecret))
}

// SignUp registers a user with the email attribute. The pool sends a
// confirmation code to email.
func (c *Client) SignUp(ctx context.Context, username, email, password string) error {
	done := metrics.ObserveExternalCall("cognito", "SignUp")
	_, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		SecretHash: c.secretHash(username),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	done(err)
	if err != nil {
		return fmt.Errorf("sign up %s: %w", username, err)
	}
	return nil
}

// ConfirmSignUp confirms a registration with the emailed code.
func (c *Client) ConfirmSignUp(ctx context.Context, username, code string) error {
	done := metrics.ObserveExternalCall("cognito", "ConfirmSignUp")
	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		SecretHash:       c.secretHash(username),
	})
	done(err)
	if err != nil {
		return fmt.Errorf("confirm sign up %s: %w", username, err)
	}
	return nil
}

// Login authenticates with USER_PASSWORD_AUTH.
func (c *Client) Login(ctx context.Context, username, password string) (*Tokens, error) {
	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}
	if h := c.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}

	done := metrics.ObserveExternalCall("cognito", "InitiateAuth")
	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId:       aws.String(c.clientID),
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: params,
	})
	done(err)
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", username, err)
	}
	if out.AuthenticationResult == nil {
		return nil, fmt.Errorf("login %s: %w: %s", username, ErrChallengeRequired, out.ChallengeName)
	}

	res := out.AuthenticationResult
	return &Tokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

// ForgotPassword starts a password reset. It returns the masked
// destination the code was sent to, when the pool reports one.
func (c *Client) ForgotPassword(ctx context.Context, username string) (string, error) {
	done := metrics.ObserveExternalCall("cognito", "ForgotPassword")
	out, err := c.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(username),
		SecretHash: c.secretHash(username),
	})
	done(err)
	if err != nil {
		return "", fmt.Errorf("forgot password %s: %w", username, err)
	}
	if out.CodeDeliveryDetails == nil {
		return "", nil
	}
	return aws.ToString(out.CodeDeliveryDetails.Destination), nil
}

// ConfirmForgotPassword sets a new password using the reset code.
func (c *Client) ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error {
	done := metrics.ObserveExternalCall("cognito", "ConfirmForgotPassword")
	_, err := c.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
		SecretHash:       c.secretHash(username),
	})
	done(err)
	if err != nil {
		return fmt.Errorf("confirm forgot password %s: %w", username, err)
	}
	return nil
}
