// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package identity

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

// PasswordPolicyMessage is shown when a password is rejected by the pool.
const PasswordPolicyMessage = "Password did not meet the policy requirements. It must have at least one symbol, uppercase letter, lowercase letter, and number."

// UserMessage turns an identity error into text that is safe to flash to
// the user. Unknown provider errors keep the provider's own message, which
// Cognito writes for end users; anything else becomes fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var (
		invalidPassword *types.InvalidPasswordException
		exists          *types.UsernameExistsException
		notConfirmed    *types.UserNotConfirmedException
		notAuthorized   *types.NotAuthorizedException
		notFound        *types.UserNotFoundException
		mismatch        *types.CodeMismatchException
		expired         *types.ExpiredCodeException
		limited         *types.LimitExceededException
		tooMany         *types.TooManyRequestsException
	)
	switch {
	case errors.As(err, &invalidPassword):
		return PasswordPolicyMessage
	case errors.As(err, &exists):
		return "An account with this username already exists."
	case errors.As(err, &notConfirmed):
		return "Please confirm your email before logging in."
	case errors.As(err, &notAuthorized), errors.As(err, &notFound):
		return "Incorrect username or password."
	case errors.As(err, &mismatch):
		return "Invalid verification code, please try again."
	case errors.As(err, &expired):
		return "The verification code has expired, please request a new one."
	case errors.As(err, &limited), errors.As(err, &tooMany):
		return "Too many attempts, please try again later."
	case errors.Is(err, ErrChallengeRequired):
		return "Additional verification is required for this account."
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		return apiErr.ErrorMessage()
	}
	return fallback
}
