// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type fakeCognito struct {
	signUp         *cip.SignUpInput
	confirm        *cip.ConfirmSignUpInput
	initiate       *cip.InitiateAuthInput
	forgot         *cip.ForgotPasswordInput
	confirmForgot  *cip.ConfirmForgotPasswordInput
	initiateOutput *cip.InitiateAuthOutput
	err            error
}

func (f *fakeCognito) SignUp(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	f.signUp = in
	return &cip.SignUpOutput{}, f.err
}

func (f *fakeCognito) ConfirmSignUp(_ context.Context, in *cip.ConfirmSignUpInput, _ ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error) {
	f.confirm = in
	return &cip.ConfirmSignUpOutput{}, f.err
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	f.initiate = in
	if f.err != nil {
		return nil, f.err
	}
	return f.initiateOutput, nil
}

func (f *fakeCognito) ForgotPassword(_ context.Context, in *cip.ForgotPasswordInput, _ ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error) {
	f.forgot = in
	if f.err != nil {
		return nil, f.err
	}
	return &cip.ForgotPasswordOutput{CodeDeliveryDetails: &types.CodeDeliveryDetailsType{
		Destination: aws.String("a***@e***.com"),
	}}, nil
}

func (f *fakeCognito) ConfirmForgotPassword(_ context.Context, in *cip.ConfirmForgotPasswordInput, _ ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error) {
	f.confirmForgot = in
	return &cip.ConfirmForgotPasswordOutput{}, f.err
}

func TestSecretHash(t *testing.T) {
	a := SecretHash("alice", "client", "secret")
	if a == "" {
		t.Fatal("SecretHash returned empty string")
	}
	if a != SecretHash("alice", "client", "secret") {
		t.Error("SecretHash is not deterministic")
	}
	if a == SecretHash("bob", "client", "secret") {
		t.Error("SecretHash ignores the username")
	}
	if a == SecretHash("alice", "client", "other") {
		t.Error("SecretHash ignores the secret")
	}
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		wantSecret bool
	}{
		{"public client", "", false},
		{"confidential client", "s3cret", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCognito{}
			c := NewClient(fake, "client-id", tt.secret)

			if err := c.SignUp(context.Background(), "alice", "alice@example.com", "Passw0rd!"); err != nil {
				t.Fatalf("SignUp: %v", err)
			}
			in := fake.signUp
			if aws.ToString(in.ClientId) != "client-id" || aws.ToString(in.Username) != "alice" {
				t.Errorf("input = %+v", in)
			}
			if len(in.UserAttributes) != 1 || aws.ToString(in.UserAttributes[0].Name) != "email" ||
				aws.ToString(in.UserAttributes[0].Value) != "alice@example.com" {
				t.Errorf("attributes = %+v", in.UserAttributes)
			}
			if got := in.SecretHash != nil; got != tt.wantSecret {
				t.Errorf("SecretHash set = %v, want %v", got, tt.wantSecret)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	t.Run("tokens", func(t *testing.T) {
		fake := &fakeCognito{initiateOutput: &cip.InitiateAuthOutput{
			AuthenticationResult: &types.AuthenticationResultType{
				AccessToken:  aws.String("access"),
				IdToken:      aws.String("id"),
				RefreshToken: aws.String("refresh"),
				ExpiresIn:    3600,
			},
		}}
		c := NewClient(fake, "client-id", "s3cret")

		tokens, err := c.Login(context.Background(), "alice", "pw")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if tokens.AccessToken != "access" || tokens.IDToken != "id" || tokens.RefreshToken != "refresh" {
			t.Errorf("tokens = %+v", tokens)
		}
		if fake.initiate.AuthFlow != types.AuthFlowTypeUserPasswordAuth {
			t.Errorf("AuthFlow = %s", fake.initiate.AuthFlow)
		}
		params := fake.initiate.AuthParameters
		if params["USERNAME"] != "alice" || params["PASSWORD"] != "pw" {
			t.Errorf("AuthParameters = %v", params)
		}
		if params["SECRET_HASH"] != SecretHash("alice", "client-id", "s3cret") {
			t.Errorf("SECRET_HASH = %q", params["SECRET_HASH"])
		}
	})

	t.Run("challenge", func(t *testing.T) {
		fake := &fakeCognito{initiateOutput: &cip.InitiateAuthOutput{
			ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
		}}
		_, err := NewClient(fake, "client-id", "").Login(context.Background(), "alice", "pw")
		if !errors.Is(err, ErrChallengeRequired) {
			t.Errorf("error = %v, want ErrChallengeRequired", err)
		}
	})

	t.Run("provider error is wrapped", func(t *testing.T) {
		fake := &fakeCognito{err: &types.NotAuthorizedException{Message: aws.String("Incorrect username or password.")}}
		_, err := NewClient(fake, "client-id", "").Login(context.Background(), "alice", "pw")
		var na *types.NotAuthorizedException
		if !errors.As(err, &na) {
			t.Errorf("error = %v, want NotAuthorizedException", err)
		}
	})
}

func TestPasswordReset(t *testing.T) {
	fake := &fakeCognito{}
	c := NewClient(fake, "client-id", "")
	ctx := context.Background()

	dest, err := c.ForgotPassword(ctx, "alice")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if dest != "a***@e***.com" {
		t.Errorf("destination = %q", dest)
	}

	if err := c.ConfirmForgotPassword(ctx, "alice", "123456", "N3wPassword!"); err != nil {
		t.Fatalf("ConfirmForgotPassword: %v", err)
	}
	in := fake.confirmForgot
	if aws.ToString(in.ConfirmationCode) != "123456" || aws.ToString(in.Password) != "N3wPassword!" {
		t.Errorf("input = %+v", in)
	}

	if err := c.ConfirmSignUp(ctx, "alice", "654321"); err != nil {
		t.Fatalf("ConfirmSignUp: %v", err)
	}
	if aws.ToString(fake.confirm.ConfirmationCode) != "654321" {
		t.Errorf("confirm code = %q", aws.ToString(fake.confirm.ConfirmationCode))
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid password", &types.InvalidPasswordException{Message: aws.String("raw")}, PasswordPolicyMessage},
		{"wrapped invalid password", errors.Join(errors.New("sign up"), &types.InvalidPasswordException{}), PasswordPolicyMessage},
		{"not authorized", &types.NotAuthorizedException{}, "Incorrect username or password."},
		{"code mismatch", &types.CodeMismatchException{}, "Invalid verification code, please try again."},
		{"challenge", ErrChallengeRequired, "Additional verification is required for this account."},
		{"other api error keeps message", &types.InvalidParameterException{Message: aws.String("Username should be an email.")}, "Username should be an email."},
		{"plain error uses fallback", errors.New("dial tcp: timeout"), "Login failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, "Login failed"); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
