package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// AuthPrompts are the interactive hooks used only during first-run
// authentication: one to obtain the login code sent by the platform, one to
// obtain the 2FA password. Both are awaited synchronously inside Start.
type AuthPrompts struct {
	Code     func(ctx context.Context) (string, error)
	Password func(ctx context.Context) (string, error)
}

// authenticator adapts the configured phone number and the prompt hooks to
// the MTProto auth flow. The account must already exist; sign-up is refused.
type authenticator struct {
	phone    string
	password string
	prompts  AuthPrompts
}

func newAuthenticator(phone, password string, prompts AuthPrompts) auth.UserAuthenticator {
	return authenticator{
		phone:    phone,
		password: password,
		prompts:  prompts,
	}
}

func (a authenticator) Phone(_ context.Context) (string, error) {
	return a.phone, nil
}

func (a authenticator) Code(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	if a.prompts.Code == nil {
		return "", fmt.Errorf("login code required but no code prompt configured")
	}
	return a.prompts.Code(ctx)
}

func (a authenticator) Password(ctx context.Context) (string, error) {
	if a.password != "" {
		return a.password, nil
	}
	if a.prompts.Password == nil {
		return "", fmt.Errorf("2FA password required but no password prompt configured")
	}
	return a.prompts.Password(ctx)
}

func (a authenticator) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (a authenticator) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, fmt.Errorf("sign up is not supported for a bridged account")
}
