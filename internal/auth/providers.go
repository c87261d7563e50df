package auth

import (
	"errors"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/csspublisher/internal/config"
)

// TokenPassword is sent alongside a personal access token. GitHub accepts the
// token as the username with this fixed password.
const TokenPassword = "x-oauth-basic"

// NoneProvider handles public repositories.
type NoneProvider struct{}

func (NoneProvider) Type() config.AuthType { return config.AuthTypeNone }

func (NoneProvider) CreateAuth(*config.AuthConfig) (transport.AuthMethod, error) { return nil, nil }

func (NoneProvider) ValidateConfig(*config.AuthConfig) error { return nil }

// TokenProvider authenticates with a plaintext token over HTTPS.
type TokenProvider struct{}

func (TokenProvider) Type() config.AuthType { return config.AuthTypeToken }

func (p TokenProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	if err := p.ValidateConfig(authCfg); err != nil {
		return nil, err
	}
	return &http.BasicAuth{Username: authCfg.Token, Password: TokenPassword}, nil
}

func (TokenProvider) ValidateConfig(authCfg *config.AuthConfig) error {
	if authCfg.Token == "" {
		return errors.New("token authentication requires a token")
	}
	return nil
}

// BasicProvider authenticates with a username and password.
type BasicProvider struct{}

func (BasicProvider) Type() config.AuthType { return config.AuthTypeBasic }

func (p BasicProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	if err := p.ValidateConfig(authCfg); err != nil {
		return nil, err
	}
	return &http.BasicAuth{Username: authCfg.Username, Password: authCfg.Password}, nil
}

func (BasicProvider) ValidateConfig(authCfg *config.AuthConfig) error {
	if authCfg.Username == "" || authCfg.Password == "" {
		return errors.New("basic authentication requires username and password")
	}
	return nil
}
