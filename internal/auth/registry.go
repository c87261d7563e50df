// Package auth turns the configured source credentials into a go-git
// transport.AuthMethod.
package auth

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/csspublisher/internal/config"
)

// Provider handles a single authentication type.
type Provider interface {
	Type() config.AuthType
	// CreateAuth returns nil, nil when no authentication is required.
	CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error)
	ValidateConfig(authCfg *config.AuthConfig) error
}

// Registry maps auth types to providers.
type Registry struct {
	providers map[config.AuthType]Provider
}

// NewRegistry creates a registry with the standard providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[config.AuthType]Provider)}
	r.Register(NoneProvider{})
	r.Register(TokenProvider{})
	r.Register(BasicProvider{})
	return r
}

// Register adds or replaces the provider for its type.
func (r *Registry) Register(p Provider) {
	r.providers[p.Type()] = p
}

// CreateAuth validates authCfg and builds the auth method. A nil config means
// no authentication.
func (r *Registry) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	if authCfg == nil {
		authCfg = &config.AuthConfig{Type: config.AuthTypeNone}
	}
	p, ok := r.providers[authCfg.Type]
	if !ok {
		return nil, &AuthError{Type: authCfg.Type, Message: "unsupported authentication type"}
	}
	if err := p.ValidateConfig(authCfg); err != nil {
		return nil, &AuthError{Type: authCfg.Type, Message: "configuration validation failed", Cause: err}
	}
	method, err := p.CreateAuth(authCfg)
	if err != nil {
		return nil, &AuthError{Type: authCfg.Type, Message: "failed to create authentication", Cause: err}
	}
	return method, nil
}

// AuthError represents an authentication setup failure.
type AuthError struct {
	Type    config.AuthType
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("auth error (%s): %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("auth error (%s): %s", e.Type, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Cause }
