package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinCipherKeyLength is the minimum accepted symmetric key length. A
	// shorter key is a fatal configuration error, never a warning.
	MinCipherKeyLength = 32

	defaultTokenRequestTimeout = 45 * time.Second
	defaultPendingSessionTTL   = 15 * time.Minute
)

type MarketplaceConfig struct {
	AuthorizeURL        string        `koanf:"authorize_url" mapstructure:"authorize_url"`
	TokenURL            string        `koanf:"token_url" mapstructure:"token_url"`
	RedirectURI         string        `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	Scopes              string        `koanf:"scopes" mapstructure:"scopes"`
	TokenRequestTimeout time.Duration `koanf:"token_request_timeout" mapstructure:"token_request_timeout"`
}

type CipherConfig struct {
	Key string `koanf:"key" mapstructure:"key"`
	// KeyFile is a development convenience: a secrets file consulted only
	// when Key is absent or too short. Resolution happens once at startup.
	KeyFile string `koanf:"key_file" mapstructure:"key_file"`
}

type SessionConfig struct {
	PendingTTL time.Duration `koanf:"pending_ttl" mapstructure:"pending_ttl"`
}

type Config struct {
	ServiceName string            `koanf:"service_name" mapstructure:"service_name"`
	Marketplace MarketplaceConfig `koanf:"marketplace" mapstructure:"marketplace"`
	Cipher      CipherConfig      `koanf:"cipher" mapstructure:"cipher"`
	Session     SessionConfig     `koanf:"session" mapstructure:"session"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "marketplace-auth",
		Marketplace: MarketplaceConfig{
			TokenRequestTimeout: defaultTokenRequestTimeout,
		},
		Session: SessionConfig{
			PendingTTL: defaultPendingSessionTTL,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	return nil
}

// ValidateEndpoints enforces the required marketplace endpoints. It runs once
// against the fully resolved config; a missing endpoint is fatal at startup.
func (c Config) ValidateEndpoints() error {
	if strings.TrimSpace(c.Marketplace.AuthorizeURL) == "" {
		return fmt.Errorf("%w: marketplace.authorize_url is required", ErrConfig)
	}
	if strings.TrimSpace(c.Marketplace.TokenURL) == "" {
		return fmt.Errorf("%w: marketplace.token_url is required", ErrConfig)
	}
	return nil
}

// NormalizeRedirectURI trims whitespace and trailing slashes. The same
// normalization runs at initiate and complete time so the value sent to the
// token endpoint matches the one used in the authorize URL byte for byte.
func NormalizeRedirectURI(uri string) string {
	return strings.TrimRight(strings.TrimSpace(uri), "/")
}
