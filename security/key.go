package security

import (
	"fmt"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-marketplace-auth/core"
)

// ResolveKey picks the cipher key from config. An inline key that is absent
// or shorter than the minimum falls through to the optional key file before
// resolution fails. Resolution happens once at startup; there is no runtime
// reload.
func ResolveKey(cfg core.CipherConfig) (string, error) {
	inline := strings.TrimSpace(cfg.Key)
	if len(inline) >= core.MinCipherKeyLength {
		return inline, nil
	}

	keyFile := strings.TrimSpace(cfg.KeyFile)
	if keyFile != "" {
		raw, err := os.ReadFile(keyFile)
		if err != nil {
			return "", fmt.Errorf("%w: read cipher key file: %v", core.ErrConfig, err)
		}
		key := strings.TrimSpace(string(raw))
		if len(key) < core.MinCipherKeyLength {
			return "", fmt.Errorf("%w: key file %q holds %d characters, need at least %d",
				core.ErrConfig, keyFile, len(key), core.MinCipherKeyLength)
		}
		return key, nil
	}

	if inline != "" {
		return "", fmt.Errorf("%w: cipher.key must be at least %d characters, got %d",
			core.ErrConfig, core.MinCipherKeyLength, len(inline))
	}
	return "", fmt.Errorf("%w: cipher.key or cipher.key_file is required", core.ErrConfig)
}

// NewCipherFromConfig resolves the key and builds the cipher. It logs the key
// length and fingerprint only; the material itself never reaches a log line.
func NewCipherFromConfig(cfg core.CipherConfig, logger core.Logger) (*AESCipher, error) {
	key, err := ResolveKey(cfg)
	if err != nil {
		return nil, err
	}
	aead, err := NewAESCipher(key)
	if err != nil {
		return nil, err
	}
	glog.Ensure(logger).Info("cipher key resolved",
		"key_length", len(key),
		"key_fingerprint", core.DescribeSecret(key),
	)
	return aead, nil
}
