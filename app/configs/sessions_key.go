package configs

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/log"
)

type SessionKeys struct {
	AuthKey []byte
	EncKey  []byte
}

// CSRFKey derives the 32 byte CSRF secret from the auth key.
func (k *SessionKeys) CSRFKey() []byte {
	sum := sha256.Sum256(append([]byte("csrf:"), k.AuthKey...))
	return sum[:]
}

// LoadSessionKeys decodes APP_AUTH_KEY/APP_ENC_KEY. Outside production,
// missing keys are replaced by random ones so sessions last only until restart.
func LoadSessionKeys(env ENV) (*SessionKeys, error) {
	if env.AppAuthKey == "" || env.AppEncKey == "" {
		if env.IsProduction() {
			return nil, fmt.Errorf("APP_AUTH_KEY and APP_ENC_KEY must be set in production")
		}
		log.Warn().Msg("session keys not configured, generating ephemeral keys")
		return &SessionKeys{
			AuthKey: securecookie.GenerateRandomKey(64),
			EncKey:  securecookie.GenerateRandomKey(32),
		}, nil
	}

	authKey, err := base64.URLEncoding.DecodeString(env.AppAuthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode APP_AUTH_KEY from Base64: %w", err)
	}
	encKey, err := base64.URLEncoding.DecodeString(env.AppEncKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode APP_ENC_KEY from Base64: %w", err)
	}

	if len(encKey) != 16 && len(encKey) != 24 && len(encKey) != 32 {
		return nil, fmt.Errorf("APP_ENC_KEY has invalid length %d after decoding, must be 16, 24 or 32 bytes", len(encKey))
	}

	return &SessionKeys{
		AuthKey: authKey,
		EncKey:  encKey,
	}, nil
}

// GenerateAndPrintSessionKeys prints a fresh key pair and also writes it
// to envFilePath.
func GenerateAndPrintSessionKeys(out io.Writer, envFilePath string) error {
	authKey := securecookie.GenerateRandomKey(64)
	if authKey == nil {
		return fmt.Errorf("could not generate authentication key")
	}

	encKey := securecookie.GenerateRandomKey(32)
	if encKey == nil {
		return fmt.Errorf("could not generate encryption key")
	}

	authKeyBase64 := base64.URLEncoding.EncodeToString(authKey)
	encKeyBase64 := base64.URLEncoding.EncodeToString(encKey)

	fmt.Fprintf(out, "APP_AUTH_KEY=%s\n", authKeyBase64)
	fmt.Fprintf(out, "APP_ENC_KEY=%s\n", encKeyBase64)

	file, err := os.Create(envFilePath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", envFilePath, err)
	}
	defer file.Close()

	if _, err = fmt.Fprintf(file, "APP_AUTH_KEY=%s\nAPP_ENC_KEY=%s\n", authKeyBase64, encKeyBase64); err != nil {
		return fmt.Errorf("failed to write keys to file %s: %w", envFilePath, err)
	}

	fmt.Fprintf(out, "\nKeys have been written to %q. Copy them into your .env file.\n", envFilePath)
	fmt.Fprintln(out, "Regenerating keys invalidates existing sessions.")
	return nil
}
