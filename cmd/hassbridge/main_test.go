package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
	"github.com/strefethen/hassbridge-go/internal/system"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HASSBRIDGE_CONFIG",
		"HASSBRIDGE_ENDPOINT",
		"HASSBRIDGE_TOKEN",
		"HASSBRIDGE_DEBUG",
		"HASSBRIDGE_STATUS_ADDR",
		"HASSBRIDGE_IDENTITY",
		"HASSBRIDGE_RETRY_DELAY_SEC",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "hassbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: http://file.local:8123\ntoken: from-file\n"), 0o600))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--token", "from-flag", "-d"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "http://file.local:8123", cfg.Endpoint)
	require.Equal(t, "from-flag", cfg.Token)
	require.True(t, cfg.Debug)
}

func TestLoadConfig_MissingTokenIsConfigError(t *testing.T) {
	clearEnv(t)

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--endpoint", "http://hass.local:8123"}))

	_, err := loadConfig(cmd)
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ErrorCodeConfigError))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	require.Equal(t, system.Version+"\n", out.String())
}

func signedToken(t *testing.T, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "abc123",
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return signed
}

func TestCheckToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{name: "expired", token: signedToken(t, now.Add(-time.Hour)), message: "Access token has expired"},
		{name: "expiring", token: signedToken(t, now.Add(24*time.Hour)), message: "Access token expires soon"},
		{name: "valid", token: signedToken(t, now.Add(365*24*time.Hour)), message: ""},
		{name: "opaque", token: "not-a-jwt", message: "Access token is not a JWT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			checkToken(zerolog.New(&buf).Level(zerolog.DebugLevel), tt.token, now)
			if tt.message == "" {
				require.Empty(t, buf.String())
				return
			}
			require.Contains(t, buf.String(), tt.message)
		})
	}
}
