package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerEmitsServiceFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "eusko", "test", slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("applied", "height", 3, "passphrase", "hunter2", "contract", "ledger",
		slog.Group("auth", slog.String("hmac_secret", "s3cret"), slog.String("issuer", "eusko")), "api-token", "")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "applied", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "eusko", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, RedactedValue, line["passphrase"])
	require.Equal(t, "ledger", line["contract"])
	require.EqualValues(t, 3, line["height"])
	require.Equal(t, map[string]any{"hmac_secret": RedactedValue, "issuer": "eusko"}, line["auth"])
	require.Equal(t, "", line["api-token"])
}

func TestSensitive(t *testing.T) {
	for _, key := range []string{"Passphrase", "HMAC_SECRET", "private-key", "Authorization", "jwt.token"} {
		require.True(t, Sensitive(key), key)
	}
	for _, key := range []string{"height", "contract", "address", "tx"} {
		require.False(t, Sensitive(key), key)
	}
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}
