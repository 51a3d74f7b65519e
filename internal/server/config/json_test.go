package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseJson_OverlaysPresentKeys(t *testing.T) {
	path := writeJSON(t, `{
		"database_dsn": "postgres://u:p@db/x",
		"reset_token_validity_duration": "10m",
		"session_token_validity_duration": 3600000000000,
		"blob_backend": "s3",
		"smtp_port": 2525,
		"cookie_secure": true,
		"cors_origins": ["https://drive.example.com"]
	}`)

	c := &Config{}
	c.LoadDefaults()
	parseJson(c, []string{"-config=" + path})

	assert.Equal(t, "postgres://u:p@db/x", c.DatabaseDSN)
	assert.Equal(t, 10*time.Minute, c.ResetTokenValidityDuration)
	assert.Equal(t, time.Hour, c.SessionTokenValidityDuration)
	assert.Equal(t, BlobBackendS3, c.BlobBackend)
	assert.Equal(t, 2525, c.SMTPPort)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, []string{"https://drive.example.com"}, c.CORSOrigins)

	// untouched keys keep their defaults
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 30*24*time.Hour, c.RememberTokenValidityDuration)
}

func TestParseJson_NoFlagIsNoop(t *testing.T) {
	c := &Config{}
	parseJson(c, []string{"-a", ":1"})
	assert.Equal(t, Config{}, *c)
}

func TestParseJson_Panics(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	require.Panics(t, func() { parseJson(&Config{}, []string{"-c", missing}) })

	bad := writeJSON(t, `{"http_addr":`)
	require.Panics(t, func() { parseJson(&Config{}, []string{"-c", bad}) })
}
