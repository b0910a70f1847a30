package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_Defaults(t *testing.T) {
	var cfg Config
	require.NoError(t, ParseEnv(&cfg))

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, uint32(640), cfg.CameraWidth)
	assert.Equal(t, uint32(480), cfg.CameraHeight)
	assert.False(t, cfg.CameraPrequalify)
	assert.Equal(t, "aplay", cfg.Audio)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "0 3 * * *", cfg.PruneSpec)
	assert.Equal(t, 720*time.Hour, cfg.ScanEventRetention)
	assert.Equal(t, 100, cfg.MaxQuantity)
	assert.Equal(t, "USD", cfg.Currency)
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("TAPCART_CAMERA_PREQUALIFY", "true")
	t.Setenv("TAPCART_AUDIO", "bell")
	t.Setenv("TAPCART_SCAN_EVENT_RETENTION", "48h")
	t.Setenv("TAPCART_ENVIRONMENT", "production")

	var cfg Config
	require.NoError(t, ParseEnv(&cfg))
	assert.True(t, cfg.CameraPrequalify)
	assert.Equal(t, "bell", cfg.Audio)
	assert.Equal(t, 48*time.Hour, cfg.ScanEventRetention)
	assert.True(t, cfg.IsProduction())
}

func TestParseEnv_Invalid(t *testing.T) {
	t.Setenv("TAPCART_MAX_QUANTITY", "lots")

	var cfg Config
	assert.Error(t, ParseEnv(&cfg))
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TAPCART_NFC_READER=ACS ACR122U\nTAPCART_MAX_QUANTITY=12\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TAPCART_NFC_READER")
		os.Unsetenv("TAPCART_MAX_QUANTITY")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ACS ACR122U", cfg.NFCReader)
	assert.Equal(t, 12, cfg.MaxQuantity)
}

func TestLoad_EnvironmentWinsOverDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TAPCART_CURRENCY=EUR\n"), 0o600))
	t.Setenv("TAPCART_CURRENCY", "GBP")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "GBP", cfg.Currency)
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_MalformedDotEnvFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TAPCART_AUDIO=bell\nTAPCART AUDIO%=none\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TAPCART_AUDIO") })

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoad_MissingFileDoesNotHideLaterFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.env")
	require.NoError(t, os.WriteFile(present, []byte("TAPCART_CURRENCY=JPY\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TAPCART_CURRENCY") })

	cfg, err := Load(filepath.Join(dir, "absent.env"), present)
	require.NoError(t, err)
	assert.Equal(t, "JPY", cfg.Currency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"audio", func(c *Config) { c.Audio = "speaker" }},
		{"quantity", func(c *Config) { c.MaxQuantity = 0 }},
		{"retention", func(c *Config) { c.ScanEventRetention = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			require.NoError(t, ParseEnv(&cfg))
			tt.mut(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
