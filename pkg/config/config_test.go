package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Port    int      `env:"SF_TEST_PORT" envDefault:"8090"`
	Sheet   string   `env:"SF_TEST_SHEET" envDefault:"https://sheet.example"`
	Methods []string `env:"SF_TEST_METHODS" envDefault:"cash,card" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "https://sheet.example", cfg.Sheet)
	assert.Equal(t, []string{"cash", "card"}, cfg.Methods)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("SF_TEST_PORT", "not-a-port")

	var cfg sampleConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SF_TEST_PORT=9999\nSF_TEST_SHEET=https://from-file\n"), 0o600))

	t.Setenv("SF_TEST_PORT", "7000")
	t.Setenv("SF_TEST_SHEET", "")
	require.NoError(t, os.Unsetenv("SF_TEST_SHEET"))
	t.Cleanup(func() { _ = os.Unsetenv("SF_TEST_SHEET") })

	require.NoError(t, LoadDotEnv(path))

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "https://from-file", cfg.Sheet)
}
