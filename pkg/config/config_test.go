package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2023, cfg.DefaultYear)
	assert.Len(t, cfg.Years(), 14)
	assert.Equal(t, 2023, cfg.Years()[0])
}

func TestMergeYAML(t *testing.T) {
	path := writeFile(t, "farsdash.yaml", `
backend_url: http://backend:8000
fetch_timeout: 5s
default_year: 2020
log:
  level: debug
`)
	cfg := Default()
	require.NoError(t, mergeFile(&cfg, path))

	assert.Equal(t, "http://backend:8000", cfg.BackendURL)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2020, cfg.DefaultYear)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep defaults
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestMergeTOML(t *testing.T) {
	path := writeFile(t, "farsdash.toml", `
listen_addr = ":9090"
pointer_rate = 5.5
session_idle = "10m"

[log]
format = "text"
`)
	cfg := Default()
	require.NoError(t, mergeFile(&cfg, path))

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 5.5, cfg.PointerRate)
	assert.Equal(t, 10*time.Minute, cfg.SessionIdle)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestMergeUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "farsdash.ini", "x=1")
	cfg := Default()
	assert.Error(t, mergeFile(&cfg, path))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FARSDASH_BACKEND_URL":   "https://fars.example.com",
		"FARSDASH_FETCH_TIMEOUT": "0s",
		"FARSDASH_FIRST_YEAR":    "2015",
		"FARSDASH_POINTER_RATE":  "2",
		"FARSDASH_LOG_LEVEL":     "warn",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))
	assert.Equal(t, "https://fars.example.com", cfg.BackendURL)
	assert.Equal(t, time.Duration(0), cfg.FetchTimeout)
	assert.Equal(t, 2015, cfg.FirstYear)
	assert.Equal(t, 2.0, cfg.PointerRate)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	env := map[string]string{
		"FARSDASH_FIRST_YEAR":    "twenty",
		"FARSDASH_SESSION_IDLE":  "forever",
		"FARSDASH_POINTER_BURST": "1",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	err := ApplyEnv(&cfg, lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FARSDASH_FIRST_YEAR")
	assert.Contains(t, err.Error(), "FARSDASH_SESSION_IDLE")
	assert.Equal(t, 1, cfg.PointerBurst)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "c.yml", "default_year: 2019\n")
	t.Setenv("FARSDASH_DEFAULT_YEAR", "2021")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2021, cfg.DefaultYear, "environment wins over file")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.BackendURL = "ftp://x"
	cfg.DefaultYear = 1999
	cfg.Log.Level = "loud"
	cfg.SessionIdle = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"backend_url", "default_year", "log.level", "session_idle"} {
		assert.Contains(t, err.Error(), want)
	}
}
