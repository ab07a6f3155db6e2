package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 150.0, cfg.RenderDPI)
	assert.Equal(t, 85, cfg.JPEGQuality)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("RENDER_DPI", "300")
	t.Setenv("MAX_CONCURRENT_GROUPS", "8")
	t.Setenv("VALIDATE_PDF", "false")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DEFAULT_SELECTION", "sparse")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 300.0, cfg.RenderDPI)
	assert.Equal(t, 8, cfg.MaxConcurrentGroups)
	assert.False(t, cfg.ValidatePDF)
	assert.Equal(t, 15*time.Minute, cfg.JobTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "sparse", cfg.DefaultSelection)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORKER_COUNT", "lots")
	t.Setenv("MAX_QUEUE_SIZE", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 20, cfg.MaxQueueSize)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "regsplit.yaml")
	yamlDoc := "render_dpi: 200\nmarker_mode: lenient\njob_ttl: 30m\noutput_dir: /srv/out\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("REGSPLIT_CONFIG", path)
	t.Setenv("OUTPUT_DIR", "/data/out")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 200.0, cfg.RenderDPI)
	assert.Equal(t, "lenient", cfg.MarkerMode)
	assert.Equal(t, 30*time.Minute, cfg.JobTTL)
	assert.Equal(t, "/data/out", cfg.OutputDir, "env overrides yaml")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JPEG_QUALITY=70\n"), 0o644))
	// godotenv never overrides variables that are already set.
	t.Setenv("JPEG_QUALITY", "")
	os.Unsetenv("JPEG_QUALITY")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 70, cfg.JPEGQuality)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REGSPLIT_CONFIG", "/nonexistent/regsplit.yaml")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad backend", func(c *Config) { c.StorageBackend = "s3" }},
		{"gcs without bucket", func(c *Config) { c.StorageBackend = "gcs" }},
		{"dpi too high", func(c *Config) { c.RenderDPI = 1200 }},
		{"quality too high", func(c *Config) { c.JPEGQuality = 101 }},
		{"bad selection", func(c *Config) { c.DefaultSelection = "odd" }},
		{"bad composition", func(c *Config) { c.DefaultComposition = "grid" }},
		{"bad marker", func(c *Config) { c.MarkerMode = "fuzzy" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.StorageBackend = "gcs"
	cfg.GCSBucket = "letters"
	assert.NoError(t, cfg.Validate())
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	cfg.LogLevel = "nonsense"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
