package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/regsplit/internal/compose"
	"github.com/dgallion1/regsplit/internal/marker"
	"github.com/dgallion1/regsplit/internal/selector"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Output storage
	StorageBackend string `yaml:"storage_backend"` // local or gcs
	OutputDir      string `yaml:"output_dir"`
	PublicBaseURL  string `yaml:"public_base_url"`
	GCSBucket      string `yaml:"gcs_bucket"`
	GCSPrefix      string `yaml:"gcs_prefix"`

	// HTTP
	APIKey      string   `yaml:"api_key"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Rendering
	RenderDPI          float64 `yaml:"render_dpi"`
	JPEGQuality        int     `yaml:"jpeg_quality"`
	MaxImageWidth      int     `yaml:"max_image_width"`
	DefaultSelection   string  `yaml:"default_selection"`
	DefaultComposition string  `yaml:"default_composition"`
	MarkerMode         string  `yaml:"marker_mode"`

	// PDF
	ValidatePDF       bool `yaml:"validate_pdf"`
	TextFallbackMuPDF bool `yaml:"text_fallback_mupdf"`

	// Worker pool
	MaxConcurrentGroups int `yaml:"max_concurrent_groups"`
	WorkerCount         int `yaml:"worker_count"`
	MaxQueueSize        int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port: "8090",

		StorageBackend: "local",
		OutputDir:      "static/images",
		PublicBaseURL:  "/static/images",

		CORSOrigins: []string{"*"},

		RenderDPI:          150,
		JPEGQuality:        compose.DefaultQuality,
		DefaultSelection:   "all",
		DefaultComposition: "stack",
		MarkerMode:         "strict",

		ValidatePDF:       true,
		TextFallbackMuPDF: true,

		MaxConcurrentGroups: 4,
		WorkerCount:         2,
		MaxQueueSize:        20,

		MaxUploadBytes: 52428800, // 50MB

		JobTTL: 1 * time.Hour,

		LogLevel: "info",
	}
}

// Load reads .env, then the YAML file named by REGSPLIT_CONFIG (if any),
// then environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("REGSPLIT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)

	c.StorageBackend = envOr("STORAGE_BACKEND", c.StorageBackend)
	c.OutputDir = envOr("OUTPUT_DIR", c.OutputDir)
	c.PublicBaseURL = envOr("PUBLIC_BASE_URL", c.PublicBaseURL)
	c.GCSBucket = envOr("GCS_BUCKET", c.GCSBucket)
	c.GCSPrefix = envOr("GCS_PREFIX", c.GCSPrefix)

	c.APIKey = envOr("REGSPLIT_API_KEY", c.APIKey)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	c.RenderDPI = envFloat("RENDER_DPI", c.RenderDPI)
	c.JPEGQuality = envInt("JPEG_QUALITY", c.JPEGQuality)
	c.MaxImageWidth = envInt("MAX_IMAGE_WIDTH", c.MaxImageWidth)
	c.DefaultSelection = envOr("DEFAULT_SELECTION", c.DefaultSelection)
	c.DefaultComposition = envOr("DEFAULT_COMPOSITION", c.DefaultComposition)
	c.MarkerMode = envOr("MARKER_MODE", c.MarkerMode)

	c.ValidatePDF = envBool("VALIDATE_PDF", c.ValidatePDF)
	c.TextFallbackMuPDF = envBool("TEXT_FALLBACK_MUPDF", c.TextFallbackMuPDF)

	c.MaxConcurrentGroups = envInt("MAX_CONCURRENT_GROUPS", c.MaxConcurrentGroups)
	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)

	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)

	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.RenderDPI <= 0 {
		c.RenderDPI = def.RenderDPI
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = def.JPEGQuality
	}
	if c.MaxImageWidth < 0 {
		c.MaxImageWidth = 0
	}
	if c.MaxConcurrentGroups <= 0 {
		c.MaxConcurrentGroups = def.MaxConcurrentGroups
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = def.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = def.JobTTL
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = def.CORSOrigins
	}
}

func (c Config) Validate() error {
	switch c.StorageBackend {
	case "local":
		if c.OutputDir == "" {
			return fmt.Errorf("OUTPUT_DIR is required for local storage")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for gcs storage")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %q", c.StorageBackend)
	}
	if c.RenderDPI < 36 || c.RenderDPI > 600 {
		return fmt.Errorf("RENDER_DPI must be between 36 and 600, got %g", c.RenderDPI)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if _, err := selector.ParsePolicy(c.DefaultSelection); err != nil {
		return fmt.Errorf("DEFAULT_SELECTION: %w", err)
	}
	if _, err := compose.ParsePolicy(c.DefaultComposition); err != nil {
		return fmt.Errorf("DEFAULT_COMPOSITION: %w", err)
	}
	if _, err := marker.ParseMode(c.MarkerMode); err != nil {
		return fmt.Errorf("MARKER_MODE: %w", err)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// SlogLevel returns the configured log level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
