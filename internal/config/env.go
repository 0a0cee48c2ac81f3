package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig defines the HTTP surface.
type ServerConfig struct {
	Port          string
	MaxUploadSize int64
	ResultDir     string
}

// RenderConfig controls page rasterization.
type RenderConfig struct {
	DPI          int
	MaxImageSide int // standalone images larger than this are downscaled before detection
	JPEGQuality  int
}

// DetectConfig controls the rotation-decision engine.
type DetectConfig struct {
	VoteMinChars int     // minimum recognized chars for the OCR-vote winner
	VoteMargin   float64 // winner must beat the runner-up by this factor
	PageTimeout  time.Duration
	Concurrency  int
	TesseractBin string
	OCRLanguages string
}

// DeskewConfig controls fine skew correction for standalone images.
type DeskewConfig struct {
	Enabled   bool
	Threshold float64 // degrees; estimates below this are skipped unless Force is set
	Force     bool
}

// CacheConfig controls the optional Redis decision cache.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Server  ServerConfig
	Render  RenderConfig
	Detect  DetectConfig
	Deskew  DeskewConfig
	Cache   CacheConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdfbiratu.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfbiratu",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:          getEnv("PORT", "8080"),
		MaxUploadSize: parseInt64(getEnv("MAX_UPLOAD_SIZE", ""), 10<<20),
		ResultDir:     getEnv("RESULT_DIR", "uploads/results"),
	}

	cfg.Render = RenderConfig{
		DPI:          parseInt(getEnv("RENDER_DPI", "150"), 150),
		MaxImageSide: parseInt(getEnv("MAX_IMAGE_SIDE", "3000"), 3000),
		JPEGQuality:  parseInt(getEnv("JPEG_QUALITY", "95"), 95),
	}

	cfg.Detect = DetectConfig{
		VoteMinChars: parseInt(getEnv("VOTE_MIN_CHARS", "20"), 20),
		VoteMargin:   parseFloat(getEnv("VOTE_MARGIN", "1.5"), 1.5),
		PageTimeout:  parseDuration(getEnv("PAGE_TIMEOUT", "90s"), 90*time.Second),
		Concurrency:  parseInt(getEnv("DETECT_CONCURRENCY", "2"), 2),
		TesseractBin: getEnv("TESSERACT_BIN", "tesseract"),
		OCRLanguages: getEnv("OCR_LANGUAGES", ""),
	}

	cfg.Deskew = DeskewConfig{
		Enabled:   parseBool(getEnv("DESKEW_ENABLED", "true")),
		Threshold: parseFloat(getEnv("DESKEW_THRESHOLD", "0.25"), 0.25),
		Force:     parseBool(getEnv("DESKEW_FORCE", "0")),
	}

	cfg.Cache = CacheConfig{
		RedisURL: getEnv("REDIS_URL", ""),
		TTL:      parseDuration(getEnv("CACHE_TTL", "168h"), 168*time.Hour),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" { return def }
	if n, err := strconv.Atoi(s); err == nil { return n }
	return def
}

func parseInt64(s string, def int64) int64 {
	if s == "" { return def }
	if n, err := strconv.ParseInt(s, 10, 64); err == nil { return n }
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" { return def }
	if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" { return def }
	if d, err := time.ParseDuration(s); err == nil { return d }
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" { return "true" }
	return "false"
}
