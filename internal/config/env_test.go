package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Server.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadSize != 10<<20 {
		t.Fatalf("max upload = %d, want 10MiB", cfg.Server.MaxUploadSize)
	}
	if cfg.Render.DPI != 150 {
		t.Fatalf("dpi = %d, want 150", cfg.Render.DPI)
	}
	if cfg.Detect.VoteMinChars != 20 || cfg.Detect.VoteMargin != 1.5 {
		t.Fatalf("vote thresholds = %d/%v, want 20/1.5", cfg.Detect.VoteMinChars, cfg.Detect.VoteMargin)
	}
	if cfg.Detect.PageTimeout != 90*time.Second {
		t.Fatalf("page timeout = %v, want 90s", cfg.Detect.PageTimeout)
	}
	if !cfg.Deskew.Enabled || cfg.Deskew.Threshold != 0.25 {
		t.Fatalf("deskew = %+v, want enabled at 0.25", cfg.Deskew)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("RENDER_DPI", "300")
	t.Setenv("VOTE_MIN_CHARS", "50")
	t.Setenv("VOTE_MARGIN", "2.0")
	t.Setenv("PAGE_TIMEOUT", "30s")
	t.Setenv("DESKEW_ENABLED", "false")
	t.Setenv("DETECT_CONCURRENCY", "8")

	cfg := FromEnv()
	if cfg.Server.Port != "9999" {
		t.Fatalf("port = %q, want 9999", cfg.Server.Port)
	}
	if cfg.Render.DPI != 300 {
		t.Fatalf("dpi = %d, want 300", cfg.Render.DPI)
	}
	if cfg.Detect.VoteMinChars != 50 || cfg.Detect.VoteMargin != 2.0 {
		t.Fatalf("vote thresholds = %d/%v, want 50/2.0", cfg.Detect.VoteMinChars, cfg.Detect.VoteMargin)
	}
	if cfg.Detect.PageTimeout != 30*time.Second {
		t.Fatalf("page timeout = %v, want 30s", cfg.Detect.PageTimeout)
	}
	if cfg.Deskew.Enabled {
		t.Fatal("deskew should be disabled")
	}
	if cfg.Detect.Concurrency != 8 {
		t.Fatalf("concurrency = %d, want 8", cfg.Detect.Concurrency)
	}
}

func TestParseHelpersFallBackOnGarbage(t *testing.T) {
	if got := parseInt("not-a-number", 7); got != 7 {
		t.Fatalf("parseInt = %d, want default 7", got)
	}
	if got := parseFloat("???", 1.5); got != 1.5 {
		t.Fatalf("parseFloat = %v, want default 1.5", got)
	}
	if got := parseDuration("eleventy", time.Minute); got != time.Minute {
		t.Fatalf("parseDuration = %v, want default 1m", got)
	}
	if parseBool("nope") {
		t.Fatal("parseBool(nope) = true")
	}
	if !parseBool("YES") {
		t.Fatal("parseBool(YES) = false")
	}
}
