package config

import (
	"testing"
	"time"

	"backend-fittrack/internal/motion"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.SampleInterval != time.Second {
		t.Fatalf("expected 1s sample interval, got %v", cfg.SampleInterval)
	}
	if cfg.MotionConfig() != motion.DefaultConfig() {
		t.Fatalf("expected default motion config")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SAMPLE_INTERVAL", "250ms")
	t.Setenv("MOTION_MAX_ACCURACY_M", "35")
	t.Setenv("MOTION_MAX_SPEED_MPS", "12.5")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected override log level")
	}
	if cfg.SampleInterval != 250*time.Millisecond {
		t.Fatalf("expected override interval")
	}

	mc := cfg.MotionConfig()
	if mc.MaxAccuracyM != 35 || mc.MaxSpeedMps != 12.5 {
		t.Fatalf("expected motion overrides, got %+v", mc)
	}
	if mc.MinSpeedMps != motion.DefaultConfig().MinSpeedMps {
		t.Fatalf("expected untouched default")
	}
}
