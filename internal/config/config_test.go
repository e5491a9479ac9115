package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.Pagination.PageSize != 6 {
		t.Errorf("expected page size 6, got %d", cfg.Pagination.PageSize)
	}
	if cfg.Auth.TokenTTL != 720*time.Hour {
		t.Errorf("expected token TTL 720h, got %s", cfg.Auth.TokenTTL)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development mode by default")
	}
	if cfg.Auth.SecretKey == "" {
		t.Error("expected dev secret key fallback")
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SECRET_KEY in production")
	}

	t.Setenv("SECRET_KEY", "short")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for short SECRET_KEY in production")
	}

	t.Setenv("SECRET_KEY", strings.Repeat("k", 32))
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error with valid secret: %v", err)
	}
}

func TestLoad_MaxPageSizeNeverBelowPageSize(t *testing.T) {
	t.Setenv("PAGE_SIZE", "20")
	t.Setenv("MAX_PAGE_SIZE", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pagination.MaxPageSize != 20 {
		t.Errorf("expected max page size raised to 20, got %d", cfg.Pagination.MaxPageSize)
	}
}

func TestDSN_AppendsDefaultPort(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "u", Password: "p@ss", Name: "foodgram"}
	dsn := d.DSN()
	if !strings.Contains(dsn, "tcp(db:3306)") {
		t.Errorf("expected default port in DSN, got %s", dsn)
	}
	if !strings.Contains(dsn, "multiStatements=true") {
		t.Errorf("expected multiStatements in DSN, got %s", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("expected parseTime in DSN, got %s", dsn)
	}
}

func TestDSN_OverrideWins(t *testing.T) {
	d := DatabaseConfig{Host: "db", dsnOverride: "user:pw@tcp(other:3307)/x"}
	if got := d.DSN(); got != "user:pw@tcp(other:3307)/x" {
		t.Errorf("expected override DSN, got %s", got)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", cfg.CORSOrigins)
	}
}
