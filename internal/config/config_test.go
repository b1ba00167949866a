package config

import (
	"testing"
	"time"
)

func TestLoadSQLiteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/todo-test.db")
	t.Setenv("HTTP_READ_TIMEOUT", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout.Duration() != 15*time.Second {
		t.Fatalf("read timeout = %v, want 15s", cfg.HTTP.ReadTimeout.Duration())
	}
	if cfg.Auth.JWTExpires.Duration() != 24*time.Hour {
		t.Fatalf("jwt expiry = %v, want 24h", cfg.Auth.JWTExpires.Duration())
	}
	if cfg.Redis.Enabled() {
		t.Fatal("redis should be disabled without REDIS_ADDR/REDIS_URL")
	}
	if cfg.Auth.TokenAuthEnabled() {
		t.Fatal("token auth should be disabled without JWT_SECRET")
	}
}

func TestLoadRedisURLOverridesAddr(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("REDIS_ADDR", "ignored:6379")
	t.Setenv("REDIS_URL", "redis://:pw@redis.internal:6380/3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "redis.internal:6380" || cfg.Redis.Password != "pw" || cfg.Redis.DB != 3 {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
}

func TestLoadRejectsMissingDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PG_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for postgres without PG_DSN")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestTokenAuthEnabled(t *testing.T) {
	cases := []struct {
		secret string
		want   bool
	}{
		{"", false},
		{InsecureJWTSecret, false},
		{"a-real-secret", true},
	}
	for _, tc := range cases {
		a := AuthConfig{JWTSecret: tc.secret}
		if got := a.TokenAuthEnabled(); got != tc.want {
			t.Fatalf("TokenAuthEnabled(%q) = %v, want %v", tc.secret, got, tc.want)
		}
	}
	if (AuthConfig{}).SigningSecret() != InsecureJWTSecret {
		t.Fatal("empty secret should sign with the placeholder")
	}
}

func TestOrigins(t *testing.T) {
	h := HTTPConfig{AllowOrigins: " https://a.example , https://b.example,"}
	got := h.Origins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("Origins() = %v", got)
	}
	if got := (HTTPConfig{}).Origins(); len(got) != 1 || got[0] != "*" {
		t.Fatalf("empty Origins() = %v", got)
	}
}
