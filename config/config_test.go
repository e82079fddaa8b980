package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("USER_CACHE_TTL", "")
	t.Setenv("USER_SEARCH_BACKEND", "")
	t.Setenv("ELASTICSEARCH_ADDRS", "")
	t.Setenv("DB_SLOW_QUERY", "")
	t.Setenv("REDIS_TIMEOUT", "")
	cfg := Load()
	if cfg.UserCacheTTL != 7*24*time.Hour {
		t.Fatalf("cache ttl = %v", cfg.UserCacheTTL)
	}
	if cfg.DBSlowQuery != 200*time.Millisecond || cfg.RedisTimeout != 3*time.Second {
		t.Fatalf("timeouts = %v %v", cfg.DBSlowQuery, cfg.RedisTimeout)
	}
	if !cfg.UseElasticsearch() {
		t.Fatalf("elasticsearch is the default search backend")
	}
}

func TestLoadOverridesAndFallbacks(t *testing.T) {
	t.Setenv("USER_CACHE_TTL", "1h")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("USER_SEARCH_BACKEND", "Postgres")
	cfg := Load()
	if cfg.UserCacheTTL != time.Hour {
		t.Fatalf("cache ttl = %v", cfg.UserCacheTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("invalid ints fall back to the default, got %d", cfg.BcryptCost)
	}
	if cfg.UseElasticsearch() {
		t.Fatalf("postgres backend selected")
	}
}

func TestHelpers(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins:   " http://a.io, ,http://b.io",
		OAuthRedirectBaseURL: "https://api.example.com/",
		DBUser:               "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable",
	}
	if got := cfg.CORSOrigins(); len(got) != 2 || got[1] != "http://b.io" {
		t.Fatalf("origins = %v", got)
	}
	if got := cfg.OAuthCallbackURL("github"); got != "https://api.example.com/api/auth/github/callback" {
		t.Fatalf("callback = %q", got)
	}
	if got := cfg.PostgresDSN(); got != "postgres://u:p@h:5432/d?sslmode=disable" {
		t.Fatalf("dsn = %q", got)
	}
}
