package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret")
	os.Setenv("DB_PASSWORD", "testpassword")
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("DB_PASSWORD")
	})
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	os.Setenv("DB_PASSWORD", "testpassword")
	defer os.Unsetenv("DB_PASSWORD")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestLoad_RequiresDBPassword(t *testing.T) {
	os.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret")
	os.Unsetenv("DB_PASSWORD")
	defer os.Unsetenv("JWT_SECRET")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Fatalf("expected DB_PASSWORD error, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Auth.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("access token expiry = %v, want 15m", cfg.Auth.AccessTokenExpiry)
	}
	if cfg.Auth.RefreshTokenExpiry != 7*24*time.Hour {
		t.Errorf("refresh token expiry = %v, want 168h", cfg.Auth.RefreshTokenExpiry)
	}
	if cfg.Auth.VerificationTokenExpiry != 24*time.Hour {
		t.Errorf("verification token expiry = %v, want 24h", cfg.Auth.VerificationTokenExpiry)
	}
	if cfg.Auth.ResetTokenExpiry != 10*time.Minute {
		t.Errorf("reset token expiry = %v, want 10m", cfg.Auth.ResetTokenExpiry)
	}
	if cfg.Database.Name != "proresume" {
		t.Errorf("db name = %q, want proresume", cfg.Database.Name)
	}
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		env     string
		wantErr bool
	}{
		{"short secret in production", strings.Repeat("a", 20), "production", true},
		{"long secret in production", strings.Repeat("a", 40), "production", false},
		{"short secret in development", "tooshort", "development", true},
		{"ok secret in development", strings.Repeat("b", 16), "development", false},
		{"weak common value", "changeme", "development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJWTSecret(tt.secret, tt.env)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateJWTSecret(%q, %q) error = %v, wantErr %v", tt.secret, tt.env, err, tt.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres",
		Password: "pw", Name: "proresume", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=postgres password=pw dbname=proresume sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
