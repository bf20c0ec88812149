package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("APITimeout = %v, want 10s", cfg.APITimeout)
	}
	if cfg.AuthMode != AuthModeLive {
		t.Errorf("AuthMode = %q, want %q", cfg.AuthMode, AuthModeLive)
	}
	if cfg.TokenStore != TokenStoreFile {
		t.Errorf("TokenStore = %q, want %q", cfg.TokenStore, TokenStoreFile)
	}
	if cfg.StartupMinDuration != 2*time.Second {
		t.Errorf("StartupMinDuration = %v, want 2s", cfg.StartupMinDuration)
	}
	if cfg.RequestsPerMinute != 120 {
		t.Errorf("RequestsPerMinute = %d, want 120", cfg.RequestsPerMinute)
	}
	if cfg.IsProduction() {
		t.Error("default environment should not be production")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.test")
	t.Setenv("API_TIMEOUT", "250ms")
	t.Setenv("AUTH_MODE", "mock")
	t.Setenv("TOKEN_STORE", "memory")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.test" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 250*time.Millisecond {
		t.Errorf("APITimeout = %v, want 250ms", cfg.APITimeout)
	}
	if cfg.AuthMode != AuthModeMock {
		t.Errorf("AuthMode = %q, want mock", cfg.AuthMode)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "API_BASE_URL: https://file.example.test\nOTP_PER_MINUTE: 7\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBaseURL != "https://file.example.test" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.OTPPerMinute != 7 {
		t.Errorf("OTPPerMinute = %d, want 7", cfg.OTPPerMinute)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("AUTH_MODE", "sometimes")
	t.Setenv("TOKEN_STORE", "redis")
	t.Setenv("REQUESTS_PER_MINUTE", "-1")

	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	for _, key := range []string{"AUTH_MODE", "REDIS_ADDR", "REQUESTS_PER_MINUTE"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error = %q, want it to mention %s", err.Error(), key)
		}
	}
}

func TestTokenFilePath(t *testing.T) {
	cfg := &Config{TokenFile: "/tmp/custom-token"}
	got, err := cfg.TokenFilePath()
	if err != nil {
		t.Fatalf("TokenFilePath() error: %v", err)
	}
	if got != "/tmp/custom-token" {
		t.Errorf("TokenFilePath() = %q", got)
	}
}

func TestEndpointsURL(t *testing.T) {
	e := Endpoints{BaseURL: "https://api.example.test/v1/"}
	tests := []struct {
		in, want string
	}{
		{PathSendOTP, "https://api.example.test/v1/otp/send"},
		{"bookings/42", "https://api.example.test/v1/bookings/42"},
		{"https://other.example.test/x", "https://other.example.test/x"},
	}
	for _, tt := range tests {
		if got := e.URL(tt.in); got != tt.want {
			t.Errorf("URL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsAuthPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{PathSendOTP, true},
		{PathVerifyOTP, true},
		{PathSignup, true},
		{PathLogin, true},
		{PathLogout, false},
		{PathRefreshToken, false},
		{PathUserProfile, false},
		{BookingPath("b1"), false},
	}
	for _, tt := range tests {
		if got := IsAuthPath(tt.path); got != tt.want {
			t.Errorf("IsAuthPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestBookingPaths(t *testing.T) {
	if got := PaymentStatusPath("a b"); got != "/bookings/a%20b/payment-status" {
		t.Errorf("PaymentStatusPath = %q", got)
	}
	if got := ViewsPath("blog", "7"); got != "/content/blog/7/views" {
		t.Errorf("ViewsPath = %q", got)
	}
}
