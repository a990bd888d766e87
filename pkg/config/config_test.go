package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func initTemp(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "codestack")
	if err := Init(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
	return dir
}

// TestInitWithCustomPath validates custom config path
func TestInitWithCustomPath(t *testing.T) {
	dir := initTemp(t)

	if GetConfigDir() != dir {
		t.Errorf("Expected config dir %s, got %s", dir, GetConfigDir())
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Config directory should exist: %v", err)
	}
}

// TestStoragePaths validates the credential and session files live in the config dir
func TestStoragePaths(t *testing.T) {
	dir := initTemp(t)

	if GetCredentialsPath() != filepath.Join(dir, "credentials") {
		t.Errorf("unexpected credentials path %s", GetCredentialsPath())
	}
	if GetSessionPath() != filepath.Join(dir, "session.json") {
		t.Errorf("unexpected session path %s", GetSessionPath())
	}
}

func TestDefaults(t *testing.T) {
	initTemp(t)

	testCases := []struct {
		key  string
		want string
	}{
		{"api.base_url", "http://localhost:3000"},
		{"output.format", "text"},
		{"log.level", "info"},
		{"imagehost.upload_preset", "UserImage"},
		{"identity.base_url", "https://identitytoolkit.googleapis.com/v1"},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			if got := GetString(tc.key); got != tc.want {
				t.Errorf("GetString(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}

	if GetInt("api.timeout") != 30 {
		t.Errorf("Expected default timeout 30, got %d", GetInt("api.timeout"))
	}
	if GetSeconds("api.timeout") != 30*time.Second {
		t.Errorf("Expected 30s, got %v", GetSeconds("api.timeout"))
	}
	if GetInt("payment.membership_amount") != 20 {
		t.Errorf("Expected membership amount 20, got %d", GetInt("payment.membership_amount"))
	}
}

func TestUserConfigOverridesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "codestack")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.toml")
	body := "[api]\nbase_url = \"https://api.codestack.dev\"\ntimeout = 5\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	if err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if got := GetString("api.base_url"); got != "https://api.codestack.dev" {
		t.Errorf("base_url = %q", got)
	}
	if got := GetInt("api.timeout"); got != 5 {
		t.Errorf("timeout = %d", got)
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("CODESTACK_API_BASE_URL", "http://env.example:9000")
	initTemp(t)

	if got := GetString("api.base_url"); got != "http://env.example:9000" {
		t.Errorf("env override not applied, got %q", got)
	}
}

func TestSetStringPersists(t *testing.T) {
	dir := initTemp(t)

	if err := SetString("output.format", "json"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatalf("config file should have been written: %v", err)
	}

	if err := Init(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatal(err)
	}
	if got := GetString("output.format"); got != "json" {
		t.Errorf("persisted format = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandPath("~/logs/cli.log"); got != filepath.Join(home, "logs/cli.log") {
		t.Errorf("expandPath = %q", got)
	}
	if got := expandPath("/var/log/cli.log"); got != "/var/log/cli.log" {
		t.Errorf("absolute path changed: %q", got)
	}
}
