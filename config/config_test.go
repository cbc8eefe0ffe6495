package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	return tmpFile.Name()
}

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 9090
upstream:
  base_url: "https://negotiation.test/api"
  api_token: "test-token"
  timeout_seconds: 30
checkout:
  merchant_name: "TestConnect"
  currency: "INR"
  theme_color: "#112233"
minio:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "test-bucket"
  use_ssl: false
  expire_days: 14
database:
  user: "cc"
  password: "ccpass"
  host: "localhost"
  port: 3307
  name: "creatorconnect"
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
log:
  level: "debug"
  format: "json"
store:
  max_sessions: 50
  max_deals: 75
users:
  - username: "testuser"
    password: "testpass"
    tenant: "testtenant"
`
	cfg, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "https://negotiation.test/api" {
		t.Errorf("Expected upstream base URL, got %s", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSeconds != 30 {
		t.Errorf("Expected timeout_seconds 30, got %d", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Checkout.MerchantName != "TestConnect" {
		t.Errorf("Expected merchant TestConnect, got %s", cfg.Checkout.MerchantName)
	}
	if cfg.Minio.ExpireDays != 14 {
		t.Errorf("Expected expire_days 14, got %d", cfg.Minio.ExpireDays)
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("Expected database port 3307, got %d", cfg.Database.Port)
	}
	if cfg.Auth.TokenExpireHours != 48 {
		t.Errorf("Expected token_expire_hours 48, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Store.MaxSessions != 50 {
		t.Errorf("Expected max_sessions 50, got %d", cfg.Store.MaxSessions)
	}
	if cfg.Store.MaxDeals != 75 {
		t.Errorf("Expected max_deals 75, got %d", cfg.Store.MaxDeals)
	}
	if len(cfg.Users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(cfg.Users))
	}
	if cfg.Users[0].Tenant != "testtenant" {
		t.Errorf("Expected tenant testtenant, got %s", cfg.Users[0].Tenant)
	}
}

func TestLoadDefaults(t *testing.T) {
	configContent := `
upstream:
  base_url: "https://negotiation.test/api"
minio:
  endpoint: "localhost:9000"
  access_key: "test"
  secret_key: "test"
  bucket: "test"
`
	cfg, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Upstream.TimeoutSeconds != 60 {
		t.Errorf("Expected default timeout 60, got %d", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Checkout.Currency != "INR" {
		t.Errorf("Expected default currency INR, got %s", cfg.Checkout.Currency)
	}
	if cfg.Checkout.MerchantName != "CreatorConnect" {
		t.Errorf("Expected default merchant name, got %s", cfg.Checkout.MerchantName)
	}
	if cfg.Checkout.ThemeColor != "#00FF94" {
		t.Errorf("Expected default theme color, got %s", cfg.Checkout.ThemeColor)
	}
	if cfg.Minio.ExpireDays != 7 {
		t.Errorf("Expected default expire_days 7, got %d", cfg.Minio.ExpireDays)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Expected default database port 3306, got %d", cfg.Database.Port)
	}
	if cfg.Auth.TokenExpireHours != 24 {
		t.Errorf("Expected default token_expire_hours 24, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Store.MaxSessions != 200 {
		t.Errorf("Expected default max_sessions 200, got %d", cfg.Store.MaxSessions)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "server: [not: valid"))
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		User:     "cc",
		Password: "secret",
		Host:     "db.internal",
		Port:     3306,
		Name:     "creatorconnect",
	}

	want := "cc:secret@tcp(db.internal:3306)/creatorconnect?parseTime=true"
	if got := db.DSN(); got != want {
		t.Errorf("Expected DSN %q, got %q", want, got)
	}
}

func TestFindUser(t *testing.T) {
	cfg := &Config{
		Users: []User{
			{Username: "alice", Password: "pw1", Tenant: "brand-a"},
			{Username: "bob", Password: "pw2", Tenant: "agency-b"},
		},
	}

	user := cfg.FindUser("bob")
	if user == nil {
		t.Fatal("Expected to find user bob")
	}
	if user.Tenant != "agency-b" {
		t.Errorf("Expected tenant agency-b, got %s", user.Tenant)
	}

	if cfg.FindUser("missing") != nil {
		t.Error("Expected nil for unknown user")
	}
}
