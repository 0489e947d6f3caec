package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DUE_SOON_DAYS", "DEFAULT_PAGE_SIZE", "ALERT_PAGE_SIZE", "DB_TIMEOUT", "LEDGER_TIMEZONE", "DATABASE_URL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.DueSoonDays != 7 {
		t.Errorf("expected due-soon threshold 7, got %d", cfg.DueSoonDays)
	}
	if cfg.DefaultPageSize != 25 || cfg.AlertPageSize != 50 {
		t.Errorf("unexpected page sizes %d/%d", cfg.DefaultPageSize, cfg.AlertPageSize)
	}
	if cfg.DBTimeout != 5*time.Second {
		t.Errorf("expected 5s db timeout, got %s", cfg.DBTimeout)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("expected empty database url, got %q", cfg.DatabaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DUE_SOON_DAYS", "10")
	t.Setenv("DB_TIMEOUT", "250ms")
	t.Setenv("DB_MIGRATE", "false")

	cfg := Load()
	if cfg.DueSoonDays != 10 {
		t.Errorf("expected 10, got %d", cfg.DueSoonDays)
	}
	if cfg.DBTimeout != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", cfg.DBTimeout)
	}
	if cfg.MigrateOnRun {
		t.Error("expected migrations disabled")
	}
}

func TestValidate_RejectsBadTimezone(t *testing.T) {
	cfg := Load()
	cfg.Timezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid timezone to be rejected")
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nLEDGER_TEST_A=from-file\nexport LEDGER_TEST_B=\"quoted # kept\"\nLEDGER_TEST_C=plain # trailing\nbroken-line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LEDGER_TEST_A", "from-env")
	os.Unsetenv("LEDGER_TEST_B")
	os.Unsetenv("LEDGER_TEST_C")
	t.Cleanup(func() {
		os.Unsetenv("LEDGER_TEST_B")
		os.Unsetenv("LEDGER_TEST_C")
	})

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("LEDGER_TEST_A"); got != "from-env" {
		t.Errorf("env var overridden: %q", got)
	}
	if got := os.Getenv("LEDGER_TEST_B"); got != "quoted # kept" {
		t.Errorf("expected quoted value, got %q", got)
	}
	if got := os.Getenv("LEDGER_TEST_C"); got != "plain" {
		t.Errorf("expected trailing comment stripped, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
