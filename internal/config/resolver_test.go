package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocation_Default(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	if got := cfg.Location(); got != time.Local {
		t.Errorf("location = %v, want local", got)
	}
}

func TestLocation_Configured(t *testing.T) {
	t.Parallel()
	cfg := &Config{Timezone: "UTC"}
	if got := cfg.Location(); got != time.UTC {
		t.Errorf("location = %v, want UTC", got)
	}
}

func TestJournalPath_Explicit(t *testing.T) {
	t.Parallel()
	cfg := &Config{Journal: JournalConfig{Path: "/tmp/custom.db"}}
	if got := cfg.JournalPath(); got != "/tmp/custom.db" {
		t.Errorf("path = %q, want the configured one", got)
	}
}

func TestJournalPath_Default(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	cfg := &Config{}
	want := filepath.Join(dir, "scrumroll", "journal.db")
	if got := cfg.JournalPath(); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestDefault_IsValidAfterTokenFill(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Notion.Token = "secret_abc"
	cfg.Databases = DatabasesConfig{Entries: "a", Projects: "b", Aggregates: "c"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate once filled: %v", err)
	}
	if !strings.HasPrefix(Default().Notion.Token, "${") {
		t.Error("default token should be an env reference")
	}
}
