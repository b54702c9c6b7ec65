package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Columns != DefaultColumns {
		t.Errorf("Columns = %d, want %d", cfg.Columns, DefaultColumns)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ICSHorizonDays != DefaultICSHorizonDays {
		t.Errorf("ICSHorizonDays = %d, want %d", cfg.ICSHorizonDays, DefaultICSHorizonDays)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "schedule: https://example.com/schedule.xml\ncolumns: 0\nlog_level: chatty\ncache_dir: " + dir + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule != "https://example.com/schedule.xml" {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	if cfg.Columns != DefaultColumns {
		t.Errorf("Columns = %d, want %d", cfg.Columns, DefaultColumns)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if want := filepath.Join(dir, "fahrplan.log"); cfg.LogFile != want {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, want)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("columns: [1, 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load(invalid) error = nil")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("Load(\"\") error = nil")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := DefaultConfig()
	cfg.Columns = 6
	cfg.Timezone = "Europe/Berlin"
	cfg.CacheDir = dir

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Columns != 6 || got.Timezone != "Europe/Berlin" || got.CacheDir != dir {
		t.Errorf("Load after Save = %+v", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		tz   string
		want *time.Location
	}{
		{"", nil},
		{"UTC", time.UTC},
		{"Not/AZone", time.Local},
	}
	for _, tt := range tests {
		c := &Config{Timezone: tt.tz}
		got := c.Location()
		if tt.want == nil {
			if got != nil {
				t.Errorf("Location(%q) = %v, want nil", tt.tz, got)
			}
			continue
		}
		if got == nil || got.String() != tt.want.String() {
			t.Errorf("Location(%q) = %v, want %v", tt.tz, got, tt.want)
		}
	}
}

func TestICSHorizon(t *testing.T) {
	c := &Config{ICSHorizonDays: 2}
	if got := c.ICSHorizon(); got != 48*time.Hour {
		t.Errorf("ICSHorizon() = %v, want 48h", got)
	}
}
