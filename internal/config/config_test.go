package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loading embedded defaults: %v", err)
	}
	if cfg.Server == "" {
		t.Error("default server must be set")
	}
	if cfg.Listen == "" {
		t.Error("default listen address must be set")
	}
	if cfg.BatchSize <= 0 {
		t.Errorf("default batch size = %d", cfg.BatchSize)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server == "" {
		t.Error("expected embedded defaults")
	}
	// First run writes the defaults out.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults not written on first run: %v", err)
	}
}

func TestLoadValidatesServerURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte(`server: "ftp://example.com"`), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a non-http server url")
	}
}

func TestLoadValidatesSources(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "sources:\n  - url: https://a.com\n    type: rss\n"},
		{"missing url", "sources:\n  - name: x\n    type: rss\n"},
		{"bad scheme", "sources:\n  - name: x\n    url: file:///etc\n    type: rss\n"},
		{"bad type", "sources:\n  - name: x\n    url: https://a.com\n    type: scrape\n"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "config.yaml")
		os.WriteFile(path, []byte("server: \"http://localhost\"\n"+tt.yaml), 0o644)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestDurations(t *testing.T) {
	cfg := &Config{RefreshInterval: "6h", Retention: "30d"}
	if got := cfg.RefreshDuration(); got != 6*time.Hour {
		t.Errorf("RefreshDuration = %v", got)
	}
	if got := cfg.RetentionDuration(); got != 30*24*time.Hour {
		t.Errorf("RetentionDuration = %v", got)
	}

	broken := &Config{RefreshInterval: "soon", Retention: "forever"}
	if got := broken.RefreshDuration(); got != 12*time.Hour {
		t.Errorf("fallback RefreshDuration = %v", got)
	}
	if got := broken.RetentionDuration(); got != 90*24*time.Hour {
		t.Errorf("fallback RetentionDuration = %v", got)
	}
}

func TestEnabledSources(t *testing.T) {
	cfg := &Config{Sources: []Source{
		{Name: "on", Enabled: true},
		{Name: "off", Enabled: false},
	}}
	got := cfg.EnabledSources()
	if len(got) != 1 || got[0].Name != "on" {
		t.Errorf("EnabledSources = %+v", got)
	}
}
