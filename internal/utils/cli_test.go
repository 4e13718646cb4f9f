package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/0xRadioAc7iv/minibitcask/internal"
)

func TestSplitStringIntoCommandAndArguments(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		cmd   string
		key   string
		value string
	}{
		{"bare command", "count", "count", "", ""},
		{"command is lowercased", "GET foo", "get", "foo", ""},
		{"key and value", "set foo bar", "set", "foo", "bar"},
		{"quoted value", `set city "new york"`, "set", "city", "new york"},
		{"single quotes", `set greeting 'hello there'`, "set", "greeting", "hello there"},
		{"empty quoted value", `set k ""`, "set", "k", ""},
		{"scan with bounds", "scan a z", "scan", "a", "z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, key, value, err := SplitStringIntoCommandAndArguments(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd != tt.cmd || key != tt.key || value != tt.value {
				t.Fatalf("got (%q, %q, %q), want (%q, %q, %q)", cmd, key, value, tt.cmd, tt.key, tt.value)
			}
		})
	}
}

func TestSplitStringIntoCommandAndArgumentsErrors(t *testing.T) {
	if _, _, _, err := SplitStringIntoCommandAndArguments("   "); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("expected ErrEmptyCommand, got %v", err)
	}
	if _, _, _, err := SplitStringIntoCommandAndArguments(`set k "unterminated`); err == nil {
		t.Error("expected error for unterminated quote")
	}
	if _, _, _, err := SplitStringIntoCommandAndArguments("set city new york"); err == nil {
		t.Error("expected error for unquoted value with spaces")
	}
}

func TestHandleCLIInputs(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := HandleCLIInputs(nil)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Path != internal.DEFAULT_LOG_PATH || cfg.Port != internal.DEFAULT_PORT {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("flags override config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bitcask.yaml")
		os.WriteFile(path, []byte("path: /from/file.log\nport: 7000\nlog_level: warn\n"), 0644)

		cfg, err := HandleCLIInputs([]string{"-config", path, "-port", "7100", "-sync", "0"})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Path != "/from/file.log" {
			t.Errorf("path from file lost: %s", cfg.Path)
		}
		if cfg.Port != 7100 {
			t.Errorf("port flag not applied: %d", cfg.Port)
		}
		if cfg.SyncIntervalSeconds != 0 {
			t.Errorf("sync flag not applied: %d", cfg.SyncIntervalSeconds)
		}
		if cfg.LogLevel != "warn" {
			t.Errorf("log level from file lost: %s", cfg.LogLevel)
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		if _, err := HandleCLIInputs([]string{"-port", "99999"}); err == nil {
			t.Fatal("expected validation error")
		}
	})
}
