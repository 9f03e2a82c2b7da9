package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsSentinel(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != ErrConfigNotFound {
		t.Fatalf("Load() error = %v, want ErrConfigNotFound", err)
	}
}

func TestCreateDefaultSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := CreateDefault(path)
	cfg.SessionName = "my-session"
	cfg.Remote = &Remote{Host: "build-box", Args: []string{"-p", "2222"}}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.SessionName != "my-session" {
		t.Errorf("SessionName = %q, want %q", loaded.SessionName, "my-session")
	}
	if loaded.Remote == nil || loaded.Remote.Host != "build-box" {
		t.Errorf("Remote = %+v, want host build-box", loaded.Remote)
	}
	if loaded.TerminalWidth != DefaultTerminalWidth || loaded.TerminalHeight != DefaultTerminalHeight {
		t.Errorf("terminal size = %dx%d, want %dx%d", loaded.TerminalWidth, loaded.TerminalHeight, DefaultTerminalWidth, DefaultTerminalHeight)
	}
}

func TestLoadFillsMissingDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := writeFile(path, `{"session_name": "x"}`); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CommandTimeoutMs != DefaultCommandTimeoutMs {
		t.Errorf("CommandTimeoutMs = %d, want default %d", cfg.CommandTimeoutMs, DefaultCommandTimeoutMs)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := writeFile(path, `{not json`); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want invalid config error")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
