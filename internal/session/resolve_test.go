package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matheus3301/puthype/internal/config"
)

func TestResolvePrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HYPE_HOME", home)
	t.Setenv("HYPE_SESSION", "")

	if got := Resolve(""); got != DefaultSessionName {
		t.Errorf("Resolve() without config = %q, want %q", got, DefaultSessionName)
	}

	if err := config.Save(ConfigPath(), &config.Config{DefaultSession: "work"}); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "work" {
		t.Errorf("Resolve() with config = %q, want work", got)
	}

	t.Setenv("HYPE_SESSION", "env")
	if got := Resolve(""); got != "env" {
		t.Errorf("Resolve() with env = %q, want env", got)
	}

	if got := Resolve("flag"); got != "flag" {
		t.Errorf("Resolve(flag) = %q, want flag", got)
	}
}

func TestResolveSocket(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HYPE_HOME", home)

	want := filepath.Join(home, "server", "hyped.sock")
	if got := ResolveSocket(""); got != want {
		t.Errorf("ResolveSocket() without config = %q, want %q", got, want)
	}

	if err := config.Save(ConfigPath(), &config.Config{Server: config.ServerConfig{DataDir: "/srv/hype"}}); err != nil {
		t.Fatal(err)
	}
	if got := ResolveSocket(""); got != "/srv/hype/hyped.sock" {
		t.Errorf("ResolveSocket() with data_dir = %q", got)
	}

	if err := config.Save(ConfigPath(), &config.Config{Server: config.ServerConfig{Socket: "/run/hyped.sock"}}); err != nil {
		t.Fatal(err)
	}
	if got := ResolveSocket(""); got != "/run/hyped.sock" {
		t.Errorf("ResolveSocket() with socket = %q", got)
	}
	if got := ResolveSocket("/tmp/x.sock"); got != "/tmp/x.sock" {
		t.Errorf("ResolveSocket(flag) = %q", got)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"main", true},
		{"ana-2", true},
		{"work_phone", true},
		{strings.Repeat("x", 64), true},
		{"", false},
		{"Work", false},
		{"../etc", false},
		{"a b", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidName) {
				t.Errorf("err = %v, want ErrInvalidName", err)
			}
		})
	}
}

func TestActiveCreatesSlot(t *testing.T) {
	t.Setenv("HYPE_HOME", t.TempDir())
	t.Setenv("HYPE_SESSION", "")

	name, err := Active("ana")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if info, err := os.Stat(Dir(name)); err != nil || !info.IsDir() {
		t.Errorf("session dir not created: %v", err)
	}

	if _, err := Active("Bad Name"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Active(bad) err = %v", err)
	}
}
