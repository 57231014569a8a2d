package session

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/matheus3301/puthype/internal/config"
)

// DefaultSessionName is the slot used when nothing else is configured.
const DefaultSessionName = "main"

// ErrInvalidName is returned for session names that cannot be a directory
// under sessions/.
var ErrInvalidName = errors.New("invalid session name")

var slotName = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName checks that name is usable as a session directory.
func ValidateName(name string) error {
	if !slotName.MatchString(name) {
		return fmt.Errorf("%w %q: use 1-64 of a-z, 0-9, '-' or '_'", ErrInvalidName, name)
	}
	return nil
}

// Resolve picks the client session name: the --session flag, then
// $HYPE_SESSION, then config.toml default_session, then "main".
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv("HYPE_SESSION"); env != "" {
		return env
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultSession != "" {
		return cfg.DefaultSession
	}
	return DefaultSessionName
}

// Active resolves the session name, validates it and creates its
// directory.
func Active(flagOverride string) (string, error) {
	name := Resolve(flagOverride)
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := EnsureDir(name); err != nil {
		return "", err
	}
	return name, nil
}

// ResolveSocket picks the daemon socket: the --socket flag, then
// config.toml server.socket, then hyped.sock in the daemon data dir.
func ResolveSocket(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err != nil {
		return ServerPaths{Root: ServerDir("")}.Socket()
	}
	if cfg.Server.Socket != "" {
		return cfg.Server.Socket
	}
	return ServerPaths{Root: ServerDir(cfg.Server.DataDir)}.Socket()
}
