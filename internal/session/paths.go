package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns $HYPE_HOME, or ~/.hype when unset.
func BaseDir() string {
	if dir := os.Getenv("HYPE_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hype")
}

// Dir returns the directory of a named client session.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// CredentialsPath returns the signed-in token file for a client session.
func CredentialsPath(name string) string {
	return filepath.Join(Dir(name), "credentials.json")
}

// ClientLogPath returns the TUI log file for a client session.
func ClientLogPath(name string) string {
	return filepath.Join(Dir(name), "logs", "hypetui.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// ServerDir returns the daemon data directory. An explicit override wins.
func ServerDir(override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(BaseDir(), "server")
}

// ServerPaths lays out files inside a daemon data directory.
type ServerPaths struct {
	Root string
}

// DB returns the document database path.
func (p ServerPaths) DB() string { return filepath.Join(p.Root, "hype.db") }

// Blobs returns the filesystem blob root.
func (p ServerPaths) Blobs() string { return filepath.Join(p.Root, "blobs") }

// LogDir returns the log directory.
func (p ServerPaths) LogDir() string { return filepath.Join(p.Root, "logs") }

// Log returns the daemon log file path.
func (p ServerPaths) Log() string { return filepath.Join(p.LogDir(), "hyped.log") }

// Socket returns the default UDS socket path.
func (p ServerPaths) Socket() string { return filepath.Join(p.Root, "hyped.sock") }

// Secret returns the token signing secret path.
func (p ServerPaths) Secret() string { return filepath.Join(p.Root, "secret") }

// Ensure creates the data directory tree with proper permissions.
func (p ServerPaths) Ensure() error {
	for _, d := range []string{p.Root, p.LogDir(), p.Blobs()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates a client session directory.
func EnsureDir(name string) error {
	return os.MkdirAll(filepath.Join(Dir(name), "logs"), 0700)
}
