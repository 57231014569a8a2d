package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Owner describes the daemon recorded in a LOCK file.
type Owner struct {
	PID     int
	Started time.Time
	Socket  string
}

func (o Owner) encode() string {
	return fmt.Sprintf("pid=%d\nstarted=%s\nsocket=%s\n", o.PID, o.Started.UTC().Format(time.RFC3339), o.Socket)
}

func parseOwner(content string) Owner {
	var o Owner
	for _, line := range strings.Split(content, "\n") {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			o.PID, _ = strconv.Atoi(val)
		case "started":
			o.Started, _ = time.Parse(time.RFC3339, val)
		case "socket":
			o.Socket = val
		}
	}
	return o
}

// LockHeldError is returned when another hyped process owns the data directory.
type LockHeldError struct {
	Owner Owner
	Path  string
}

func (e *LockHeldError) Error() string {
	msg := fmt.Sprintf("data dir locked by PID %d (%s)", e.Owner.PID, e.Path)
	if e.Owner.Socket != "" {
		msg += ", serving " + e.Owner.Socket
	}
	return msg
}

// Lock is an acquired LOCK file in a data directory.
type Lock struct {
	file  *os.File
	path  string
	owner Owner
}

// Acquire takes an exclusive flock on dir/LOCK and records this process
// and the socket it will serve.
func Acquire(dir, socket string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, "LOCK")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		data, _ := os.ReadFile(path)
		_ = f.Close()
		return nil, &LockHeldError{Owner: parseOwner(string(data)), Path: path}
	}

	owner := Owner{PID: os.Getpid(), Started: time.Now(), Socket: socket}
	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.WriteAt([]byte(owner.encode()), 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{file: f, path: path, owner: owner}, nil
}

// ReadOwner reports who holds dir/LOCK. It returns false when the file is
// missing or not locked.
func ReadOwner(dir string) (Owner, bool) {
	path := filepath.Join(dir, "LOCK")
	f, err := os.Open(path)
	if err != nil {
		return Owner{}, false
	}
	defer func() { _ = f.Close() }()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH|syscall.LOCK_NB); err == nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		return Owner{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Owner{}, false
	}
	return parseOwner(string(data)), true
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Owner returns what this lock recorded.
func (l *Lock) Owner() Owner { return l.owner }

// Release unlocks and removes the file. Safe on a nil or released lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}
