package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/puthype/internal/config"
	"github.com/matheus3301/puthype/internal/lock"
	"github.com/matheus3301/puthype/internal/logging"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/session"
	"github.com/matheus3301/puthype/internal/tui"
	"github.com/matheus3301/puthype/internal/tui/client"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	socketFlag := flag.String("socket", "", "daemon socket (overrides config server.socket)")
	flag.Parse()

	sessionName, err := session.Active(*sessionFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFileOnly(session.ClientLogPath(sessionName), "hypetui")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open log: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	socketPath := session.ResolveSocket(*socketFlag)

	if !probeDaemon(socketPath) {
		if owner, ok := lock.ReadOwner(dataDir()); ok {
			fmt.Fprintf(os.Stderr, "hyped (PID %d) holds the data dir but does not answer on %s\n", owner.PID, socketPath)
			if owner.Socket != "" && owner.Socket != socketPath {
				fmt.Fprintf(os.Stderr, "it serves %s; pass --socket %s\n", owner.Socket, owner.Socket)
			}
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "hyped is not running, starting...")
		if err := startDaemon(*socketFlag); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start daemon: %v\n", err)
			os.Exit(1)
		}
		if !waitForDaemon(socketPath, 10*time.Second) {
			fmt.Fprintf(os.Stderr, "daemon did not become ready\n")
			os.Exit(1)
		}
	}

	c, err := client.New(socketPath, session.CredentialsPath(sessionName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to daemon: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	logger.Info("starting", zap.String("session", sessionName), zap.String("socket", socketPath))
	app := tui.NewApp(c, sessionName, logger)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func dataDir() string {
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return session.ServerDir("")
	}
	return session.ServerDir(cfg.Server.DataDir)
}

// probeDaemon checks if a daemon is running and responsive on the socket.
func probeDaemon(socketPath string) bool {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = rpc.NewDaemonClient(conn).GetStatus(ctx)
	return err == nil
}

func startDaemon(socket string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	hyped := filepath.Join(filepath.Dir(executable), "hyped")

	if _, err := os.Stat(hyped); err != nil {
		hyped = "hyped"
	}

	var args []string
	if socket != "" {
		args = append(args, "--socket", socket)
	}
	cmd := exec.Command(hyped, args...)
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// waitForDaemon polls GetStatus until the daemon answers or timeout passes.
func waitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeDaemon(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
