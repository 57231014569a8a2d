package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/puthype/internal/session"
	"github.com/matheus3301/puthype/internal/tui/client"
)

type cli struct {
	c       *client.Client
	jsonOut bool
}

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	socketFlag := flag.String("socket", "", "daemon socket (overrides config server.socket)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	sessionName, err := session.Active(*sessionFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	socketPath := session.ResolveSocket(*socketFlag)
	c, err := client.New(socketPath, session.CredentialsPath(sessionName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon at %s: %v\n", socketPath, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app := &cli{c: c, jsonOut: *jsonFlag}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err := cmd.run(ctx, app, args[1:]); err != nil {
		fail(err)
	}
}

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, app *cli, args []string) error
}

var commandOrder = []string{
	"status", "register", "signin", "signout", "reset",
	"conversations", "favorite", "trash", "restore", "delete",
	"send", "thread", "clear",
	"search", "add",
	"feed", "event", "community",
	"notifications", "profile",
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: hypectl [--session <name>] [--json] [--socket <path>] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	for _, name := range commandOrder {
		cmd := commands[name]
		fmt.Fprintf(os.Stderr, "  %-44s %s\n", cmd.usage, cmd.help)
	}
}

// usageError reports a malformed command line.
type usageError struct{ usage string }

func (e usageError) Error() string { return "usage: hypectl " + e.usage }

func fail(err error) {
	if ue, ok := err.(usageError); ok {
		fmt.Fprintln(os.Stderr, ue.Error())
	} else {
		fmt.Fprintf(os.Stderr, "error: %s\n", client.UserMessage(err))
	}
	os.Exit(1)
}

// print writes v as JSON under --json, otherwise runs text.
func (app *cli) print(v any, text func()) {
	if app.jsonOut {
		outputJSON(v)
		return
	}
	text()
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
