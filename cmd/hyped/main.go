package main

import (
	"flag"

	"github.com/matheus3301/puthype/internal/daemon"
	"go.uber.org/fx"
)

func main() {
	dataDir := flag.String("data-dir", "", "daemon data directory (overrides config server.data_dir)")
	socket := flag.String("socket", "", "unix socket path (overrides config server.socket)")
	flag.Parse()

	app := fx.New(
		daemon.Module(daemon.Params{DataDir: *dataDir, SocketPath: *socket}),
	)

	app.Run()
}
