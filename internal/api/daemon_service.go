package api

import (
	"context"

	"github.com/matheus3301/puthype/internal/bus"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/status"
	"github.com/matheus3301/puthype/internal/store"
)

// DaemonInfo describes the running daemon for status reports.
type DaemonInfo struct {
	DataDir     string
	BlobBackend string
}

// DaemonService implements the Daemon gRPC service.
type DaemonService struct {
	info    DaemonInfo
	machine *status.Machine
	store   *docstore.Store
	bus     *bus.Bus
}

// NewDaemonService creates a new daemon service.
func NewDaemonService(info DaemonInfo, machine *status.Machine, st *docstore.Store, b *bus.Bus) *DaemonService {
	return &DaemonService{info: info, machine: machine, store: st, bus: b}
}

func (s *DaemonService) GetStatus(ctx context.Context, _ *rpc.Empty) (*rpc.StatusResponse, error) {
	resp := &rpc.StatusResponse{
		State:       string(s.machine.Current()),
		Since:       s.machine.Since(),
		UptimeMs:    s.machine.Uptime().Milliseconds(),
		DataDir:     s.info.DataDir,
		BlobBackend: s.info.BlobBackend,
	}

	// Counts are best effort.
	if s.store != nil {
		if n, err := s.store.Collection(store.Users).Count(ctx); err == nil {
			resp.Users = n
		}
		if n, err := s.store.Collection(store.Messages).Count(ctx); err == nil {
			resp.Messages = n
		}
	}
	if s.bus != nil {
		resp.Subscribers = s.bus.Subscribers()
	}
	return resp, nil
}
