package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/matheus3301/puthype/internal/api"
	"github.com/matheus3301/puthype/internal/rpc"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Services are the gRPC service implementations served by the daemon.
type Services struct {
	fx.In

	Auth          *api.AuthService
	Conversations *api.ConversationService
	Threads       *api.ThreadService
	Directory     *api.DirectoryService
	Discovery     *api.DiscoveryService
	Notifications *api.NotificationService
	Profiles      *api.ProfileService
	Daemon        *api.DaemonService
}

// Server manages the gRPC server lifecycle for the daemon.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger
}

// NewServer creates a gRPC server bound to the daemon's Unix domain socket.
func NewServer(l Listen, logger *zap.Logger, ic *api.Interceptors, svcs Services) (*Server, error) {
	socketPath := l.Socket
	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}

	// Set socket permissions to 0600.
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(ic.Unary()),
		grpc.ChainStreamInterceptor(ic.Stream()),
	)
	rpc.RegisterAuthServer(srv, svcs.Auth)
	rpc.RegisterConversationsServer(srv, svcs.Conversations)
	rpc.RegisterThreadsServer(srv, svcs.Threads)
	rpc.RegisterDirectoryServer(srv, svcs.Directory)
	rpc.RegisterDiscoveryServer(srv, svcs.Discovery)
	rpc.RegisterNotificationsServer(srv, svcs.Notifications)
	rpc.RegisterProfilesServer(srv, svcs.Profiles)
	rpc.RegisterDaemonServer(srv, svcs.Daemon)

	return &Server{
		grpcServer: srv,
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
	}, nil
}

// Start begins serving gRPC requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("gRPC server starting", zap.String("socket", s.socketPath))
	return s.grpcServer.Serve(s.listener)
}

// Stop performs a graceful shutdown and removes the socket file. Open
// watch streams are cut once ctx expires.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("gRPC server stopping")
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
		<-done
	}
	_ = os.Remove(s.socketPath)
}
