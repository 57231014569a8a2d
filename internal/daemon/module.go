package daemon

import (
	"context"
	"fmt"

	"github.com/matheus3301/puthype/internal/api"
	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/blob"
	"github.com/matheus3301/puthype/internal/bus"
	"github.com/matheus3301/puthype/internal/config"
	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/directory"
	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/lock"
	"github.com/matheus3301/puthype/internal/logging"
	"github.com/matheus3301/puthype/internal/notify"
	"github.com/matheus3301/puthype/internal/profile"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/session"
	"github.com/matheus3301/puthype/internal/status"
	"github.com/matheus3301/puthype/internal/thread"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the startup overrides passed to the fx module.
type Params struct {
	DataDir    string         // optional; empty = config, then ~/.hype/server
	SocketPath string         // optional override for testing; empty = config, then <data_dir>/hyped.sock
	Config     *config.Config // optional; nil = load ~/.hype/config.toml
}

// Listen is the resolved socket the server binds.
type Listen struct {
	Socket string
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			providePaths,
			provideListen,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideDB,
			provideStore,
			provideAuth,
			provideBlobs,
			provideDaemonInfo,
			registration.New,
			conversation.New,
			thread.New,
			notify.New,
			directory.New,
			discovery.New,
			profile.New,
			api.NewAuthService,
			api.NewConversationService,
			api.NewThreadService,
			api.NewDirectoryService,
			api.NewDiscoveryService,
			api.NewNotificationService,
			api.NewProfileService,
			api.NewDaemonService,
			provideInterceptors,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.Config != nil {
		return p.Config, nil
	}
	return config.LoadOrDefault(session.ConfigPath())
}

func providePaths(p Params, cfg *config.Config) (session.ServerPaths, error) {
	dir := p.DataDir
	if dir == "" {
		dir = cfg.Server.DataDir
	}
	paths := session.ServerPaths{Root: session.ServerDir(dir)}
	if err := paths.Ensure(); err != nil {
		return paths, fmt.Errorf("create data dir: %w", err)
	}
	return paths, nil
}

func provideListen(p Params, cfg *config.Config, paths session.ServerPaths) Listen {
	switch {
	case p.SocketPath != "":
		return Listen{Socket: p.SocketPath}
	case cfg.Server.Socket != "":
		return Listen{Socket: cfg.Server.Socket}
	default:
		return Listen{Socket: paths.Socket()}
	}
}

func provideLogger(paths session.ServerPaths) (*zap.Logger, error) {
	return logging.New(paths.Log(), "hyped")
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(paths session.ServerPaths, listen Listen, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring data dir lock", zap.String("dir", paths.Root))
	l, err := lock.Acquire(paths.Root, listen.Socket)
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired", zap.Int("pid", l.Owner().PID))
	return l, nil
}

// provideDB depends on the lock so no second daemon migrates the same file.
func provideDB(paths session.ServerPaths, _ *lock.Lock, machine *status.Machine, logger *zap.Logger) (*docstore.DB, error) {
	_ = machine.Transition(status.Migrating)
	db, err := docstore.Open(paths.DB())
	if err != nil {
		_ = machine.Transition(status.Error)
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		_ = machine.Transition(status.Error)
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", paths.DB()))
	return db, nil
}

func provideStore(db *docstore.DB, b *bus.Bus) *docstore.Store {
	return docstore.New(db, b)
}

func provideAuth(cfg *config.Config, paths session.ServerPaths, st *docstore.Store, b *bus.Bus, logger *zap.Logger) (*auth.Service, error) {
	secret, err := auth.LoadOrCreateSecret(paths.Secret())
	if err != nil {
		return nil, err
	}
	tokenTTL, err := cfg.Server.TokenLifetime()
	if err != nil {
		return nil, err
	}
	resetTTL, err := cfg.Server.ResetLifetime()
	if err != nil {
		return nil, err
	}
	opts := auth.Options{Secret: secret, TokenTTL: tokenTTL, ResetTTL: resetTTL, Hash: auth.DefaultHashParams}
	return auth.New(st, b, auth.LogMailer{Log: logger.Named("mailer")}, opts, logger), nil
}

func provideBlobs(cfg *config.Config, paths session.ServerPaths, logger *zap.Logger) (blob.Store, error) {
	dir := cfg.Blob.Dir
	if dir == "" {
		dir = paths.Blobs()
	}
	s3 := cfg.Blob.S3
	store, err := blob.Open(context.Background(), cfg.Blob.Backend, dir, blob.S3Options{
		Region:        s3.Region,
		Bucket:        s3.Bucket,
		Endpoint:      s3.Endpoint,
		AccessKey:     s3.AccessKey,
		SecretKey:     s3.SecretKey,
		PublicBaseURL: s3.PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	logger.Info("blob store ready", zap.String("backend", cfg.Blob.Backend))
	return store, nil
}

func provideDaemonInfo(cfg *config.Config, paths session.ServerPaths) api.DaemonInfo {
	return api.DaemonInfo{DataDir: paths.Root, BlobBackend: cfg.Blob.Backend}
}

func provideInterceptors(a *auth.Service, logger *zap.Logger) *api.Interceptors {
	return api.NewInterceptors(a, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *docstore.DB, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
					_ = machine.Transition(status.Error)
				}
			}()
			_ = machine.Transition(status.Ready)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = machine.Transition(status.Stopping)
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
