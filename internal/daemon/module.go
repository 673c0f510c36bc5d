package daemon

import (
	"context"
	"time"

	"github.com/matheus3301/hangouts/internal/api"
	"github.com/matheus3301/hangouts/internal/config"
	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/focus"
	"github.com/matheus3301/hangouts/internal/lock"
	"github.com/matheus3301/hangouts/internal/logging"
	"github.com/matheus3301/hangouts/internal/outbox"
	"github.com/matheus3301/hangouts/internal/profile"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/matheus3301/hangouts/internal/store"
	intsync "github.com/matheus3301/hangouts/internal/sync"
	"github.com/matheus3301/hangouts/internal/transport"
	"github.com/matheus3301/hangouts/internal/unread"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const valkeyDialTimeout = 5 * time.Second

// Params holds the resolved profile passed to the fx module.
type Params struct {
	ProfileName string
	SocketPath  string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideProfile,
			provideLogger,
			provideDispatcher,
			provideStateMachine,
			provideLock,
			provideKV,
			provideStore,
			provideTransport,
			provideTracker,
			provideView,
			providePipeline,
			provideReplayer,
			provideReconciler,
			provideService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideProfile(p Params) (*config.Profile, error) {
	return config.LoadProfile(profile.ProfilePath(p.ProfileName))
}

func provideLogger(p Params, prof *config.Profile) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName, prof.Log.Level)
}

func provideDispatcher() *dispatch.Dispatcher {
	return dispatch.New()
}

func provideStateMachine(d *dispatch.Dispatcher) *status.Machine {
	return status.NewMachine(d)
}

func provideLock(p Params, prof *config.Profile, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName), prof.User.Username)
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideKV opens the configured backend. It takes the lock so the store is
// never opened by a second daemon.
func provideKV(p Params, prof *config.Profile, _ *lock.Lock, logger *zap.Logger) (store.KV, error) {
	if prof.Store.Backend == config.BackendValkey {
		kv, err := store.OpenValkey(context.Background(), store.ValkeyConfig{
			Addr:      prof.Store.ValkeyAddr,
			Password:  prof.Store.ValkeyPassword,
			Namespace: "hangouts",
		}, valkeyDialTimeout)
		if err != nil {
			return nil, err
		}
		logger.Info("store initialized", zap.String("backend", config.BackendValkey), zap.String("addr", prof.Store.ValkeyAddr))
		return kv, nil
	}

	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("backend", config.BackendSQLite), zap.String("path", dbPath))
	return db, nil
}

func provideStore(kv store.KV, prof *config.Profile) *store.Store {
	return store.New(kv, prof.User.Username)
}

func provideTransport(prof *config.Profile, m *status.Machine, logger *zap.Logger) *transport.NATS {
	return transport.New(transport.Config{
		URL:           prof.Transport.NatsURL,
		SubjectPrefix: prof.Transport.SubjectPrefix,
		Owner:         prof.User.Username,
		ReconnectWait: prof.Transport.ReconnectWait,
	}, m, logger)
}

func provideTracker(st *store.Store, d *dispatch.Dispatcher, logger *zap.Logger) *unread.Tracker {
	return unread.NewTracker(st, d, logger)
}

func provideView(st *store.Store, tr *unread.Tracker, d *dispatch.Dispatcher, logger *zap.Logger) *focus.View {
	return focus.NewView(st, tr, d, logger)
}

func providePipeline(st *store.Store, nc *transport.NATS, m *status.Machine, d *dispatch.Dispatcher, logger *zap.Logger) *outbox.Pipeline {
	return outbox.NewPipeline(st, nc, m, d, logger)
}

func provideReplayer(st *store.Store, nc *transport.NATS, d *dispatch.Dispatcher, logger *zap.Logger) *outbox.Replayer {
	return outbox.NewReplayer(st, nc, d, logger)
}

func provideReconciler(st *store.Store, tr *unread.Tracker, v *focus.View, nc *transport.NATS, pl *outbox.Pipeline, d *dispatch.Dispatcher, logger *zap.Logger) *intsync.Reconciler {
	return intsync.NewReconciler(intsync.Deps{
		Store:     st,
		Unread:    tr,
		View:      v,
		Backlog:   nc,
		Acks:      pl,
		Navigator: dispatch.Navigator(d),
		Sink:      d,
		Logger:    logger,
	})
}

func provideService(p Params, st *store.Store, tr *unread.Tracker, pl *outbox.Pipeline, v *focus.View, m *status.Machine, d *dispatch.Dispatcher, logger *zap.Logger) *api.Service {
	return api.NewService(api.Deps{
		Profile:  p.ProfileName,
		Store:    st,
		Unread:   tr,
		Pipeline: pl,
		View:     v,
		Machine:  m,
		Actions:  d,
		Logger:   logger,
	})
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, st *store.Store, nc *transport.NATS, reconciler *intsync.Reconciler, replayer *outbox.Replayer, d *dispatch.Dispatcher, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Consumers subscribe before the first CONNECTED edge can fire.
			reconciler.Start(context.Background(), nc.Events())
			replayer.Start(context.Background(), d)

			if err := nc.Connect(); err != nil {
				// Reconnects continue in the background.
				logger.Error("push channel connect failed", zap.Error(err))
			}

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			if err := nc.Close(); err != nil {
				logger.Warn("error closing push channel", zap.Error(err))
			}
			replayer.Stop()
			reconciler.Stop()
			if err := st.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
