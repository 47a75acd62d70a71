package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NarcissusTCG/client/internal/api"
	"NarcissusTCG/client/internal/cards"
	"NarcissusTCG/client/internal/config"
	"NarcissusTCG/client/internal/db"
	"NarcissusTCG/client/internal/friends"
	"NarcissusTCG/client/internal/groups"
	"NarcissusTCG/client/internal/lock"
	"NarcissusTCG/client/internal/market"
	"NarcissusTCG/client/internal/metrics"
	"NarcissusTCG/client/internal/session"
	"NarcissusTCG/client/internal/transport"
	"NarcissusTCG/client/internal/user"
	"github.com/redis/go-redis/v9"
)

// App contiene transport, store e servizi di un processo client.
// Viene costruita una volta in main e passata esplicitamente.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
	Transport *transport.Client
	API       *api.Client
	Session   *session.Keeper

	UserStore    *user.Store
	CardsStore   *cards.Store
	MarketStore  *market.Store
	FriendsStore *friends.Store
	GroupsStore  *groups.Store

	User    *user.Service
	Cards   *cards.Service
	Market  *market.Service
	Friends *friends.Service
	Groups  *groups.Service
	Chat    *groups.Chat

	closers []func() error
}

// Option sostituisce una dipendenza esterna (usata nei test).
type Option func(*options)

type options struct {
	storage session.Storage
	locker  lock.Manager
	metrics *metrics.Recorder
}

func WithStorage(storage session.Storage) Option {
	return func(o *options) { o.storage = storage }
}

func WithLockManager(locker lock.Manager) Option {
	return func(o *options) { o.locker = locker }
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(o *options) { o.metrics = recorder }
}

// New costruisce l'applicazione dalla configurazione.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{Config: cfg, Logger: logger, Metrics: o.metrics}
	if a.Metrics == nil {
		a.Metrics = metrics.New()
	}

	// 1) Transport: il 401 azzera l'identita' locale e i cookie.
	tr, err := transport.New(transport.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	},
		transport.WithLogger(logger),
		transport.WithMetrics(a.Metrics),
		transport.WithUnauthorizedHandler(a.onUnauthorized),
	)
	if err != nil {
		return nil, err
	}
	a.Transport = tr
	a.API = api.New(tr)

	// 2) Storage della sessione e lock delle azioni.
	storage := o.storage
	if storage == nil {
		if storage, err = a.openStorage(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	locker := o.locker
	if locker == nil {
		if locker, err = a.openLocker(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	guard := lock.NewGuard(locker, "tcg:"+cfg.Profile+":", logger)

	// 3) Store e servizi per dominio.
	a.Session = session.NewKeeper(storage, logger)
	a.UserStore = user.NewStore(logger, a.Session, tr)
	a.CardsStore = cards.NewStore()
	a.MarketStore = market.NewStore()
	a.FriendsStore = friends.NewStore()
	a.GroupsStore = groups.NewStore()

	a.User = user.NewService(logger, a.API, a.UserStore, guard)
	a.Cards = cards.NewService(logger, a.API, a.CardsStore, guard)
	a.Market = market.NewService(logger, a.API, a.MarketStore, guard)
	a.Friends = friends.NewService(logger, a.API, a.FriendsStore, guard)
	a.Groups = groups.NewService(logger, a.API, a.GroupsStore, guard)
	a.Chat = groups.NewChat(logger, a.API, tr, a.GroupsStore)

	// Acquisti e ritiri spostano carte: la collezione va ricaricata.
	a.Market.AfterInventoryChange(func(ctx context.Context) { a.Cards.RefreshUserCards(ctx) })

	return a, nil
}

func (a *App) openStorage(ctx context.Context) (session.Storage, error) {
	switch a.Config.SessionBackend {
	case config.SessionMemory:
		return session.NewMemoryStorage(), nil
	case config.SessionPostgres:
		conn, err := db.Open(ctx, a.Config.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open session db: %w", err)
		}
		a.closers = append(a.closers, conn.Close)
		return session.NewPGStorage(conn, a.Config.Profile), nil
	default:
		return session.NewFileStorage(a.Config.SessionFile), nil
	}
}

func (a *App) openLocker(ctx context.Context) (lock.Manager, error) {
	if a.Config.RedisAddr == "" {
		return lock.NewMemoryLock(a.Config.LockTTL), nil
	}
	client := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.Logger.Info("lock redis attivo", "addr", a.Config.RedisAddr)
	// Nessun retry: un'azione duplicata va rifiutata, non accodata.
	return lock.NewRedisLock(client, a.Config.LockTTL, 0, 0), nil
}

func (a *App) onUnauthorized() {
	if a.UserStore == nil {
		return
	}
	a.Logger.Warn("sessione scaduta, identita' locale azzerata")
	a.UserStore.ClearUser()
}

// Snapshot e' la vista completa dello stato client in un istante.
type Snapshot struct {
	User    user.State
	Cards   cards.State
	Market  market.State
	Friends friends.State
	Groups  groups.State
}

func (a *App) Snapshot() Snapshot {
	return Snapshot{
		User:    a.UserStore.Snapshot(),
		Cards:   a.CardsStore.Snapshot(),
		Market:  a.MarketStore.Snapshot(),
		Friends: a.FriendsStore.Snapshot(),
		Groups:  a.GroupsStore.Snapshot(),
	}
}

// Close chiude chat, database e redis.
func (a *App) Close() error {
	var errs []error
	if a.Chat != nil {
		errs = append(errs, a.Chat.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
