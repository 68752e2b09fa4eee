package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"BookShelf/internal/auth"
	"BookShelf/internal/catalog"
	"BookShelf/internal/config"
	"BookShelf/internal/gateway"
	"BookShelf/internal/openlibrary"
	"BookShelf/pkg/kit"
)

const service = "bookshelf"

func main() {
	cfg, err := config.Load()
	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	slot, closeSlot, err := openSlot(ctx, cfg.Slot)
	if err != nil {
		log.Fatal("open snapshot slot failed", zap.Error(err), zap.String("backend", cfg.Slot.Backend))
	}
	defer closeSlot()

	store := catalog.NewStore(slot,
		catalog.WithLogger(log.Named("catalog")),
		catalog.WithMetrics(catalog.NewMetrics(reg)),
	)
	if err := store.Load(ctx); err != nil {
		log.Fatal("load catalog failed", zap.Error(err))
	}

	olMetrics := openlibrary.NewMetrics(reg)
	client := openlibrary.NewClient(openlibrary.Config{
		BaseURL:   cfg.Search.BaseURL,
		UserAgent: cfg.Search.UserAgent,
		Limit:     cfg.Search.Limit,
		Timeout:   cfg.Search.Timeout,
		RPS:       cfg.Search.RPS,
	}, log.Named("openlibrary"), olMetrics)

	users, err := auth.NewStaticUsers(map[string]string{cfg.Login.User: cfg.Login.Password})
	if err != nil {
		log.Fatal("init login stub failed", zap.Error(err))
	}

	searchLimiter := kit.NewIPRateLimiter(cfg.SearchPerMinute, time.Minute)

	h := gateway.NewHandler(gateway.Deps{
		Catalog: &catalog.Server{
			Store:       store,
			Lookup:      openlibrary.NewSession(client, olMetrics),
			Log:         log,
			SearchLimit: searchLimiter.Middleware,
		},
		Session: &auth.Server{
			Log:   log,
			Users: users,
			JWT:   auth.NewTokenMaker(cfg.Login.JWTSecret),
		},
	}, gateway.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, h, log, kit.ServerOptions{
		ShutdownTimeout: cfg.ShutdownTimeout,
	}); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openSlot(ctx context.Context, cfg config.SlotConfig) (catalog.Slot, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendMemory:
		return catalog.NewMemSlot(), noop, nil

	case config.BackendFile:
		return catalog.NewFileSlot(cfg.Path), noop, nil

	case config.BackendPostgres:
		db, err := catalog.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		slot := catalog.NewPostgresSlot(db, cfg.Name)
		if err := slot.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return slot, func() { _ = db.Close() }, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		slot := catalog.NewRedisSlot(rdb, cfg.Name)
		if err := slot.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, noop, err
		}
		return slot, func() { _ = rdb.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown slot backend %q", cfg.Backend)
}
