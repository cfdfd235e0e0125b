package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/ec-storefront/internal/api"
	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/metrics"
	"github.com/example/ec-storefront/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		log.Warn(context.Background(), ".env file not found, relying on environment", nil)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	log = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "storefront api stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := &dependencies{checks: map[string]api.HealthCheck{}}
	defer deps.close(log)

	source, err := deps.catalogSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	catalogSvc := catalog.NewService(source,
		catalog.WithCategories(source),
		catalog.WithLogger(log),
		catalog.WithMetrics(m),
		catalog.WithFetchTimeout(cfg.Catalog.FetchTimeout),
	)

	blobs, err := deps.cartStore(ctx, cfg)
	if err != nil {
		return err
	}
	sessions := cart.NewSessions(blobs,
		cart.WithSaveTimeout(cfg.Cart.SaveTimeout),
		cart.WithLogger(log),
	)

	var publisher cart.Publisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		deps.onClose("kafka producer", producer.Close)
		publisher = producer
		log.Info(log.WithFields(ctx, map[string]any{"brokers": cfg.Kafka.Brokers, "topic": cfg.Kafka.Topic}), "publishing cart events")
	}
	carts := cart.NewService(sessions, catalogSvc, publisher, log, m)

	router := api.NewRouter(api.RouterDeps{
		Catalog: catalogSvc,
		Carts:   carts,
		Tokens:  session.NewTokenService(cfg.Session.Secret, cfg.Session.TTL),
		Session: middleware.SessionOptions{
			CookieName:   cfg.Session.CookieName,
			SecureCookie: !cfg.App.IsDev(),
		},
		Logger:   log,
		Gatherer: reg,
		Checks:   deps.checks,
	})

	go sweepIdleCarts(ctx, cfg.Cart, sessions, deps.idleDeleter, log)

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(log.WithFields(ctx, map[string]any{
			"addr":            server.Addr,
			"catalog_backend": cfg.Catalog.Backend,
			"cart_backend":    cfg.Cart.Backend,
		}), "server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepIdleCarts unloads carts untouched for a full interval and, when the
// store supports it, deletes blobs older than the session TTL.
func sweepIdleCarts(ctx context.Context, cfg config.CartConfig, sessions *cart.Sessions, deleter idleDeleter, log *logger.Logger) {
	if cfg.SweepInterval <= 0 {
		return
	}
	log = log.Component("cart-sweeper")
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			unloaded := sessions.Sweep(now.Add(-cfg.SweepInterval))
			fields := map[string]any{"unloaded": unloaded, "open": sessions.Len()}

			if deleter != nil {
				deleted, err := deleter.DeleteIdle(ctx, now.Add(-cfg.SessionTTL))
				if err != nil {
					log.Warn(ctx, "deleting idle cart blobs", err)
				}
				fields["deleted"] = deleted
			}
			log.Debug(log.WithFields(ctx, fields), "swept idle carts")
		}
	}
}
