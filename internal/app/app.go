package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/auth"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/config"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/metrics"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/client"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/conversion"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/engagement"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lead"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, opens the
// entity store, wires the services and serves the API until ctx is done.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.InfoContext(ctx, "starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("store", cfg.Store.Driver),
	)

	stores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer stores.Close()

	m := metrics.New()
	handler := NewHandler(cfg, stores, clockwork.NewRealClock(), m, logger)

	api := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	servers := []*http.Server{api}
	if !cfg.Metrics.Disabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		servers = append(servers, &http.Server{
			Addr:        cfg.Metrics.Addr,
			Handler:     mux,
			ReadTimeout: cfg.Server.ReadTimeout,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.InfoContext(gctx, "http server listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		logger.InfoContext(shutdownCtx, "http servers stopped")
		return errors.Join(errs...)
	})

	return g.Wait()
}

// NewHandler wires the services over store and returns the API handler.
func NewHandler(cfg *config.Config, store *Stores, clock clockwork.Clock, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	activityLedger := ledger.New(logger, store.activities, store.tx, clock, cfg.CRM.HistoryLimit, cfg.CRM.FeedLimit)

	leads := lead.NewService(logger, store.leads, store.activities, activityLedger, store.tx, clock, lead.Options{
		DuplicateWindow: cfg.CRM.DuplicateWindow,
		BulkMaxRecords:  cfg.CRM.BulkMaxRecords,
	})
	clients := client.NewService(logger, store.clients, store.engagements, store.activities,
		activityLedger, store.tx, clock, cfg.CRM.BulkMaxRecords)
	engagements := engagement.NewService(logger, store.engagements, store.clients, store.activities,
		activityLedger, store.tx, clock, cfg.CRM.BulkMaxRecords)
	conv := conversion.NewService(logger, store.leads, store.clients, store.engagements,
		activityLedger, store.tx, clock)

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	env := rest.NewEnvelope(logger, m)

	return rest.NewRouter(rest.RouterDeps{
		Health:      rest.NewHealthHandler(store.health, store.Driver, BuildVersion(), clock),
		Leads:       rest.NewLeadHandler(leads, env, m, logger),
		Clients:     rest.NewClientHandler(clients, env, logger),
		Engagements: rest.NewEngagementHandler(engagements, env, logger),
		Conversion:  rest.NewConversionHandler(conv, env, logger),
		Activities:  rest.NewActivityHandler(activityLedger, env, logger),
		Envelope:    env,
		Tokens:      tokens,
		Metrics:     m,
		CORS:        cfg.CORS,
		MaxBody:     cfg.Server.MaxBodyBytes,
		Logger:      logger,
	})
}
