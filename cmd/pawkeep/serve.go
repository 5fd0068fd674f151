package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pawkeep/pawkeep/internal/api"
	"github.com/pawkeep/pawkeep/internal/auth"
	"github.com/pawkeep/pawkeep/internal/conf"
	"github.com/pawkeep/pawkeep/internal/datastore"
	"github.com/pawkeep/pawkeep/internal/datastore/repository"
	"github.com/pawkeep/pawkeep/internal/logger"
	"github.com/pawkeep/pawkeep/internal/notification"
	"github.com/pawkeep/pawkeep/internal/observability"
	"github.com/pawkeep/pawkeep/internal/offline"
	"github.com/pawkeep/pawkeep/internal/outbox"
	"github.com/pawkeep/pawkeep/internal/reminder"
)

const (
	readinessTimeout = 30 * time.Second
	readinessProbe   = 250 * time.Millisecond
)

// windowLogger satisfies the offline WindowOpener hook. A headless
// host has no window to focus, so click targets are only logged.
type windowLogger struct {
	log logger.Logger
}

func (w *windowLogger) OpenWindow(_ context.Context, path string) error {
	w.log.Info("notification click navigation", logger.String("path", path))
	return nil
}

func runServe(ctx context.Context, configPath string) error {
	settings, err := conf.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.NewSlogLogger(os.Stdout, logger.ParseLevel(settings.Main.LogLevel),
		&logger.Options{JSON: settings.Main.LogJSON})

	// Storage
	db, err := datastore.Open(settings.Server.DataPath)
	if err != nil {
		return err
	}
	pets := repository.NewPetRepository(db)
	users := repository.NewUserRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	reminders := repository.NewReminderRepository(db)

	// Notifications
	notification.Initialize(&notification.ServiceConfig{
		MaxNotifications: settings.Notification.MaxStored,
	})
	notifService := notification.MustGetService()
	defer notifService.Stop()
	if len(settings.Notification.ExternalURLs) > 0 {
		provider := notification.NewShoutrrrProvider(
			"external", true, settings.Notification.ExternalURLs, nil, 30*time.Second)
		if err := provider.ValidateConfig(); err != nil {
			return err
		}
		notifService.AddProvider(provider)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Outbox replays and manager fetches go over the plain transport;
	// routing them through the intercepting transport would answer
	// them from the cache they feed.
	plainClient := &http.Client{Timeout: 30 * time.Second}
	origin := settings.Server.Origin

	flusher, err := outbox.NewFlusher(outboxRepo, plainClient, origin,
		outbox.WithMaxRetries(settings.Outbox.MaxRetries),
		outbox.WithMetrics(metrics),
		outbox.WithLogger(log))
	if err != nil {
		return err
	}

	// Offline cache manager
	manager, err := offline.NewManager(offline.Config{
		Origin:       origin,
		PrecacheName: settings.Offline.PrecacheStoreName(),
		RuntimeName:  settings.Offline.RuntimeStoreName(),
		Manifest:     settings.Offline.PrecacheManifest,
		APIPrefix:    settings.Offline.APIPrefix,
		OfflinePath:  settings.Offline.OfflinePath,
		SyncTag:      settings.Offline.SyncTag,
	}, offline.NewHTTPFetcher(plainClient), log,
		offline.WithNotifier(notification.NewOfflineAdapter(notifService)),
		offline.WithWindowOpener(&windowLogger{log: log}),
		offline.WithSyncer(flusher),
		offline.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reminder engine feeds the push pipeline.
	engine, err := reminder.Initialize(ctx, pets, reminders, manager, log)
	if err != nil {
		return err
	}
	defer engine.Stop()

	// HTTP server
	authManager, err := auth.NewManager(&settings.Session, users)
	if err != nil {
		return err
	}
	server := api.NewServer(settings, authManager, pets, reminders, log,
		api.WithOfflineHandler(manager),
		api.WithOutboxFlusher(flusher))
	server.Echo().GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	// The precache manifest is fetched from this server, so install
	// runs once it answers.
	go func() {
		if err := awaitReady(ctx, plainClient, origin); err != nil {
			log.Error("server never became ready for install", logger.Error(err))
			return
		}
		if err := manager.Install(ctx); err != nil {
			log.Error("offline install failed", logger.Error(err))
			return
		}
		if err := manager.Activate(ctx); err != nil {
			log.Error("offline activation failed", logger.Error(err))
		}
	}()

	// Periodic outbox flush
	flushInterval := settings.Outbox.FlushInterval.Std()
	if flushInterval <= 0 {
		flushInterval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := flusher.Flush(ctx); err != nil {
					log.Warn("outbox flush incomplete", logger.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout())
	defer cancel()
	log.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

// awaitReady polls the origin until it answers or the deadline passes.
func awaitReady(ctx context.Context, client *http.Client, origin string) error {
	deadline := time.Now().Add(readinessTimeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		time.Sleep(readinessProbe)
	}
	return context.DeadlineExceeded
}
