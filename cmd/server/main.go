package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/bandmates/internal/auth"
	"github.com/mmynk/bandmates/internal/config"
	"github.com/mmynk/bandmates/internal/membership"
	"github.com/mmynk/bandmates/internal/metrics"
	"github.com/mmynk/bandmates/internal/middleware"
	"github.com/mmynk/bandmates/internal/notify"
	"github.com/mmynk/bandmates/internal/push"
	"github.com/mmynk/bandmates/internal/service"
	"github.com/mmynk/bandmates/internal/storage/sqlite"
	"github.com/mmynk/bandmates/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var channel notify.Channel = push.LogChannel{}
	if cfg.AMQPURL != "" {
		rabbit, err := push.NewRabbitChannel(cfg.AMQPURL, cfg.PushQueue, cfg.PushExchange)
		if err != nil {
			return fmt.Errorf("failed to connect push channel: %w", err)
		}
		defer rabbit.Close()
		channel = rabbit
		slog.Info("Push channel connected", "queue", cfg.PushQueue, "exchange", cfg.PushExchange)
	} else {
		slog.Warn("No AMQP URL configured, push notifications are only logged")
	}

	dispatcher := notify.NewDispatcher(store, channel, m, nil)
	members := membership.NewService(store, store, membership.NewPerformanceGate(store), dispatcher,
		membership.WithMetrics(m),
		membership.WithNotifyTimeout(cfg.NotifyTimeout),
	)
	stage := membership.NewStage(store, store, dispatcher, membership.WithAnnounceTimeout(cfg.NotifyTimeout))
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	// Auth runs first so the logging interceptor sees the caller.
	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, service.PublicProcedures...),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(service.NewAuthServiceHandler(
		service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default()),
		interceptors,
	))
	mux.Handle(service.NewBandMemberServiceHandler(service.NewBandMemberService(members, stage), interceptors))
	mux.Handle(service.NewNotificationServiceHandler(service.NewNotificationService(store, dispatcher, cfg.Moderators), interceptors))
	mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "metrics", cfg.MetricsPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}

	// Let queued notifications finish before the store closes.
	members.Wait()
	stage.Wait()
	return nil
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
