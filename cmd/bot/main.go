package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"shifa/internal/api"
	"shifa/internal/bot"
	"shifa/internal/config"
	"shifa/internal/events"
	"shifa/internal/metrics"
	"shifa/internal/service"
	"shifa/internal/session"
	"shifa/internal/store"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("SHIFA_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Fatal().Msg("set telegram.bot_token in config")
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.BackupDir != "" {
		go db.StartBackups(ctx, cfg.Database.BackupDir, logger)
	}

	authSession := session.NewAuth(db, logger)
	if err := authSession.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not restore saved credential")
	}
	bookingSession := session.NewBooking()
	bookingSession.SetDefaultDuration(cfg.DefaultDuration())
	cartSession := session.NewCart()

	client := api.NewClient(cfg.API.BaseURL, authSession.Token, logger)
	if override, err := db.BaseURLOverride(ctx); err == nil && override != "" {
		logger.Info().Str("base_url", override).Msg("using stored server override")
		client.SetBaseURL(override)
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}

	bus := events.NewBus()
	for _, evType := range []string{
		events.TypeBookingSubmitted,
		events.TypeCredentialIssued,
		events.TypeCheckoutStarted,
		events.TypeLoggedOut,
	} {
		bus.Subscribe(evType, func(ev events.Event) {
			logger.Info().Str("event", ev.Type).Msg("session event")
		})
	}

	authFlow := service.NewAuthFlow(client, authSession, bus, logger)
	client.OnUnauthorized(func() {
		logger.Warn().Msg("token rejected, clearing local session")
		authFlow.ForcedLogout(context.Background())
	})

	deps := bot.Deps{
		Client:         client,
		BookingFlow:    service.NewBookingFlow(client, bookingSession, authSession, bus, logger),
		CartFlow:       service.NewCartFlow(client, cartSession, bus, logger),
		AuthFlow:       authFlow,
		BookingSession: bookingSession,
		CartSession:    cartSession,
		AuthSession:    authSession,
		Settings:       db,
		MaxAdvance:     cfg.MaxAdvance(),
		Logger:         &logger,
	}
	b, err := bot.New(cfg.Telegram.BotToken, cfg.Telegram.Debug, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("create bot error")
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().Str("base_url", client.BaseURL()).Msg("clinic bot started")
	b.Start(ctx)
}

func startHealthServer(ctx context.Context, port int, db *store.Store, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.Ping(); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
