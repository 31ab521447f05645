package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/config"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/db"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/event"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/logging"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/middleware"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/notify"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/ratelimit"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/service"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// server bundles what the routes need: configuration, the session manager,
// the public and admin services, and the shared infrastructure.
type server struct {
	cfg            config.Config
	db             *sqlx.DB
	log            zerolog.Logger
	sessionManager *scs.SessionManager
	limiter        ratelimit.Limiter

	games     *service.GameService
	public    *service.RegistrationService
	users     *service.UserService
	userStore *store.UserStore
}

func main() {
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.Dev)
	if dotenvErr != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	middleware.InitAuth()

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Store = sqlite3store.New(database.DB)

	gameStore := store.NewGameStore(database)
	regStore := store.NewRegistrationStore(database)
	resultStore := store.NewResultStore(database)
	userStore := store.NewUserStore(database)
	auditStore := store.NewAuditStore(database)
	notifyStore := store.NewNotificationStore(database)

	bus := event.New()
	lifecycle, stopTap := bus.Subscribe(uuid.Nil, 64)
	go func() {
		for e := range lifecycle {
			log.Debug().Str("event", e.Type).Stringer("game_id", e.GameID).Msg("lifecycle event")
		}
	}()

	outbox := notify.NewOutbox(notifyStore, nil)

	dispatcher := notify.NewDispatcher(notifyStore, notify.NewLogSender(log), log, nil)
	if err := dispatcher.Start(cfg.NotifyDispatchSpec); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.NotifyDispatchSpec).Msg("failed to start notification dispatcher")
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit, cfg.RateLimitWindow, nil)
		log.Info().Str("addr", cfg.RedisAddr).Msg("rate limiting via redis")
	} else {
		limiter = ratelimit.NewLocalLimiter(cfg.RateLimit, cfg.RateLimitWindow, nil)
	}

	games := service.NewGameService(service.GameServiceConfig{
		DB:            database,
		Games:         gameStore,
		Registrations: regStore,
		Results:       resultStore,
		Ownership:     gameStore,
		Notifier:      outbox,
		Auditor:       auditStore,
		AuditLog:      auditStore,
		NotifyLog:     notifyStore,
		Bus:           bus,
		Log:           log,
	})
	public := service.NewRegistrationService(service.RegistrationServiceConfig{
		DB:            database,
		Games:         gameStore,
		Registrations: regStore,
		Notifier:      outbox,
		Auditor:       auditStore,
		Bus:           bus,
		Log:           log,

		RegistrationCutoff: cfg.RegistrationCutoff,
		CancellationCutoff: cfg.CancellationCutoff,
	})

	s := &server{
		cfg:            cfg,
		db:             database,
		log:            log,
		sessionManager: sessionManager,
		limiter:        limiter,
		games:          games,
		public:         public,
		users:          service.NewUserService(database, userStore),
		userStore:      userStore,
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("base_url", cfg.BaseURL).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	dispatcher.Stop()
	stopTap()
}
