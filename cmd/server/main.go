// Command server runs the salon booking API.
//
// @title       Pretty salon booking API
// @version     1.0
// @description Bookings mirrored to a shared Google calendar, with LINE intake.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/j01232026-hub/pretty/internal/calendar"
	"github.com/j01232026-hub/pretty/internal/config"
	"github.com/j01232026-hub/pretty/internal/events"
	httpapi "github.com/j01232026-hub/pretty/internal/http"
	"github.com/j01232026-hub/pretty/internal/notify"
	"github.com/j01232026-hub/pretty/internal/observability"
	"github.com/j01232026-hub/pretty/internal/redisx"
	"github.com/j01232026-hub/pretty/internal/repo"
	"github.com/j01232026-hub/pretty/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	sysutil.SetupLogging(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)
	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel")
	}

	// Store
	db, err := repo.Open(cfg.DB.Driver, cfg.DB.Path, cfg.DB.URL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open db")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	deps := httpapi.Deps{DB: db}

	// Calendar
	if cfg.Calendar.CredentialsJSON != "" {
		gc, err := calendar.New(ctx, cfg.Calendar.CredentialsJSON, cfg.Calendar.Endpoint, cfg.SalonLocation())
		if err != nil {
			log.Fatal().Err(err).Msg("google calendar")
		}
		deps.Calendar = gc
	} else {
		log.Warn().Msg("GOOGLE_SERVICE_ACCOUNT_KEY not set; using in-process calendar")
		deps.Calendar = calendar.NewMemory()
	}

	// Notifications
	if cfg.LINE.ChannelAccessToken != "" {
		lc, err := notify.NewLINE(cfg.LINE.ChannelAccessToken, cfg.LINE.Endpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("line client")
		}
		deps.Notifier, deps.Replier = lc, lc
	} else {
		nl := notify.Log{Logger: log.Logger}
		deps.Notifier, deps.Replier = nl, nl
	}

	// Busy-slot cache
	if cfg.Cache.RedisAddr != "" {
		rdb := redisx.New(cfg.Cache.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unreachable; cache calls will fail open")
		}
		deps.Cache = redisx.NewSlotCache(rdb, cfg.Cache.SlotTTL)
	}

	// Lifecycle events
	pub, err := newPublisher(cfg.Events)
	if err != nil {
		log.Fatal().Err(err).Str("broker", cfg.Events.Broker).Msg("events")
	}
	deps.Events = pub

	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", appVersion).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := pub.Close(); err != nil {
		log.Error().Err(err).Msg("events close")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(sctx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

// newPublisher builds the lifecycle event sink chosen by EVENTS_BROKER.
func newPublisher(c config.EventsConfig) (events.Publisher, error) {
	switch c.Broker {
	case "kafka":
		k := events.NewKafka(c.KafkaBrokers, c.KafkaTopic, 1024, log.Logger.With().Str("component", "kafka").Logger())
		k.Start()
		return k, nil
	case "amqp":
		return events.NewAMQP(c.AMQPURL, c.AMQPExchange)
	}
	return events.Nop{}, nil
}
