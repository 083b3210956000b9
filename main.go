package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/events"
	"github.com/danielhkuo/quickly-elect/identity"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/router"
	"github.com/danielhkuo/quickly-elect/scheduler"
)

func main() {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "driver", cfg.DatabaseType)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.BootstrapSuperadminEmail != "" {
		users := identity.NewService(dbConn, auth.NewPasswordHasher(cfg.BcryptCost), clock.System{})
		promoted, err := users.EnsureSuperadmin(ctx, cfg.BootstrapSuperadminEmail)
		if err != nil {
			slog.Warn("superadmin bootstrap skipped", "error", err)
		} else if promoted {
			slog.Info("superadmin bootstrapped", "email", cfg.BootstrapSuperadminEmail)
		}
	}

	// Events go to NATS when configured, otherwise to the log
	var publisher events.Publisher = events.LogPublisher{Logger: logger}
	var natsConn *nats.Conn
	drained := make(chan struct{})
	if cfg.NATSURL != "" {
		natsConn, err = events.Connect(cfg.NATSURL, cfg.ShutdownTimeout, func() { close(drained) })
		if err != nil {
			slog.Error("NATS connection failed", "error", err)
			os.Exit(1)
		}
		publisher = events.NewNATSPublisher(natsConn, cfg.EventSubject)
		slog.Info("Publishing events to NATS", "url", natsConn.ConnectedUrlRedacted(), "prefix", cfg.EventSubject)
	}

	// Create router
	mux, limiters := router.NewRouter(router.Deps{DB: dbConn, Events: publisher}, cfg)
	go limiters.Login.RunSweeper(ctx)
	go limiters.Register.RunSweeper(ctx)

	// Background lifecycle transitions
	daemon := &scheduler.Daemon{
		DB:       dbConn,
		Clock:    clock.System{},
		Interval: cfg.SchedulerInterval,
		Logger:   logger,
		Events:   publisher,
	}
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		daemon.Run(ctx)
	}()

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}

	stop()
	<-schedulerDone

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			slog.Error("NATS drain failed", "error", err)
		} else {
			<-drained
		}
	}
}
