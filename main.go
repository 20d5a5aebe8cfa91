package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/danielhkuo/postboard/auth"
	"github.com/danielhkuo/postboard/cliparse"
	"github.com/danielhkuo/postboard/csrf"
	"github.com/danielhkuo/postboard/db"
	"github.com/danielhkuo/postboard/handlers"
	"github.com/danielhkuo/postboard/router"
	"github.com/danielhkuo/postboard/views"
)

func main() {
	var err error

	setupLogger()

	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to the database
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(ctx, dbConn, cfg.DatabaseType); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	tokens, err := newTokenStore(ctx, cfg)
	if err != nil {
		slog.Error("csrf store setup failed", "backend", cfg.CSRFBackend, "error", err)
		os.Exit(1)
	}
	defer tokens.Close()

	signer, err := auth.NewSigner(cfg.TrackingSecret)
	if err != nil {
		slog.Error("invalid tracking secret", "error", err)
		os.Exit(1)
	}

	renderer, err := views.New()
	if err != nil {
		slog.Error("template parsing failed", "error", err)
		os.Exit(1)
	}
	times, err := views.NewTimeFormatter(cfg.TimeZone, cfg.TimeFormat)
	if err != nil {
		slog.Error("invalid time zone", "zone", cfg.TimeZone, "error", err)
		os.Exit(1)
	}

	postHandler := handlers.NewPostHandler(
		db.NewPostStore(dbConn, cfg.DatabaseType),
		renderer,
		tokens,
		auth.NewTracker(signer),
		times,
		cfg,
	)

	// Create server
	server := http.Server{
		Handler:           router.NewRouter(postHandler, cfg),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening",
		"port", cfg.Port,
		"csrf_backend", cfg.CSRFBackend,
		"csrf_ttl", cfg.CSRFTTL.String(),
		"time_zone", cfg.TimeZone,
	)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// closableStore is a csrf.Store that holds resources.
type closableStore interface {
	csrf.Store
	Close() error
}

func newTokenStore(ctx context.Context, cfg cliparse.Config) (closableStore, error) {
	if cfg.CSRFBackend == cliparse.BackendRedis {
		store, err := csrf.NewRedisStore(ctx, cfg.RedisURL, "", cfg.CSRFTTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return csrf.NewMemoryStore(cfg.CSRFTTL), nil
}

// setupLogger installs a text handler on terminals and JSON otherwise.
func setupLogger() {
	var h slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(h))
}
