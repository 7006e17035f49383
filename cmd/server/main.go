package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calvinwijaya/highlow-game-be/internal/api"
	"github.com/calvinwijaya/highlow-game-be/internal/config"
	"github.com/calvinwijaya/highlow-game-be/internal/db"
	"github.com/calvinwijaya/highlow-game-be/internal/game"
	"github.com/calvinwijaya/highlow-game-be/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Command line flags override the environment
	flag.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP and websocket listen address")
	flag.StringVar(&cfg.TCPAddr, "tcp", cfg.TCPAddr, "TCP listen address, empty to disable")
	flag.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "History driver: sqlite3, postgres or memory")
	flag.StringVar(&cfg.DBDSN, "db", cfg.DBDSN, "Database path or DSN")
	flag.StringVar(&cfg.FrontendURL, "frontend", cfg.FrontendURL, "Frontend URL for CORS")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	flag.Uint64Var(&cfg.DeckSeed, "seed", cfg.DeckSeed, "Deck seed, 0 for a random seed")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameID := uuid.New().String()
	logger = logger.With("game_id", gameID)

	// Initialize the round history
	history := openHistory(cfg, logger)
	if closer, ok := history.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	engine := game.NewEngine(game.NewRandomDeck(nil, cfg.DeckSeed), game.WithLogger(logger))

	recorder := store.NewRecorder(history, gameID, cfg.HistoryBuffer, logger)
	engine.Subscribe(recorder)
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	recorderDone := make(chan struct{})
	go func() {
		defer close(recorderDone)
		recorder.Run(recorderCtx)
	}()

	if err := engine.Start(); err != nil {
		stopRecorder()
		return err
	}

	// Initialize API handlers
	handlers := api.NewHandlers(engine, history, gameID, cfg.SendBuffer, logger)
	handlers.AllowOrigins(cfg.FrontendURL)

	// Set up router
	r := mux.NewRouter()
	handlers.RegisterRoutes(r)
	r.Use(api.LoggingMiddleware(logger))

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var tcp *api.TCPServer
	if cfg.TCPAddr != "" {
		l, err := net.Listen("tcp", cfg.TCPAddr)
		if err != nil {
			stopRecorder()
			return err
		}
		tcp = api.NewTCPServer(engine, cfg.SendBuffer, logger)
		go func() {
			logger.Info("starting tcp server", "addr", l.Addr().String())
			if err := tcp.Serve(l); err != nil {
				errc <- err
			}
		}()
	}

	// Block until a termination signal, a listener failure or a halted game
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case runErr = <-errc:
	case <-engine.Done():
		runErr = engine.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	handlers.Close()
	if tcp != nil {
		tcp.Close()
	}

	stopRecorder()
	<-recorderDone
	return runErr
}

// openHistory picks the round history store, falling back to memory when the
// database cannot be opened.
func openHistory(cfg config.Config, logger *slog.Logger) store.Store {
	if cfg.DBDriver == "memory" {
		logger.Info("in-memory round history initialized")
		return store.NewMemoryStore()
	}

	if cfg.DBDriver == "sqlite3" {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0755); err != nil {
			logger.Warn("failed to create data directory", "error", err)
		}
	}

	database, err := db.NewDatabase(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Warn("failed to initialize database, continuing with in-memory history", "driver", cfg.DBDriver, "error", err)
		return store.NewMemoryStore()
	}
	logger.Info("database initialized", "driver", cfg.DBDriver)
	return store.NewDatabaseStore(database)
}
