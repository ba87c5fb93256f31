package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"bankify-ledger/internal/config"
	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/repository"
	"bankify-ledger/internal/repository/memory"
	"bankify-ledger/migrations"
)

// Server owns the HTTP listener and, for the postgres backend, the pool.
type Server struct {
	handler http.Handler
	http    *http.Server
	db      *sql.DB
	logger  *slog.Logger
	port    string
}

// NewServer builds the account store selected by cfg and the router over it.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.UsesMemoryStorage() {
		logger.Info("Using in-memory account store")
		return &Server{
			handler: NewRouter(memory.NewStore(logger), logger),
			logger:  logger,
		}, nil
	}

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	var store domain.Store = repository.NewStore(db, logger)
	return &Server{
		handler: NewRouter(store, logger),
		db:      db,
		logger:  logger,
	}, nil
}

func openDatabase(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver(), cfg.GetDBConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen, maxIdle, maxLifetime := cfg.PoolSettings()
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Successfully connected to database", "driver", cfg.Driver(), "host", cfg.DBHost, "name", cfg.DBName)

	if cfg.AutoMigrate {
		if err := repository.RunMigrations(ctx, db, migrations.FS, logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return db, nil
}

// Start serves in the background and returns the bound port, which differs
// from port when port is "0".
func (s *Server) Start(port string) (string, error) {
	listener, err := s.listen(port)
	if err != nil {
		return "", err
	}

	go func() {
		if err := s.http.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server stopped unexpectedly", "error", err)
		}
	}()

	return s.port, nil
}

// Run serves until ctx is cancelled or serving fails, then shuts down
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, port string, shutdownTimeout time.Duration) error {
	listener, err := s.listen(port)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.http.Serve(listener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) listen(port string) (net.Listener, error) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("listen on %q: %w", port, err)
	}

	s.port = strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
	s.http = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)
	return listener, nil
}

// Stop drains in-flight requests, then closes the database.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// NewLogger builds the process logger. Port "0" means a test server and
// gets a discard logger.
func NewLogger(cfg *config.Config) *slog.Logger {
	if cfg.ServerPort == "0" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// StartServer builds and starts a server for cfg in the background.
func StartServer(cfg *config.Config) (*Server, string, error) {
	server, err := NewServer(cfg, NewLogger(cfg))
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		server.Stop(context.Background())
		return nil, "", err
	}

	return server, port, nil
}
