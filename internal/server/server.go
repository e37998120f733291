// Package server wires the study-sheet pipeline behind an HTTP API:
// Postgres/pgvector retrieval, LLM generation, and PDF rendering.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	"github.com/fichemax/fichemax/internal/api"
	"github.com/fichemax/fichemax/internal/config"
	"github.com/fichemax/fichemax/internal/home"
	"github.com/fichemax/fichemax/internal/providers"
	"github.com/fichemax/fichemax/internal/render"
	"github.com/fichemax/fichemax/internal/render/chrome"
	"github.com/fichemax/fichemax/internal/render/draw"
	"github.com/fichemax/fichemax/internal/retriever"
	"github.com/fichemax/fichemax/internal/server/endpoints"
	"github.com/fichemax/fichemax/internal/sheetstore"
	"github.com/fichemax/fichemax/internal/studysheet"
	"github.com/fichemax/fichemax/internal/svcctx"
)

// Server is the main fichemax HTTP server. It owns the database pool and
// the generation pipeline, created on Start and released on shutdown.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	homeDir    *home.Dir
	logger     *slog.Logger

	// Optional overrides, used by tests to avoid live upstreams.
	llm      providers.LLMClient
	embedder providers.Embedder
	renderer render.Renderer

	pool *pgxpool.Pool

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: from config, then 127.0.0.1)
	Host string
	// Port is the port to listen on (default: from config, then 5001)
	Port string
	// HomePath is the fichemax home directory (default: ~/.fichemax)
	HomePath string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger

	// LLM, Embedder and Renderer override the configured providers when
	// non-nil. Tests use these to inject mocks.
	LLM      providers.LLMClient
	Embedder providers.Embedder
	Renderer render.Renderer
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	fileCfg := cfg.ConfigManager.Get()
	if cfg.Host == "" {
		cfg.Host = fileCfg.Server.Host
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = fileCfg.Server.Port
	}
	if cfg.Port == "" {
		cfg.Port = "5001"
	}

	homeDir, err := home.New(cfg.HomePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		homeDir:   homeDir,
		logger:    cfg.Logger,
		llm:       cfg.LLM,
		embedder:  cfg.Embedder,
		renderer:  cfg.Renderer,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{fileCfg.Server.CORSOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, cfg.Port),
		Handler: corsHandler.Handler(s.withServices(mux)),
		// Generation chains two upstream API calls plus rendering, so the
		// write timeout is generous.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Pipeline settings follow the config file across reloads.
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		s.applyConfig(c)
	})

	return s, nil
}

// Start initializes the pipeline and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.initPipeline(ctx); err != nil {
		s.setNotRunning()
		return err
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// initPipeline connects to Postgres, ensures schemas, and builds the
// retrieval/generation/rendering services.
func (s *Server) initPipeline(ctx context.Context) error {
	cfg := s.configMgr.Get().Resolved()

	if err := s.homeDir.EnsureExists(); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	s.logger.Info("connecting to database")
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}
	s.pool = pool

	embedder := s.embedder
	if embedder == nil {
		embedder = providers.NewOpenAIEmbedder(providers.OpenAIEmbedderConfig{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			BaseURL:    cfg.Embedding.BaseURL,
		})
	}

	store, err := retriever.NewStore(pool, embedder, s.logger, cfg.Retrieval.TopK)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to create retriever: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ensure retrieval schema: %w", err)
	}

	sheets, err := sheetstore.NewStore(pool, s.logger)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to create sheet store: %w", err)
	}
	if err := sheets.EnsureSchema(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ensure sheets schema: %w", err)
	}

	renderer := s.renderer
	if renderer == nil {
		renderer, err = newRenderer(cfg.Renderer.Strategy)
		if err != nil {
			pool.Close()
			return err
		}
	}
	s.logger.Info("pipeline ready",
		"model", cfg.LLM.Model,
		"embedding_model", cfg.Embedding.Model,
		"renderer", renderer.Name())

	s.mu.Lock()
	s.services = &svcctx.Services{
		Generator: s.newGenerator(cfg, store),
		Retriever: store,
		Sheets:    sheets,
		Renderer:  renderer,
		DB:        pool,
		Config:    cfg,
		Logger:    s.logger,
		Home:      s.homeDir,
	}
	s.mu.Unlock()

	return nil
}

// newGenerator builds a study-sheet generator for the given settings.
func (s *Server) newGenerator(cfg *config.Config, retriever studysheet.ContextRetriever) *studysheet.Generator {
	llm := s.llm
	if llm == nil {
		llm = providers.NewOpenRouterClient(providers.OpenRouterConfig{
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			DefaultModel: cfg.LLM.Model,
		})
	}
	return studysheet.NewGenerator(llm, retriever, s.logger, studysheet.GeneratorConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
}

// newRenderer maps a config strategy name to a renderer.
func newRenderer(strategy string) (render.Renderer, error) {
	switch strategy {
	case "", "draw":
		return draw.New()
	case "chrome":
		return chrome.New(), nil
	default:
		return nil, fmt.Errorf("unknown renderer strategy %q", strategy)
	}
}

// applyConfig rebuilds the generator when the config file changes. The
// database pool and renderer keep their original settings until restart.
func (s *Server) applyConfig(c *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.services == nil {
		return
	}

	cfg := c.Resolved()
	next := *s.services
	next.Generator = s.newGenerator(cfg, s.services.Retriever)
	next.Config = cfg
	s.services = &next

	s.logger.Info("generation settings reloaded from config", "model", cfg.LLM.Model)
}

// shutdown performs graceful shutdown of the HTTP server and database pool.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.pool != nil {
		s.pool.Close()
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		services := s.services
		s.mu.RUnlock()

		ctx := r.Context()
		if services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the pipeline is fully initialized.
// Returns 503 Service Unavailable until the database and providers are ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		ready := s.services != nil
		s.mu.RUnlock()

		if !ready {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"success":false,"message":"Le serveur n'est pas encore initialisé."}`))
			return
		}
		next(w, r)
	}
}
