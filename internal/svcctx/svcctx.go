// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fichemax/fichemax/internal/config"
	"github.com/fichemax/fichemax/internal/home"
	"github.com/fichemax/fichemax/internal/render"
	"github.com/fichemax/fichemax/internal/retriever"
	"github.com/fichemax/fichemax/internal/sheetstore"
	"github.com/fichemax/fichemax/internal/studysheet"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Generator *studysheet.Generator
	Retriever *retriever.Store
	Sheets    *sheetstore.Store
	Renderer  render.Renderer
	DB        *pgxpool.Pool
	Config    *config.Config
	Logger    *slog.Logger
	Home      *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// GeneratorFrom extracts the study-sheet generator from context.
func GeneratorFrom(ctx context.Context) *studysheet.Generator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Generator
	}
	return nil
}

// RetrieverFrom extracts the vector retriever from context.
func RetrieverFrom(ctx context.Context) *retriever.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Retriever
	}
	return nil
}

// SheetsFrom extracts the sheet archive store from context.
func SheetsFrom(ctx context.Context) *sheetstore.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Sheets
	}
	return nil
}

// RendererFrom extracts the PDF renderer from context.
func RendererFrom(ctx context.Context) render.Renderer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Renderer
	}
	return nil
}

// DBFrom extracts the database pool from context.
func DBFrom(ctx context.Context) *pgxpool.Pool {
	if s := ServicesFrom(ctx); s != nil {
		return s.DB
	}
	return nil
}

// ConfigFrom extracts the resolved configuration from context.
func ConfigFrom(ctx context.Context) *config.Config {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
