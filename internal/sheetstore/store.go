// Package sheetstore archives generated study sheets so past work can be
// listed and their PDFs re-downloaded from the /pdfs static route.
package sheetstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one archived study sheet.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Title     string    `json:"title"`
	PDFName   string    `json:"pdf_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists sheet records in PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a sheet store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the sheets table if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS sheets (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		question TEXT NOT NULL,
		title TEXT NOT NULL,
		pdf_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("ensuring sheets schema: %w", err)
	}
	return nil
}

// Save archives a generated sheet and returns the stored record.
func (s *Store) Save(ctx context.Context, question, title, pdfName string) (*Record, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	rec := &Record{
		Question: question,
		Title:    strings.TrimSpace(title),
		PDFName:  strings.TrimSpace(pdfName),
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sheets (question, title, pdf_name)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		rec.Question, rec.Title, rec.PDFName,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("saving sheet record: %w", err)
	}
	return rec, nil
}

// List returns the most recent records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, question, title, pdf_name, created_at
		 FROM sheets
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sheets: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Title, &rec.PDFName, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning sheet record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sheet records: %w", err)
	}
	return records, nil
}

// Count returns the number of archived sheets.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sheets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sheets: %w", err)
	}
	return n, nil
}
