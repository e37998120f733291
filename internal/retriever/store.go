// Package retriever stores course document chunks with their embeddings in
// PostgreSQL/pgvector and answers similarity queries over them.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/fichemax/fichemax/internal/providers"
)

const (
	// EmbedTimeout bounds the upstream embedding call.
	EmbedTimeout = 30 * time.Second

	// QueryTimeout bounds the vector similarity query.
	QueryTimeout = 10 * time.Second

	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 4

	// MaxTopK caps caller-supplied top-K values.
	MaxTopK = 20
)

// Match is one retrieved document chunk.
type Match struct {
	ID         uuid.UUID `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	Page       int       `json:"page"`
	Similarity float64   `json:"similarity"`
}

// Result is the outcome of a retrieval query.
type Result struct {
	Context string  `json:"context"`
	Matches []Match `json:"matches"`
}

// Store manages document chunks backed by PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool     *pgxpool.Pool
	embedder providers.Embedder
	logger   *slog.Logger
	topK     int
}

// NewStore creates a retriever Store.
func NewStore(pool *pgxpool.Pool, embedder providers.Embedder, logger *slog.Logger, topK int) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return &Store{pool: pool, embedder: embedder, logger: logger, topK: topK}, nil
}

// EnsureSchema creates the documents table and similarity index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id TEXT NOT NULL,
			content TEXT NOT NULL,
			page INTEGER NOT NULL DEFAULT 0,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.embedder.Dimensions()),
		`CREATE INDEX IF NOT EXISTS document_chunks_document_id_idx ON document_chunks (document_id)`,
		`CREATE INDEX IF NOT EXISTS document_chunks_embedding_idx
			ON document_chunks USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring retriever schema: %w", err)
		}
	}
	return nil
}

// embed generates a vector for the given text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	vecs, err := s.embedder.Embed(embedCtx, []string{text})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embedding text: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding response")
	}
	return pgvector.NewVector(vecs[0]), nil
}

// Index stores document chunks with their embeddings. Chunks for the same
// documentID are replaced, so re-indexing a document is idempotent.
func (s *Store) Index(ctx context.Context, documentID string, chunks []Chunk) (int, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return 0, fmt.Errorf("document ID is required")
	}
	texts := make([]string, 0, len(chunks))
	kept := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c.Content); t != "" {
			c.Content = t
			kept = append(kept, c)
			texts = append(texts, t)
		}
	}
	if len(kept) == 0 {
		return 0, fmt.Errorf("no content to index")
	}

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()
	vecs, err := s.embedder.Embed(embedCtx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vecs) != len(kept) {
		return 0, fmt.Errorf("expected %d embeddings, got %d", len(kept), len(vecs))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			s.logger.Debug("transaction rollback", "error", rbErr)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return 0, fmt.Errorf("clearing previous chunks: %w", err)
	}
	for i, c := range kept {
		_, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (document_id, content, page, embedding)
			 VALUES ($1, $2, $3, $4)`,
			documentID, c.Content, c.Page, pgvector.NewVector(vecs[i]),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing index transaction: %w", err)
	}

	s.logger.Info("document indexed", "document_id", documentID, "chunks", len(kept))
	return len(kept), nil
}

// Chunk is one piece of a course document to index.
type Chunk struct {
	Content string `json:"content"`
	Page    int    `json:"page"`
}

// Retrieve finds the chunks most similar to the question and joins them into
// a single context string. An empty Result.Context means nothing relevant
// was found.
func (s *Store) Retrieve(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	vec, err := s.embed(ctx, question)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	rows, err := s.pool.Query(queryCtx,
		`SELECT id, document_id, content, page, 1 - (embedding <=> $1) AS similarity
		 FROM document_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, s.topK,
	)
	if err != nil {
		return nil, fmt.Errorf("querying similar chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.Content, &m.Page, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return &Result{
		Context: joinContext(matches),
		Matches: matches,
	}, nil
}

// RetrieveContext returns just the joined context string for a question.
func (s *Store) RetrieveContext(ctx context.Context, question string) (string, error) {
	res, err := s.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	return res.Context, nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// joinContext concatenates match contents into prompt-ready text, one chunk
// per line, skipping empty chunks.
func joinContext(matches []Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := strings.TrimSpace(m.Content); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
