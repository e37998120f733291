package retriever

import (
	"context"
	"strings"
	"testing"

	"github.com/fichemax/fichemax/internal/providers"
	"github.com/fichemax/fichemax/internal/testutil"
)

func TestJoinContext(t *testing.T) {
	tests := []struct {
		name    string
		matches []Match
		want    string
	}{
		{
			name: "multiple chunks",
			matches: []Match{
				{Content: "Le transistor est un composant actif."},
				{Content: "Le gain en courant est noté β."},
			},
			want: "Le transistor est un composant actif.\nLe gain en courant est noté β.",
		},
		{
			name:    "no matches",
			matches: nil,
			want:    "",
		},
		{
			name: "blank chunks skipped",
			matches: []Match{
				{Content: "  "},
				{Content: "Contenu utile."},
				{Content: ""},
			},
			want: "Contenu utile.",
		},
		{
			name: "whitespace trimmed",
			matches: []Match{
				{Content: "  Première partie.  "},
				{Content: "\nSeconde partie.\n"},
			},
			want: "Première partie.\nSeconde partie.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinContext(tt.matches); got != tt.want {
				t.Errorf("joinContext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(nil, providers.NewMockEmbedder(), nil, 4); err == nil {
		t.Error("expected error for nil pool")
	}
}

func TestRetrieveIntegration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	embedder := providers.NewMockEmbedder()

	store, err := NewStore(db.Pool, embedder, nil, 2)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	n, err := store.Index(ctx, "cours-transistors", []Chunk{
		{Content: "Le transistor bipolaire possède trois bornes.", Page: 1},
		{Content: "La diode Zener régule la tension.", Page: 7},
		{Content: "L'amplificateur opérationnel a un gain très élevé.", Page: 12},
	})
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 chunks indexed, got %d", n)
	}

	res, err := store.Retrieve(ctx, "Le transistor bipolaire possède trois bornes.")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("expected top-2 matches, got %d", len(res.Matches))
	}
	// The mock embedder is deterministic, so the identical text must rank first.
	if !strings.Contains(res.Matches[0].Content, "transistor bipolaire") {
		t.Errorf("expected the matching chunk first, got %q", res.Matches[0].Content)
	}
	if res.Matches[0].Similarity < res.Matches[1].Similarity {
		t.Error("matches should be ordered by descending similarity")
	}
	if !strings.Contains(res.Context, res.Matches[0].Content) {
		t.Error("context should contain the top match")
	}

	// Re-indexing the same document replaces its chunks.
	if _, err := store.Index(ctx, "cours-transistors", []Chunk{
		{Content: "Version révisée du cours.", Page: 1},
	}); err != nil {
		t.Fatalf("re-Index failed: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 chunk after re-index, got %d", count)
	}
}

func TestRetrieveEmptyCorpusIntegration(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store, err := NewStore(db.Pool, providers.NewMockEmbedder(), nil, 4)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	res, err := store.Retrieve(ctx, "Sujet sans aucun document")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if res.Context != "" {
		t.Errorf("expected empty context on empty corpus, got %q", res.Context)
	}
	if len(res.Matches) != 0 {
		t.Errorf("expected no matches, got %d", len(res.Matches))
	}
}

func TestIndexValidation(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store, err := NewStore(db.Pool, providers.NewMockEmbedder(), nil, 4)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	if _, err := store.Index(ctx, "", []Chunk{{Content: "x"}}); err == nil {
		t.Error("expected error for empty document ID")
	}
	if _, err := store.Index(ctx, "doc", []Chunk{{Content: "   "}}); err == nil {
		t.Error("expected error for blank-only chunks")
	}
}
