package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "5001" {
		t.Errorf("expected default port 5001, got %s", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected 1536 embedding dimensions, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Retrieval.TopK < 3 || cfg.Retrieval.TopK > 5 {
		t.Errorf("expected top_k in [3,5], got %d", cfg.Retrieval.TopK)
	}
	if cfg.Renderer.Strategy != "draw" {
		t.Errorf("expected default renderer strategy draw, got %s", cfg.Renderer.Strategy)
	}
}

func TestResolveEnvVars(t *testing.T) {
	os.Setenv("FICHEMAX_TEST_KEY", "secret-123")
	defer os.Unsetenv("FICHEMAX_TEST_KEY")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple var", "${FICHEMAX_TEST_KEY}", "secret-123"},
		{"embedded var", "Bearer ${FICHEMAX_TEST_KEY}", "Bearer secret-123"},
		{"no var", "plain-value", "plain-value"},
		{"empty string", "", ""},
		{"unset var", "${FICHEMAX_UNSET_VAR_XYZ}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolved(t *testing.T) {
	os.Setenv("FICHEMAX_TEST_DSN", "postgres://localhost/fichemax")
	defer os.Unsetenv("FICHEMAX_TEST_DSN")

	cfg := DefaultConfig()
	cfg.Database.DSN = "${FICHEMAX_TEST_DSN}"

	resolved := cfg.Resolved()
	if resolved.Database.DSN != "postgres://localhost/fichemax" {
		t.Errorf("expected resolved DSN, got %q", resolved.Database.DSN)
	}
	// Original must be untouched so the placeholder survives hot reloads.
	if cfg.Database.DSN != "${FICHEMAX_TEST_DSN}" {
		t.Errorf("Resolved mutated the source config: %q", cfg.Database.DSN)
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "# fichemax configuration") {
		t.Error("written config missing header comment")
	}
	for _, key := range []string{"server:", "llm:", "embedding:", "database:", "retrieval:", "renderer:"} {
		if !strings.Contains(content, key) {
			t.Errorf("written config missing section %q", key)
		}
	}
	if !strings.Contains(content, "${OPENROUTER_API_KEY}") {
		t.Error("written config should keep env var placeholder for the LLM key")
	}
}
