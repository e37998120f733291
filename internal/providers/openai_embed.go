package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIEmbedName         = "openai"
	openAIEmbedDefaultModel = "text-embedding-3-small"

	// Matches the width of the vectors already stored in the corpus.
	DefaultEmbeddingDimensions = 1536
)

// OpenAIEmbedderConfig holds configuration for the OpenAI embedding client.
type OpenAIEmbedderConfig struct {
	APIKey     string
	Model      string // "text-embedding-3-small" (default)
	Dimensions int    // 1536 (default)
	MaxRetries int
	Timeout    time.Duration
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
}

// OpenAIEmbedder implements Embedder using the official OpenAI SDK.
type OpenAIEmbedder struct {
	model      string
	dimensions int
	maxRetries int
	client     openai.Client
}

// NewOpenAIEmbedder creates a new OpenAI embedding client.
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) *OpenAIEmbedder {
	if cfg.Model == "" {
		cfg.Model = openAIEmbedDefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultEmbeddingDimensions
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIEmbedder{
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		maxRetries: cfg.MaxRetries,
		client:     openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (e *OpenAIEmbedder) Name() string {
	return OpenAIEmbedName
}

// Dimensions returns the vector width this embedder produces.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Embed returns one vector per input text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}

	var resp *openai.CreateEmbeddingResponse
	err := retry.Do(
		func() error {
			var err error
			resp, err = e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
				Input: openai.EmbeddingNewParamsInputUnion{
					OfArrayOfStrings: texts,
				},
				Model:      openai.EmbeddingModel(e.model),
				Dimensions: openai.Int(int64(e.dimensions)),
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(e.maxRetries)),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}

	for i, v := range vectors {
		if len(v) != e.dimensions {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(v), e.dimensions)
		}
	}

	return vectors, nil
}

// Verify interface
var _ Embedder = (*OpenAIEmbedder)(nil)
