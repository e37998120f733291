package config

// Config holds fichemax configuration.
// Stored at: ~/.fichemax/config.yaml (or ./config.yaml)
type Config struct {
	Server    ServerCfg    `mapstructure:"server" yaml:"server"`
	LLM       LLMCfg       `mapstructure:"llm" yaml:"llm"`
	Embedding EmbeddingCfg `mapstructure:"embedding" yaml:"embedding"`
	Database  DatabaseCfg  `mapstructure:"database" yaml:"database"`
	Retrieval RetrievalCfg `mapstructure:"retrieval" yaml:"retrieval"`
	Renderer  RendererCfg  `mapstructure:"renderer" yaml:"renderer"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	// CORSOrigin is the allowed browser origin (the React dev server).
	CORSOrigin string `mapstructure:"cors_origin" yaml:"cors_origin"`
}

// LLMCfg configures the chat-completion provider.
type LLMCfg struct {
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`       // OpenRouter-compatible endpoint
	Model       string  `mapstructure:"model" yaml:"model"`             // Model identifier
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`         // Supports ${ENV_VAR} syntax
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"` //
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// EmbeddingCfg configures the embedding provider.
type EmbeddingCfg struct {
	Model      string `mapstructure:"model" yaml:"model"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	Dimensions int    `mapstructure:"dimensions" yaml:"dimensions"`
}

// DatabaseCfg configures the Postgres/pgvector connection.
type DatabaseCfg struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"` // Supports ${ENV_VAR} syntax
}

// RetrievalCfg configures vector search.
type RetrievalCfg struct {
	TopK int `mapstructure:"top_k" yaml:"top_k"`
}

// RendererCfg selects the PDF rendering strategy.
type RendererCfg struct {
	// Strategy is "draw" (raster page drawing) or "chrome" (HTML printed
	// to PDF through a headless browser).
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:       "127.0.0.1",
			Port:       "5001",
			CORSOrigin: "http://localhost:5173",
		},
		LLM: LLMCfg{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "openai/gpt-4o-mini",
			APIKey:      "${OPENROUTER_API_KEY}",
			Temperature: 0.3,
			MaxTokens:   3000,
		},
		Embedding: EmbeddingCfg{
			Model:      "text-embedding-3-small",
			APIKey:     "${OPENAI_API_KEY}",
			Dimensions: 1536,
		},
		Database: DatabaseCfg{
			DSN: "${FICHEMAX_DATABASE_DSN}",
		},
		Retrieval: RetrievalCfg{
			TopK: 4,
		},
		Renderer: RendererCfg{
			Strategy: "draw",
		},
	}
}
