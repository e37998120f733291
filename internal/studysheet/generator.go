package studysheet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fichemax/fichemax/internal/providers"
)

// ContextRetriever supplies course material relevant to a question.
// An empty string means the corpus had nothing relevant.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, question string) (string, error)
}

// GeneratorConfig holds generation parameters.
type GeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	ChatTimeout time.Duration
}

// Generator produces study sheets and chatbot answers from retrieved context.
type Generator struct {
	llm       providers.LLMClient
	retriever ContextRetriever
	logger    *slog.Logger
	cfg       GeneratorConfig
}

// NewGenerator creates a Generator.
func NewGenerator(llm providers.LLMClient, retriever ContextRetriever, logger *slog.Logger, cfg GeneratorConfig) *Generator {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 3000
	}
	if cfg.ChatTimeout == 0 {
		cfg.ChatTimeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		llm:       llm,
		retriever: retriever,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds a complete study sheet for a question.
// Returns ErrNoContext when the corpus has nothing relevant, and
// ErrMalformedOutput when the model reply cannot be parsed.
func (g *Generator) Generate(ctx context.Context, question string) (*StudySheet, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}

	contextText, err := g.retrieveContext(ctx, question)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := g.chat(ctx, BuildSheetPrompt(contextText, question), &providers.ResponseFormat{Type: "json_object"})
	if err != nil {
		return nil, fmt.Errorf("sheet generation failed: %w", err)
	}

	sheet, err := ParseSheetJSON(result.Content)
	if err != nil {
		g.logger.Error("unparseable model output",
			"question", question,
			"model", result.ModelUsed,
			"content_length", len(result.Content),
			"error", err)
		return nil, err
	}
	sheet.Question = question

	g.logger.Info("study sheet generated",
		"question", question,
		"model", result.ModelUsed,
		"quiz_questions", len(sheet.Quiz.Questions),
		"total_tokens", result.TotalTokens,
		"duration", time.Since(start))

	return sheet, nil
}

// Answer returns a free-form chatbot answer grounded in retrieved context.
func (g *Generator) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}

	contextText, err := g.retrieveContext(ctx, question)
	if err != nil {
		return "", err
	}

	result, err := g.chat(ctx, BuildAnswerPrompt(contextText, question), nil)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}

	return strings.TrimSpace(result.Content), nil
}

func (g *Generator) retrieveContext(ctx context.Context, question string) (string, error) {
	contextText, err := g.retriever.RetrieveContext(ctx, question)
	if err != nil {
		return "", fmt.Errorf("context retrieval failed: %w", err)
	}
	if strings.TrimSpace(contextText) == "" {
		return "", ErrNoContext
	}
	return contextText, nil
}

func (g *Generator) chat(ctx context.Context, prompt string, format *providers.ResponseFormat) (*providers.ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ChatTimeout)
	defer cancel()

	return g.llm.Chat(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPersona},
			{Role: "user", Content: prompt},
		},
		Model:          g.cfg.Model,
		Temperature:    g.cfg.Temperature,
		MaxTokens:      g.cfg.MaxTokens,
		ResponseFormat: format,
	})
}
