package ai

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/seanblong/docask/internal/retrieval"
)

// Client answers a question from a bounded document context.
type Client interface {
	Answer(ctx context.Context, p Prompt) (string, error)
}

// Provider is enumeration of supported AI providers
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderGemini   Provider = "gemini"
	ProviderVertexAI Provider = "vertexai"
	ProviderStub     Provider = "stub"
)

// ClientConfig holds configuration for AI clients
type ClientConfig struct {
	APIKey    string
	Model     string
	BaseURL   string // OpenAI-compatible endpoint root
	ProjectID string
	Location  string
	Provider  Provider
}

// NewClient creates a new AI client based on configuration
func NewClient(ctx context.Context, config *ClientConfig) (Client, error) {
	if config == nil {
		return nil, errors.New("client config is required")
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config), nil
	case ProviderGemini, ProviderVertexAI:
		return NewGeminiClient(ctx, config)
	case ProviderStub:
		return NewStubClient(), nil
	default:
		return nil, errors.New("unsupported provider: " + string(config.Provider))
	}
}

// ParseProvider maps configuration names onto a Provider.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return ProviderOpenAI, nil
	case "gemini", "google":
		return ProviderGemini, nil
	case "vertexai", "vertex":
		return ProviderVertexAI, nil
	case "stub", "":
		return ProviderStub, nil
	default:
		return "", errors.New("unsupported provider: " + name)
	}
}

// StubClient answers without a model: it returns the first context sentence
// that mentions a question keyword.
type StubClient struct{}

// NewStubClient creates a new StubClient
func NewStubClient() *StubClient {
	return &StubClient{}
}

var sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?\n]+[.!?\n])`)

// Answer implements Client.
func (s *StubClient) Answer(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	keywords := retrieval.ExtractKeywords(p.Question)
	if len(keywords) == 0 {
		return NotFoundAnswer, nil
	}
	sentences := sentenceRe.FindAllString(p.Context+"\n", -1)
	for _, sent := range sentences {
		if retrieval.ScoreChunk(sent, keywords).Matched > 0 {
			return strings.TrimSpace(sent), nil
		}
	}
	return NotFoundAnswer, nil
}
