package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

type GeminiClient struct {
	config *ClientConfig
	client *genai.Client
}

// NewGeminiClient creates a client for the Gemini API. An API key without a
// project selects the Gemini Developer API; otherwise Vertex AI is used.
func NewGeminiClient(ctx context.Context, config *ClientConfig) (*GeminiClient, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if config.Model == "" {
		config.Model = defaultGeminiModel
	}

	cc := genai.ClientConfig{Backend: backendFor(config)}
	if cc.Backend == genai.BackendVertexAI && strings.TrimSpace(config.Location) == "" {
		config.Location = "us-central1"
	}
	if strings.TrimSpace(config.APIKey) != "" {
		cc.APIKey = config.APIKey
	}
	if strings.TrimSpace(config.ProjectID) != "" {
		cc.Project = config.ProjectID
	}
	if cc.Backend == genai.BackendVertexAI {
		cc.Location = config.Location
	}

	client, err := genai.NewClient(ctx, &cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{config: config, client: client}, nil
}

func backendFor(config *ClientConfig) genai.Backend {
	if config.Provider == ProviderVertexAI || strings.TrimSpace(config.ProjectID) != "" {
		return genai.BackendVertexAI
	}
	return genai.BackendGeminiAPI
}

// Answer implements Client using GenerateContent.
func (c *GeminiClient) Answer(ctx context.Context, p Prompt) (string, error) {
	if c.client == nil {
		return "", errors.New("gemini client not initialized")
	}

	temp := float32(temperature)
	cfg := genai.GenerateContentConfig{
		Temperature:       &temp,
		MaxOutputTokens:   int32(maxOutputTokens),
		SystemInstruction: genai.Text(SystemPrompt())[0],
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, genai.Text(UserPrompt(p)), &cfg)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return finalize(responseText(resp)), nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}
