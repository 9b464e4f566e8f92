package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name        string
		config      *ClientConfig
		wantModel   string
		wantBaseURL string
	}{
		{
			name:        "defaults",
			config:      &ClientConfig{APIKey: "test-key"},
			wantModel:   "gpt-4o-mini",
			wantBaseURL: "https://api.openai.com/v1",
		},
		{
			name:        "custom model and base url",
			config:      &ClientConfig{APIKey: "test-key", Model: "gpt-4.1", BaseURL: "http://localhost:11434/v1/"},
			wantModel:   "gpt-4.1",
			wantBaseURL: "http://localhost:11434/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewOpenAIClient(tt.config)
			if client.config.Model != tt.wantModel {
				t.Errorf("Expected Model '%s', got '%s'", tt.wantModel, client.config.Model)
			}
			if client.config.BaseURL != tt.wantBaseURL {
				t.Errorf("Expected BaseURL '%s', got '%s'", tt.wantBaseURL, client.config.BaseURL)
			}
			if client.http.Timeout != 60*time.Second {
				t.Errorf("Expected timeout 60s, got %v", client.http.Timeout)
			}
		})
	}
}

func TestOpenAIClient_Answer(t *testing.T) {
	prompt := Prompt{DocumentName: "react.pdf", Context: "Hooks are functions.", Question: "What are hooks?"}

	tests := []struct {
		name       string
		apiKey     string
		status     int
		body       string
		want       string
		wantErr    string
		checkInput bool
	}{
		{
			name:       "successful answer",
			apiKey:     "test-key",
			status:     http.StatusOK,
			body:       `{"choices":[{"message":{"content":"  Hooks are functions.  "}}]}`,
			want:       "Hooks are functions.",
			checkInput: true,
		},
		{
			name:   "empty content falls back to not-found answer",
			apiKey: "test-key",
			status: http.StatusOK,
			body:   `{"choices":[{"message":{"content":"   "}}]}`,
			want:   NotFoundAnswer,
		},
		{
			name:    "no choices",
			apiKey:  "test-key",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: "no choices",
		},
		{
			name:    "api error message",
			apiKey:  "test-key",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Invalid API key"}}`,
			wantErr: "Invalid API key",
		},
		{
			name:    "api error without message",
			apiKey:  "test-key",
			status:  http.StatusBadGateway,
			body:    `oops`,
			wantErr: "502",
		},
		{
			name:    "missing api key",
			apiKey:  "",
			wantErr: "PROVIDER_API_KEY unset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat/completions" {
					t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer "+tt.apiKey {
					t.Errorf("Expected bearer token, got %q", got)
				}
				if tt.checkInput {
					var req struct {
						Model    string `json:"model"`
						Messages []struct {
							Role    string `json:"role"`
							Content string `json:"content"`
						} `json:"messages"`
						Temperature float64 `json:"temperature"`
						MaxTokens   int     `json:"max_tokens"`
					}
					if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
						t.Fatalf("decode request: %v", err)
					}
					if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
						t.Fatalf("unexpected messages: %+v", req.Messages)
					}
					if !strings.Contains(req.Messages[1].Content, "Hooks are functions.") {
						t.Error("expected context in user message")
					}
					if req.Temperature != 0.2 || req.MaxTokens != 1024 {
						t.Errorf("unexpected generation params: %v %d", req.Temperature, req.MaxTokens)
					}
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewOpenAIClient(&ClientConfig{APIKey: tt.apiKey, BaseURL: server.URL})
			got, err := client.Answer(context.Background(), prompt)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Answer failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOpenAIClient_AnswerWithCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewOpenAIClient(&ClientConfig{APIKey: "k", BaseURL: server.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Answer(ctx, Prompt{Question: "q"}); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestOpenAIClient_setHeaders(t *testing.T) {
	tests := []struct {
		name        string
		apiKey      string
		projectID   string
		wantProject string
	}{
		{"project key with project id", "sk-proj-abc", "proj_1", "proj_1"},
		{"project key without project id", "sk-proj-abc", "", ""},
		{"regular key ignores project id", "sk-abc", "proj_1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOpenAIClient(&ClientConfig{APIKey: tt.apiKey, ProjectID: tt.projectID})
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			c.setHeaders(req)
			if got := req.Header.Get("OpenAI-Project"); got != tt.wantProject {
				t.Errorf("Expected OpenAI-Project %q, got %q", tt.wantProject, got)
			}
			if req.Header.Get("Content-Type") != "application/json" {
				t.Error("Expected JSON content type")
			}
		})
	}
}
