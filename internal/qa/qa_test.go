package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seanblong/docask/internal/ai"
	"github.com/seanblong/docask/internal/retrieval"
	"github.com/seanblong/docask/internal/store"
	"github.com/seanblong/docask/pkg/models"
)

// MockAIClient implements the ai.Client interface for testing
type MockAIClient struct {
	AnswerFunc func(ctx context.Context, p ai.Prompt) (string, error)
	prompts    []ai.Prompt
}

func (m *MockAIClient) Answer(ctx context.Context, p ai.Prompt) (string, error) {
	m.prompts = append(m.prompts, p)
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, p)
	}
	return "mock answer", nil
}

func words(prefix string, n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = prefix
	}
	return strings.Join(w, " ")
}

func TestService_Upload(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(&MockAIClient{}, st)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "guide.pdf", "React hooks guide")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	msgs, _ := st.ListMessages(ctx, doc.ID)
	if len(msgs) != 1 || msgs[0].Role != models.RoleSystem {
		t.Fatalf("Expected one system message, got %+v", msgs)
	}
	if want := `Document "guide.pdf" loaded. Total text length: 17 characters.`; msgs[0].Content != want {
		t.Errorf("Expected %q, got %q", want, msgs[0].Content)
	}

	if _, err := svc.Upload(ctx, "empty", "   \n"); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Expected ErrEmptyDocument, got %v", err)
	}
}

func TestService_UploadTruncates(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(&MockAIClient{}, st)
	svc.MaxContextChars = 5

	doc, err := svc.Upload(context.Background(), "long", "abcdefghij")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	got, _ := st.GetDocument(context.Background(), doc.ID)
	if got.Text != "abcde" || got.CharCount != 5 {
		t.Errorf("Expected truncated text, got %q (%d)", got.Text, got.CharCount)
	}
}

func TestService_Ask(t *testing.T) {
	ctx := context.Background()
	text := words("filler", 600) + " hooks state " + words("filler", 600)

	tests := []struct {
		name       string
		question   string
		answerFunc func(ctx context.Context, p ai.Prompt) (string, error)
		wantErr    bool
		wantText   string
		wantPath   string
	}{
		{
			name:     "ranked answer",
			question: "What are hooks?",
			wantText: "mock answer",
			wantPath: string(retrieval.PathRanked),
		},
		{
			name:     "no keywords falls back",
			question: "what is the",
			wantText: "mock answer",
			wantPath: string(retrieval.PathNoKeywords),
		},
		{
			name:     "provider failure",
			question: "hooks?",
			answerFunc: func(ctx context.Context, p ai.Prompt) (string, error) {
				return "", errors.New("boom")
			},
			wantErr:  true,
			wantText: ErrorAnswer,
			wantPath: string(retrieval.PathRanked),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			client := &MockAIClient{AnswerFunc: tt.answerFunc}
			svc := NewService(client, st)
			doc, err := svc.Upload(ctx, "doc.txt", text)
			if err != nil {
				t.Fatalf("Upload failed: %v", err)
			}

			ans, err := svc.Ask(ctx, doc.ID, "  "+tt.question+"  ")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ask error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrProvider) {
				t.Errorf("Expected ErrProvider, got %v", err)
			}
			if ans.Text != tt.wantText || ans.Path != tt.wantPath || ans.DocumentID != doc.ID {
				t.Errorf("unexpected answer: %+v", ans)
			}
			if len(client.prompts) != 1 {
				t.Fatalf("Expected one provider call, got %d", len(client.prompts))
			}
			p := client.prompts[0]
			if p.Question != tt.question || p.DocumentName != "doc.txt" || p.Context != ans.Context {
				t.Errorf("unexpected prompt: %+v", p)
			}

			msgs, _ := st.ListMessages(ctx, doc.ID)
			if len(msgs) != 3 {
				t.Fatalf("Expected 3 messages, got %d", len(msgs))
			}
			if msgs[1].Role != models.RoleUser || msgs[1].Content != tt.question {
				t.Errorf("unexpected user message: %+v", msgs[1])
			}
			if msgs[2].Role != models.RoleAssistant || msgs[2].Content != tt.wantText {
				t.Errorf("unexpected assistant message: %+v", msgs[2])
			}
		})
	}
}

func TestService_AskRankedContext(t *testing.T) {
	text := words("filler", 600) + " hooks state " + words("filler", 600)
	svc := NewService(&MockAIClient{}, store.NewMemory())
	ans, err := svc.AskText(context.Background(), "doc", text, "hooks state")
	if err != nil {
		t.Fatalf("AskText failed: %v", err)
	}
	if !strings.Contains(ans.Context, "hooks state") {
		t.Error("Expected selected context to contain the matching passage")
	}
	if len(ans.Chunks) == 0 || ans.Chunks[0].Matched != 2 {
		t.Errorf("Expected best chunk to match both keywords, got %+v", ans.Chunks)
	}
}

func TestService_AskErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&MockAIClient{}, store.NewMemory())

	if _, err := svc.Ask(ctx, "missing", "q"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Ask(ctx, "missing", "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("Expected ErrEmptyQuestion, got %v", err)
	}
	if _, err := svc.AskText(ctx, "n", "text", ""); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("Expected ErrEmptyQuestion, got %v", err)
	}
	if _, err := svc.AskText(ctx, "n", "", "q"); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Expected ErrEmptyDocument, got %v", err)
	}
}

func TestService_AskTextWithStub(t *testing.T) {
	svc := NewService(ai.NewStubClient(), store.NewMemory())
	ans, err := svc.AskText(context.Background(), "react.txt",
		"React is a library. Hooks let you use state in function components.", "What are hooks?")
	if err != nil {
		t.Fatalf("AskText failed: %v", err)
	}
	if ans.Path != string(retrieval.PathWhole) {
		t.Errorf("Expected whole path, got %q", ans.Path)
	}
	if ans.Text != "Hooks let you use state in function components." {
		t.Errorf("unexpected answer %q", ans.Text)
	}
}
