// Package qa answers questions about uploaded documents.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/seanblong/docask/internal/ai"
	"github.com/seanblong/docask/internal/extract"
	"github.com/seanblong/docask/internal/retrieval"
	"github.com/seanblong/docask/internal/store"
	"github.com/seanblong/docask/pkg/models"
)

// ErrorAnswer is recorded as the assistant reply when the provider fails.
const ErrorAnswer = "Sorry, I encountered an error while processing your request."

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrEmptyDocument = errors.New("document text is empty")
	// ErrProvider wraps failures of the answering model.
	ErrProvider = errors.New("provider failed")
)

type Service struct {
	Client    ai.Client
	Store     store.DocumentStore
	Retriever *retrieval.Retriever

	// MaxContextChars caps stored document text; <= 0 disables the cap.
	MaxContextChars int
	// Language, when set, asks the model to answer in that language.
	Language string
	Logger   zerolog.Logger
}

// NewService creates a question answering service with default retrieval
// options and the default text cap.
func NewService(client ai.Client, st store.DocumentStore) *Service {
	return &Service{
		Client:          client,
		Store:           st,
		Retriever:       retrieval.Default(),
		MaxContextChars: extract.DefaultMaxChars,
		Logger:          zerolog.Nop(),
	}
}

func (s *Service) retriever() *retrieval.Retriever {
	if s.Retriever != nil {
		return s.Retriever
	}
	return retrieval.Default()
}

// LoadedMessage is the system message recorded when a document is uploaded.
func LoadedMessage(name string, chars int) string {
	return fmt.Sprintf("Document %q loaded. Total text length: %d characters.", name, chars)
}

// Upload stores a document and records a system message for it. Text already
// stored under another upload returns the existing document.
func (s *Service) Upload(ctx context.Context, name, text string) (models.Document, error) {
	text = extract.Truncate(text, s.MaxContextChars)
	if strings.TrimSpace(text) == "" {
		return models.Document{}, ErrEmptyDocument
	}
	doc, created, err := s.Store.SaveDocument(ctx, name, text)
	if err != nil {
		return models.Document{}, err
	}
	if _, err := s.Store.AppendMessage(ctx, doc.ID, models.RoleSystem, LoadedMessage(name, utf8.RuneCountInString(text))); err != nil {
		return models.Document{}, err
	}
	s.Logger.Info().Str("document", doc.ID).Str("name", name).Int("chars", doc.CharCount).Bool("created", created).Msg("document loaded")
	return doc, nil
}

// Ask answers question from the stored document and records both sides of
// the exchange.
func (s *Service) Ask(ctx context.Context, documentID, question string) (models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.Answer{}, ErrEmptyQuestion
	}
	doc, err := s.Store.GetDocument(ctx, documentID)
	if err != nil {
		return models.Answer{}, err
	}
	if _, err := s.Store.AppendMessage(ctx, doc.ID, models.RoleUser, question); err != nil {
		return models.Answer{}, err
	}

	ans, err := s.answer(ctx, doc.Name, doc.Text, question)
	ans.DocumentID = doc.ID
	if err != nil {
		if _, aerr := s.Store.AppendMessage(ctx, doc.ID, models.RoleAssistant, ErrorAnswer); aerr != nil {
			s.Logger.Error().Err(aerr).Str("document", doc.ID).Msg("record error answer")
		}
		return ans, err
	}
	if _, err := s.Store.AppendMessage(ctx, doc.ID, models.RoleAssistant, ans.Text); err != nil {
		return ans, err
	}
	return ans, nil
}

// AskText answers question over text without storing anything.
func (s *Service) AskText(ctx context.Context, name, text, question string) (models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.Answer{}, ErrEmptyQuestion
	}
	if strings.TrimSpace(text) == "" {
		return models.Answer{}, ErrEmptyDocument
	}
	return s.answer(ctx, name, extract.Truncate(text, s.MaxContextChars), question)
}

func (s *Service) answer(ctx context.Context, name, text, question string) (models.Answer, error) {
	res := s.retriever().Retrieve(text, question)
	ans := models.Answer{
		Context: res.Context,
		Path:    string(res.Path),
		Chunks:  chunkScores(res.Chunks),
	}
	s.Logger.Debug().
		Str("path", string(res.Path)).
		Strs("keywords", res.Keywords).
		Int("total_chunks", res.Total).
		Int("selected", len(res.Chunks)).
		Int("context_chars", utf8.RuneCountInString(res.Context)).
		Msg("retrieved")

	out, err := s.Client.Answer(ctx, ai.Prompt{
		DocumentName: name,
		Context:      res.Context,
		Question:     question,
		Language:     s.Language,
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("name", name).Msg("provider failed")
		ans.Text = ErrorAnswer
		return ans, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	ans.Text = out
	return ans, nil
}

func chunkScores(chunks []retrieval.ScoredChunk) []models.ChunkScore {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]models.ChunkScore, len(chunks))
	for i, c := range chunks {
		out[i] = models.ChunkScore{Index: c.Index, Score: c.Value, Matched: c.Matched}
	}
	return out
}
