package store

import (
	"context"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/seanblong/docask/pkg/models"
)

// Memory is a DocumentStore kept in process memory. Contents are lost on exit.
type Memory struct {
	mu       sync.RWMutex
	docs     map[string]models.Document
	byHash   map[string]string
	messages map[string][]models.Message
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]models.Document),
		byHash:   make(map[string]string),
		messages: make(map[string][]models.Message),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Migrate(ctx context.Context) error { return nil }

func (m *Memory) SaveDocument(ctx context.Context, name, text string) (models.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Document{}, false, err
	}
	hash := HashContent(text)

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byHash[hash]; ok {
		return m.docs[id], false, nil
	}
	d := models.Document{
		ID:          uuid.NewString(),
		Name:        name,
		ContentHash: hash,
		Text:        text,
		CharCount:   utf8.RuneCountInString(text),
		CreatedAt:   m.now(),
	}
	m.docs[d.ID] = d
	m.byHash[hash] = d.ID
	return d, true, nil
}

func (m *Memory) GetDocument(ctx context.Context, id string) (models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return models.Document{}, ErrNotFound
	}
	return d, nil
}

func (m *Memory) ListDocuments(ctx context.Context) ([]models.Document, error) {
	m.mu.RLock()
	docs := make([]models.Document, 0, len(m.docs))
	for _, d := range m.docs {
		d.Text = ""
		docs = append(docs, d)
	}
	m.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (m *Memory) DeleteDocument(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	delete(m.byHash, d.ContentHash)
	delete(m.messages, id)
	return nil
}

func (m *Memory) AppendMessage(ctx context.Context, documentID string, role models.Role, content string) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[documentID]; !ok {
		return models.Message{}, ErrNotFound
	}
	msg := models.Message{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Role:       role,
		Content:    content,
		CreatedAt:  m.now(),
	}
	m.messages[documentID] = append(m.messages[documentID], msg)
	return msg, nil
}

func (m *Memory) ListMessages(ctx context.Context, documentID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[documentID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
