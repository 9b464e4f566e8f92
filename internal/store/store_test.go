package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/seanblong/docask/pkg/models"
)

func TestHashContent(t *testing.T) {
	if got := HashContent("hello"); got != "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d" {
		t.Errorf("unexpected hash %q", got)
	}
	if HashContent("a") == HashContent("b") {
		t.Error("Expected different content to hash differently")
	}
}

// testStore runs the shared DocumentStore behaviour against an implementation.
func testStore(t *testing.T, s DocumentStore) {
	t.Helper()
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	doc, created, err := s.SaveDocument(ctx, "guide.pdf", "React hooks guide")
	if err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}
	if !created {
		t.Error("Expected first save to create the document")
	}
	if doc.ID == "" || doc.CharCount != len("React hooks guide") || doc.ContentHash != HashContent("React hooks guide") {
		t.Errorf("unexpected document: %+v", doc)
	}

	again, created, err := s.SaveDocument(ctx, "copy.pdf", "React hooks guide")
	if err != nil {
		t.Fatalf("SaveDocument (duplicate) failed: %v", err)
	}
	if created {
		t.Error("Expected duplicate content not to create a document")
	}
	if again.ID != doc.ID || again.Name != "guide.pdf" {
		t.Errorf("Expected existing document, got %+v", again)
	}

	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Text != "React hooks guide" {
		t.Errorf("Expected stored text, got %q", got.Text)
	}

	if _, err := s.GetDocument(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	for _, m := range []struct {
		role    models.Role
		content string
	}{
		{models.RoleSystem, "loaded"},
		{models.RoleUser, "what are hooks?"},
		{models.RoleAssistant, "functions"},
	} {
		if _, err := s.AppendMessage(ctx, doc.ID, m.role, m.content); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := s.ListMessages(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != models.RoleSystem || msgs[1].Role != models.RoleUser || msgs[2].Content != "functions" {
		t.Errorf("unexpected message order: %+v", msgs)
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	found := false
	for _, d := range docs {
		if d.ID == doc.ID {
			found = true
			if d.Text != "" {
				t.Error("Expected listed documents to omit text")
			}
		}
	}
	if !found {
		t.Error("Expected saved document in listing")
	}

	if err := s.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	if err := s.DeleteDocument(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if msgs, _ := s.ListMessages(ctx, doc.ID); len(msgs) != 0 {
		t.Errorf("Expected messages removed with document, got %d", len(msgs))
	}
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestMemory_AppendMessageUnknownDocument(t *testing.T) {
	m := NewMemory()
	if _, err := m.AppendMessage(context.Background(), "nope", models.RoleUser, "hi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemory_ListDocumentsNewestFirst(t *testing.T) {
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()
	first, _, _ := m.SaveDocument(ctx, "a", "alpha")
	second, _, _ := m.SaveDocument(ctx, "b", "beta")

	docs, err := m.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != second.ID || docs[1].ID != first.ID {
		t.Errorf("Expected newest first, got %+v", docs)
	}
}

func TestMemory_SaveDocumentCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewMemory().SaveDocument(ctx, "a", "b"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

// TestPostgres runs against a live database when DOCASK_TEST_DATABASE is set.
func TestPostgres(t *testing.T) {
	url := os.Getenv("DOCASK_TEST_DATABASE")
	if url == "" {
		t.Skip("DOCASK_TEST_DATABASE not set")
	}
	ctx := context.Background()
	s, err := New(ctx, url)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	// Unique content keeps reruns from colliding on the hash index.
	suffix := time.Now().Format(time.RFC3339Nano)
	testStore(t, &suffixed{Store: s, suffix: suffix})
}

// suffixed appends a per-run suffix to saved text.
type suffixed struct {
	*Store
	suffix string
}

func (s *suffixed) SaveDocument(ctx context.Context, name, text string) (models.Document, bool, error) {
	d, created, err := s.Store.SaveDocument(ctx, name, text+s.suffix)
	d.Text = text
	d.ContentHash = HashContent(text)
	d.CharCount = len(text)
	return d, created, err
}

func (s *suffixed) GetDocument(ctx context.Context, id string) (models.Document, error) {
	d, err := s.Store.GetDocument(ctx, id)
	if err == nil {
		d.Text = d.Text[:len(d.Text)-len(s.suffix)]
	}
	return d, err
}
