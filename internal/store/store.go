package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/seanblong/docask/pkg/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// DocumentStore defines the methods that a document store must implement.
// Only document text and chat history are kept; chunks are never stored.
type DocumentStore interface {
	Migrate(ctx context.Context) error
	SaveDocument(ctx context.Context, name, text string) (models.Document, bool, error)
	GetDocument(ctx context.Context, id string) (models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, documentID string, role models.Role, content string) (models.Message, error)
	ListMessages(ctx context.Context, documentID string) ([]models.Message, error)
}

// HashContent returns the SHA-1 hash of the given content as a hex string.
func HashContent(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// Store provides methods to interact with the database.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store instance connected to the given database URL.
func New(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p}, nil
}

func (s *Store) Close() { s.pool.Close() }

// Migrate applies necessary database migrations and schema setup.
func (s *Store) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS documents (
  id            TEXT PRIMARY KEY,
  name          TEXT NOT NULL,
  content_hash  TEXT NOT NULL,
  text          TEXT NOT NULL,
  char_count    INT  NOT NULL,
  created_at    TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS documents_content_hash_uidx
  ON documents (content_hash);

CREATE TABLE IF NOT EXISTS messages (
  seq           BIGSERIAL PRIMARY KEY,
  id            TEXT NOT NULL UNIQUE,
  document_id   TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
  role          TEXT NOT NULL CHECK (role IN ('user','assistant','system')),
  content       TEXT NOT NULL,
  created_at    TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE INDEX IF NOT EXISTS messages_document_idx
  ON messages (document_id, seq);
`
	_, err := s.pool.Exec(ctx, q)
	return err
}

// SaveDocument inserts a document, or returns the stored one when the same
// text was uploaded before. The boolean reports whether a row was created.
func (s *Store) SaveDocument(ctx context.Context, name, text string) (models.Document, bool, error) {
	const q = `
		INSERT INTO documents (id, name, content_hash, text, char_count, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (content_hash) DO UPDATE SET
			name = documents.name
		RETURNING id, name, content_hash, char_count, created_at, (xmax = 0) AS inserted;`

	var d models.Document
	var inserted bool
	err := s.pool.QueryRow(ctx, q,
		uuid.NewString(), name, HashContent(text), text, utf8.RuneCountInString(text),
	).Scan(&d.ID, &d.Name, &d.ContentHash, &d.CharCount, &d.CreatedAt, &inserted)
	if err != nil {
		return models.Document{}, false, fmt.Errorf("save document: %w", err)
	}
	d.Text = text
	return d, inserted, nil
}

// GetDocument returns the document with its text.
func (s *Store) GetDocument(ctx context.Context, id string) (models.Document, error) {
	const q = `
		SELECT id, name, content_hash, text, char_count, created_at
		FROM documents WHERE id = $1`
	var d models.Document
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&d.ID, &d.Name, &d.ContentHash, &d.Text, &d.CharCount, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Document{}, ErrNotFound
		}
		return models.Document{}, err
	}
	return d, nil
}

// ListDocuments returns all documents without their text, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, content_hash, char_count, created_at
		FROM documents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Name, &d.ContentHash, &d.CharCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and its messages.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage records one chat message for a document.
func (s *Store) AppendMessage(ctx context.Context, documentID string, role models.Role, content string) (models.Message, error) {
	m := models.Message{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Role:       role,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, document_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.DocumentID, string(m.Role), m.Content, m.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}

// ListMessages returns the chat history of a document in insertion order.
func (s *Store) ListMessages(ctx context.Context, documentID string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, role, content, created_at
		FROM messages WHERE document_id = $1 ORDER BY seq`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		var role string
		if err := rows.Scan(&m.ID, &m.DocumentID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Ping checks the database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
