package models

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Document is an uploaded document. Text is only populated when a single
// document is fetched.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentHash string    `json:"content_hash"`
	Text        string    `json:"-"`
	CharCount   int       `json:"char_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type Message struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChunkScore reports how a selected chunk ranked.
type ChunkScore struct {
	Index   int     `json:"index"`
	Score   float64 `json:"score"`
	Matched int     `json:"matched"`
}

// Answer is the reply to a question. Context holds the text sent to the
// model and is not serialized.
type Answer struct {
	DocumentID string       `json:"document_id,omitempty"`
	Text       string       `json:"answer"`
	Context    string       `json:"-"`
	Path       string       `json:"retrieval_path"`
	Chunks     []ChunkScore `json:"chunks,omitempty"`
}
