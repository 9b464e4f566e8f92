package ai

import "strings"

// NotFoundAnswer is returned verbatim when the context does not hold the answer.
const NotFoundAnswer = "I could not find the answer in the provided document."

// Generation parameters shared by every provider.
const (
	temperature     = 0.2
	maxOutputTokens = 1024
)

// Prompt is one question over one document context.
type Prompt struct {
	DocumentName string
	Context      string
	Question     string
	Language     string // optional answer language
}

const systemPrompt = "You are an expert assistant for question-answering over document content. " +
	"Answer ONLY using the provided document context. If the answer is not in the context, reply exactly: \"" +
	NotFoundAnswer + "\""

// SystemPrompt returns the instruction sent ahead of every question.
func SystemPrompt() string { return systemPrompt }

// UserPrompt renders the document context and question for the model.
func UserPrompt(p Prompt) string {
	name := strings.TrimSpace(p.DocumentName)
	if name == "" {
		name = "(unnamed)"
	}
	lines := []string{
		"Document: " + name,
		"--- DOCUMENT CONTEXT START ---",
		p.Context,
		"--- DOCUMENT CONTEXT END ---",
		"",
		"User's question: " + strings.TrimSpace(p.Question),
	}
	if lang := strings.TrimSpace(p.Language); lang != "" {
		lines = append(lines, "Answer in "+lang+". Be concise and accurate. Cite page numbers if present in the context.")
	} else {
		lines = append(lines, "Be concise and accurate. Cite page numbers if present in the context.")
	}
	return strings.Join(lines, "\n")
}

// finalize trims model output, substituting NotFoundAnswer for empty output.
func finalize(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return NotFoundAnswer
	}
	return s
}
