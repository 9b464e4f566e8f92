package retrieval

import "strings"

// Chunk splits text into overlapping word windows of size words, consecutive
// windows sharing overlap words. A text of at most size words comes back as a
// single chunk equal to text, original spacing included.
func Chunk(text string, size, overlap int) ([]string, error) {
	if err := validateWindow(size, overlap); err != nil {
		return nil, err
	}
	return chunkWords(text, size, overlap), nil
}

// chunkWords assumes size > overlap >= 0.
func chunkWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) <= size {
		return []string{text}
	}

	step := size - overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for i := 0; i < len(words); i += step {
		end := min(i+size, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
