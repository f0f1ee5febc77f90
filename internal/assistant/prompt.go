package assistant

import (
	"fmt"
	"strings"
)

const promptTemplate = `Please provide helpful legal information based on the following context and user question.

Relevant Legal Context:
%s

%s

Current User Question: %s

Please provide a clear, informative response that addresses the user's legal question. Include a disclaimer that this is not legal advice. Use **bold** text for important terms and section headers to improve readability.`

// BuildPrompt assembles the generation prompt. conversation may be empty,
// in which case its slot is left blank.
func BuildPrompt(searchContext, conversation, message string) string {
	return fmt.Sprintf(promptTemplate, searchContext, conversation, message)
}

// ChunkWords splits text on whitespace and regroups it into pieces of size
// words joined by single spaces. The last piece may be shorter.
func ChunkWords(text string, size int) []string {
	if size <= 0 {
		size = 1
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
