package index

import (
	"strings"
)

const minDocumentChars = 50

// Chunk normalizes whitespace in text, splits it into sentences and greedily
// packs consecutive sentences into chunks of fewer than maxLen characters.
// Documents shorter than minDocumentChars produce no chunks; a single
// sentence longer than maxLen becomes a chunk of its own.
func Chunk(text string, maxLen int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) < minDocumentChars {
		return nil
	}

	var chunks []string
	var cur strings.Builder
	for _, sent := range splitSentences(text) {
		if cur.Len() > 0 && cur.Len()+len(sent) >= maxLen {
			chunks = append(chunks, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(sent)
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// splitSentences breaks text after runs of terminal punctuation followed by a
// space. The trailing punctuation stays attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		if isTerminal(text[i]) && text[i+1] == ' ' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}
