package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const generationModel = "gemini-1.5-flash"

// Summarizer condenses retrieved context into a short answer using a Gemini
// generation model.
type Summarizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewSummarizer(ctx context.Context, apiKey string) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Summarizer{
		client: client,
		model:  client.GenerativeModel(generationModel),
	}, nil
}

func (s *Summarizer) Summarize(ctx context.Context, text, query string) (string, error) {
	prompt := "Summarize the following content concisely:\n\n" + text
	if query != "" {
		prompt = fmt.Sprintf("Question: %s\n\nContext: %s\n\nProvide a concise answer based only on the context.", query, text)
	}

	res, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("summary response contained no candidates")
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (s *Summarizer) Close() error {
	return s.client.Close()
}
