package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	jinaBaseURL   = "https://api.jina.ai/v1/rerank"
	cohereBaseURL = "https://api.cohere.ai/v1/rerank"

	jinaModel   = "jina-reranker-v1-base-en"
	cohereModel = "rerank-english-v3.0"
)

// Client scores documents against a query using a hosted rerank API. The
// provider selects the wire format: "jina" and "cohere" are supported, any
// other value yields neutral zero scores so retrieval can proceed on fused
// ordering alone.
type Client struct {
	provider string
	apiKey   string
	baseURL  string
	http     *http.Client
}

func NewClient(provider, apiKey string) *Client {
	c := &Client{
		provider: provider,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
	switch provider {
	case "jina":
		c.baseURL = jinaBaseURL
	case "cohere":
		c.baseURL = cohereBaseURL
	}
	return c
}

// SetBaseURL overrides the provider endpoint. Intended for tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score returns one relevance score per document, in document order.
// Documents absent from the provider response keep a zero score.
func (c *Client) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	scores := make([]float64, len(docs))
	if len(docs) == 0 {
		return scores, nil
	}
	if c.baseURL == "" {
		return scores, nil
	}

	model := jinaModel
	if c.provider == "cohere" {
		model = cohereModel
	}

	payload, err := json.Marshal(rerankRequest{
		Model:     model,
		Query:     query,
		Documents: docs,
		TopN:      len(docs),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rerank response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s api error: %d: %s", c.provider, res.StatusCode, string(body))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	for _, r := range parsed.Results {
		if r.Index >= 0 && r.Index < len(scores) {
			scores[r.Index] = r.RelevanceScore
		}
	}
	return scores, nil
}
