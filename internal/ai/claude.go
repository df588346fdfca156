package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type claudeProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *claudeSource `json:"source,omitempty"`
}

type claudeSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeProvider) Search(ctx context.Context, topic string) (Response, error) {
	return c.call(ctx, []claudeBlock{{Type: "text", Text: searchText(topic)}})
}

func (c *claudeProvider) Research(ctx context.Context, topic string) (Response, error) {
	return c.call(ctx, []claudeBlock{{Type: "text", Text: researchText(topic)}})
}

func (c *claudeProvider) AnalyzeImage(ctx context.Context, data []byte, mime string) (Response, error) {
	return c.call(ctx, []claudeBlock{
		{Type: "image", Source: &claudeSource{Type: "base64", MediaType: mime, Data: base64.StdEncoding.EncodeToString(data)}},
		{Type: "text", Text: imageText()},
	})
}

func (c *claudeProvider) call(ctx context.Context, content []claudeBlock) (Response, error) {
	body, _ := json.Marshal(claudeRequest{
		Model:     c.model,
		MaxTokens: 4096,
		Messages:  []claudeMessage{{Role: "user", Content: content}},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("claude API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Response{}, fmt.Errorf("claude API %d: %s", resp.StatusCode, string(b))
	}

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Response{}, fmt.Errorf("decoding claude response: %w", err)
	}
	var sb strings.Builder
	for _, block := range cr.Content {
		if block.Type == "text" || block.Type == "" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return Response{}, ErrEmptyResponse
	}
	return Response{Text: sb.String()}, nil
}
