package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiProvider uses Gemini with Google Search grounding. Grounding
// chunk URIs become the response links.
type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, apiKey, model, baseURL string) (*geminiProvider, error) {
	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (g *geminiProvider) Search(ctx context.Context, topic string) (Response, error) {
	return g.grounded(ctx, searchText(topic))
}

func (g *geminiProvider) Research(ctx context.Context, topic string) (Response, error) {
	return g.grounded(ctx, researchText(topic))
}

func (g *geminiProvider) AnalyzeImage(ctx context.Context, data []byte, mime string) (Response, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(imageText()),
		genai.NewPartFromBytes(data, mime),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Response{}, fmt.Errorf("gemini image analysis: %w", err)
	}
	return geminiResponse(resp)
}

func (g *geminiProvider) grounded(ctx context.Context, prompt string) (Response, error) {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return Response{}, fmt.Errorf("gemini search: %w", err)
	}
	return geminiResponse(resp)
}

func geminiResponse(resp *genai.GenerateContentResponse) (Response, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return Response{}, ErrEmptyResponse
	}
	links, sources := groundingLinks(resp.Candidates[0].GroundingMetadata)
	return Response{Text: text, Links: links, Sources: sources}, nil
}

// groundingLinks returns the web chunk URIs with their titles. Grounding
// URIs are redirect links, so the title carries the publisher's domain.
func groundingLinks(md *genai.GroundingMetadata) (links, sources []string) {
	if md == nil {
		return nil, nil
	}
	for _, c := range md.GroundingChunks {
		if c != nil && c.Web != nil && c.Web.URI != "" {
			links = append(links, c.Web.URI)
			sources = append(sources, strings.TrimSpace(c.Web.Title))
		}
	}
	return links, sources
}
