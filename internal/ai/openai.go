package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// openaiProvider has no search grounding, so responses carry no links.
type openaiProvider struct {
	client *openai.Client
	model  string
}

func newOpenAI(apiKey, model, baseURL string) *openaiProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openaiProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *openaiProvider) Search(ctx context.Context, topic string) (Response, error) {
	return o.call(ctx, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: searchText(topic)})
}

func (o *openaiProvider) Research(ctx context.Context, topic string) (Response, error) {
	return o.call(ctx, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: researchText(topic)})
}

func (o *openaiProvider) AnalyzeImage(ctx context.Context, data []byte, mime string) (Response, error) {
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return o.call(ctx, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: imageText()},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		},
	})
}

func (o *openaiProvider) call(ctx context.Context, msg openai.ChatCompletionMessage) (Response, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: []openai.ChatCompletionMessage{msg},
	})
	if err != nil {
		return Response{}, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Response{}, ErrEmptyResponse
	}
	return Response{Text: resp.Choices[0].Message.Content}, nil
}
