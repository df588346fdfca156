package speech

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	geminiTTSModel = "gemini-2.5-flash-preview-tts"
	defaultVoice   = "Kore"

	// Gemini TTS returns raw 16-bit mono PCM at 24kHz.
	pcmSampleRate = 24000
)

type geminiSpeaker struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, apiKey, baseURL string) (*geminiSpeaker, error) {
	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiSpeaker{client: client, model: geminiTTSModel}, nil
}

func (g *geminiSpeaker) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = defaultVoice
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(Truncate(text)), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini speech: %w", err)
	}
	pcm := inlineAudio(resp)
	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}
	return WAV(pcm, pcmSampleRate), nil
}

func inlineAudio(resp *genai.GenerateContentResponse) []byte {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var pcm []byte
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.InlineData != nil {
			pcm = append(pcm, p.InlineData.Data...)
		}
	}
	return pcm
}
