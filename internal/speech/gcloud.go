package speech

import (
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

const (
	gcloudLanguage     = "he-IL"
	gcloudDefaultVoice = "he-IL-Wavenet-A"
)

// gcloudSpeaker uses Cloud Text-to-Speech. Without an API key it falls
// back to application default credentials.
type gcloudSpeaker struct {
	client *texttospeech.Client
}

func newGCloud(ctx context.Context, apiKey string) (*gcloudSpeaker, error) {
	var opts []option.ClientOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating text-to-speech client: %w", err)
	}
	return &gcloudSpeaker{client: client}, nil
}

func (g *gcloudSpeaker) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: Truncate(text)},
		},
		Voice: gcloudVoice(voice),
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
	resp, err := g.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}
	if len(resp.GetAudioContent()) == 0 {
		return nil, ErrNoAudio
	}
	return resp.GetAudioContent(), nil
}

// gcloudVoice uses voice as a full voice name ("he-IL-Wavenet-B") when it
// carries a language prefix, and the default Hebrew voice otherwise.
func gcloudVoice(voice string) *texttospeechpb.VoiceSelectionParams {
	name := gcloudDefaultVoice
	lang := gcloudLanguage
	if parts := strings.SplitN(voice, "-", 3); len(parts) == 3 {
		name = voice
		lang = parts[0] + "-" + parts[1]
	}
	return &texttospeechpb.VoiceSelectionParams{LanguageCode: lang, Name: name}
}
