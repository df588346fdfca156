package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/IDAN2468D/NovaNews/internal/speech"
	"github.com/spf13/cobra"
)

var (
	flagSpeakOut    string
	flagSpeakNoPlay bool
	flagSpeakIndex  int
)

var speakCmd = &cobra.Command{
	Use:   "speak [text]",
	Short: "Read text or a cached article aloud",
	Long: `Synthesize speech for the given text. Without text, reads the cached
article at --article (1-based) for the current topic.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		text := strings.Join(args, " ")
		if text == "" {
			articles, err := a.db.TopicArticles(a.topic())
			if err != nil {
				return fmt.Errorf("loading cached articles: %w", err)
			}
			if flagSpeakIndex < 1 || flagSpeakIndex > len(articles) {
				return fmt.Errorf("no cached article %d for %q (have %d)", flagSpeakIndex, a.topic(), len(articles))
			}
			text = speech.ArticleText(articles[flagSpeakIndex-1])
		}

		s, err := speech.New(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("speech: %w", err)
		}
		audio, err := s.Speak(ctx, speech.Truncate(text), a.cfg.Speech.Voice)
		if err != nil {
			return err
		}

		if flagSpeakOut != "" {
			if err := os.WriteFile(flagSpeakOut, audio, 0o644); err != nil {
				return fmt.Errorf("writing audio: %w", err)
			}
			fmt.Printf("Saved %s\n", flagSpeakOut)
			return nil
		}

		path, err := speech.SaveTemp(audio)
		if err != nil {
			return err
		}
		if flagSpeakNoPlay {
			fmt.Println(path)
			return nil
		}
		defer os.Remove(path)
		return speech.Play(ctx, path)
	},
}

func init() {
	speakCmd.Flags().StringVarP(&flagSpeakOut, "out", "o", "", "write audio to this file instead of playing it")
	speakCmd.Flags().BoolVar(&flagSpeakNoPlay, "no-play", false, "save to a temp file and print its path")
	speakCmd.Flags().IntVar(&flagSpeakIndex, "article", 1, "cached article to read when no text is given")
}
