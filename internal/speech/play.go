package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/gabriel-vasile/mimetype"
)

// SaveTemp writes audio to a temporary file whose extension matches the
// detected audio format, and returns its path.
func SaveTemp(audio []byte) (string, error) {
	ext := mimetype.Detect(audio).Extension()
	if ext == "" {
		ext = ".bin"
	}
	f, err := os.CreateTemp("", "novanews-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating audio file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(audio); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing audio file: %w", err)
	}
	return f.Name(), nil
}

// Play plays the audio file at path with the platform's player and waits
// for it to finish.
func Play(ctx context.Context, path string) error {
	name, args, err := playerCommand(runtime.GOOS, path, exec.LookPath)
	if err != nil {
		return err
	}
	return exec.CommandContext(ctx, name, args...).Run()
}

func playerCommand(goos, path string, lookPath func(string) (string, error)) (string, []string, error) {
	switch goos {
	case "darwin":
		return "afplay", []string{path}, nil
	case "windows":
		script := fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", path)
		return "powershell", []string{"-NoProfile", "-Command", script}, nil
	}
	candidates := [][]string{
		{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path},
		{"mpv", "--no-video", "--really-quiet", path},
		{"paplay", path},
		{"aplay", "-q", path},
	}
	for _, c := range candidates {
		if _, err := lookPath(c[0]); err == nil {
			return c[0], c[1:], nil
		}
	}
	return "", nil, fmt.Errorf("no audio player found (tried ffplay, mpv, paplay, aplay)")
}
