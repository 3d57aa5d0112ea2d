// Package tts speaks utterances through the espeak-ng command line synthesizer.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
)

const (
	baseWordsPerMinute = 175
	basePitch          = 50
)

var voices = map[string]string{
	"en": "en-us",
	"hi": "hi",
	"es": "es",
	"fr": "fr",
	"de": "de",
	"ja": "ja",
	"zh": "cmn",
}

// Espeak implements ports.Synthesizer by running one espeak-ng process per
// utterance.
type Espeak struct {
	command string
	logger  zerolog.Logger
}

func NewEspeak(command string, logger zerolog.Logger) *Espeak {
	if command == "" {
		command = "espeak-ng"
	}
	return &Espeak{command: command, logger: logger.With().Str("component", "tts").Logger()}
}

// Speak blocks until the utterance finishes. A cancelled context returns
// ctx.Err(); a process killed from outside returns ports.ErrInterrupted.
func (e *Espeak) Speak(ctx context.Context, utterance domain.Utterance) error {
	text := strings.TrimSpace(utterance.Text)
	if text == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, e.command, buildArgs(utterance)...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug().
		Str("voice", voiceFor(utterance.LanguageTag)).
		Str("style", string(utterance.Style)).
		Int("chars", len(text)).
		Msg("speaking")

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return ports.ErrInterrupted
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return fmt.Errorf("espeak-ng failed: %w", err)
		}
		return fmt.Errorf("espeak-ng failed: %w: %s", err, detail)
	}
	return fmt.Errorf("failed to run espeak-ng: %w", err)
}

func buildArgs(utterance domain.Utterance) []string {
	rate := utterance.Rate
	if rate <= 0 {
		rate = 1
	}
	pitch := utterance.Pitch
	if pitch <= 0 {
		pitch = 1
	}
	wpm := int(math.Round(baseWordsPerMinute * rate))
	p := min(99, int(math.Round(basePitch*pitch)))

	return []string{
		"-v", voiceFor(utterance.LanguageTag),
		"-s", strconv.Itoa(wpm),
		"-p", strconv.Itoa(p),
		"--stdin",
	}
}

// voiceFor maps a BCP 47 tag such as "hi-IN" to an espeak-ng voice name.
func voiceFor(languageTag string) string {
	primary, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(languageTag)), "-")
	if voice, ok := voices[primary]; ok {
		return voice
	}
	return voices["en"]
}
