package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"mikecheck/internal/domain"
)

// ErrInterrupted is returned by a Synthesizer when playback was cut off by
// something other than an explicit Cancel.
var ErrInterrupted = errors.New("playback interrupted")

// ErrNoSpeech marks a recognizer timeout caused by silence. Capture treats it
// as expected quiet rather than a failure.
var ErrNoSpeech = errors.New("no speech detected")

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	LanguageTag    string
	InterimResults bool
}

// StreamingSession is an active provider websocket session.
type StreamingSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// TranscriptionProvider starts streaming transcription sessions.
type TranscriptionProvider interface {
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}

// TextNormalizer rewrites recognized text before it is interpreted.
type TextNormalizer interface {
	Apply(text string) (string, error)
}

// CaptureListener receives capture service output.
type CaptureListener interface {
	CaptureUpdated(update domain.CaptureUpdate)
	CaptureFailed(code domain.ErrorCode, detail string)
}

// CaptureService is continuous speech-to-text with merged interim and final results.
type CaptureService interface {
	SetListener(listener CaptureListener)
	Start(ctx context.Context, languageTag string) error
	Stop() error
	Reset()
}

// PlaybackListener receives playback service output.
type PlaybackListener interface {
	SpeakingChanged(speaking bool)
	PlaybackFailed(detail string)
}

// PlaybackService queues text-to-speech output.
type PlaybackService interface {
	SetListener(listener PlaybackListener)
	Speak(text string, style domain.VoiceStyle, languageTag string)
	Cancel()
}

// Synthesizer speaks a single utterance and blocks until it finishes.
type Synthesizer interface {
	Speak(ctx context.Context, utterance domain.Utterance) error
}

// TipStore is the shared community tip collection.
type TipStore interface {
	AddTip(text string, emotion domain.Emotion, language domain.Language) (domain.Tip, error)
	RandomTip(language domain.Language, emotion domain.Emotion) (*domain.Tip, bool)
	RecentTips(limit int, language domain.Language) []domain.Tip
}

// PreferenceStore holds user preferences.
type PreferenceStore interface {
	Get() domain.Preferences
	SetLanguage(language domain.Language) error
	SetEmergencyContact(contact domain.EmergencyContact) error
	Like(contentType domain.ContentType, item string)
	Dislike(contentType domain.ContentType, item string)
}

// Recommender picks one content item for a mood.
type Recommender interface {
	Recommend(contentType domain.ContentType, emotion domain.Emotion, language domain.Language, recent []string) string
}

// Alerter notifies an emergency contact.
type Alerter interface {
	Alert(ctx context.Context, contact domain.EmergencyContact, emotion domain.Emotion) error
}

// EventSink emits conversation state to the UI.
type EventSink interface {
	SessionChanged(snapshot domain.Snapshot)
	Notice(code domain.ErrorCode, detail string)
}

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks and reports the current time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Random is the source used for every randomized choice.
type Random interface {
	IntN(n int) int
}
