// Package playback serializes spoken output over a Synthesizer.
package playback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
)

// Config controls queue pacing.
type Config struct {
	// Pause is the silence inserted between consecutive utterances.
	Pause time.Duration
	// MaxAttempts bounds how often an interrupted utterance is requeued.
	MaxAttempts int
}

type queued struct {
	utterance domain.Utterance
	attempts  int
}

// Queue implements ports.PlaybackService. One utterance is in flight at a
// time; later requests wait in submission order.
type Queue struct {
	synth  ports.Synthesizer
	cfg    Config
	logger zerolog.Logger

	mu        sync.Mutex
	listener  ports.PlaybackListener
	pending   []queued
	running   bool
	speaking  bool
	epoch     uint64
	current   context.CancelFunc
	cancelled chan struct{}
}

func NewQueue(synth ports.Synthesizer, cfg Config, logger zerolog.Logger) *Queue {
	if cfg.Pause < 0 {
		cfg.Pause = 0
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Queue{
		synth:  synth,
		cfg:    cfg,
		logger: logger.With().Str("component", "playback").Logger(),
	}
}

func (q *Queue) SetListener(listener ports.PlaybackListener) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listener = listener
}

// Speak enqueues text and starts draining if the queue is idle.
func (q *Queue) Speak(text string, style domain.VoiceStyle, languageTag string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	rate, pitch := style.Prosody()
	item := queued{utterance: domain.Utterance{
		Text:        text,
		Style:       style,
		LanguageTag: languageTag,
		Rate:        rate,
		Pitch:       pitch,
	}}

	q.mu.Lock()
	q.pending = append(q.pending, item)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.cancelled = make(chan struct{})
	epoch, cancelled := q.epoch, q.cancelled
	q.mu.Unlock()

	go q.drain(epoch, cancelled)
}

// Cancel drops queued utterances and stops the one in flight. It is safe to
// call when nothing is playing.
func (q *Queue) Cancel() {
	q.mu.Lock()
	q.epoch++
	q.pending = nil
	if q.current != nil {
		q.current()
		q.current = nil
	}
	if q.running {
		close(q.cancelled)
		q.running = false
	}
	notify := q.setSpeakingLocked(false)
	q.mu.Unlock()

	notify()
}

// Pending reports the number of utterances waiting behind the current one.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) drain(epoch uint64, cancelled <-chan struct{}) {
	for {
		q.mu.Lock()
		if q.epoch != epoch {
			q.mu.Unlock()
			return
		}
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		item := q.pending[0]
		q.pending = q.pending[1:]
		ctx, cancel := context.WithCancel(context.Background())
		q.current = cancel
		notify := q.setSpeakingLocked(true)
		q.mu.Unlock()
		notify()

		err := q.synth.Speak(ctx, item.utterance)
		cancel()

		q.mu.Lock()
		if q.epoch != epoch {
			q.mu.Unlock()
			return
		}
		q.current = nil
		var failure string
		switch {
		case err == nil:
		case errors.Is(err, ports.ErrInterrupted):
			item.attempts++
			if item.attempts < q.cfg.MaxAttempts {
				q.pending = append(q.pending, item)
				q.logger.Debug().Int("attempts", item.attempts).Msg("requeued interrupted utterance")
			} else {
				failure = "playback was interrupted repeatedly"
			}
		default:
			failure = err.Error()
		}
		notify = q.setSpeakingLocked(false)
		listener := q.listener
		q.mu.Unlock()
		notify()

		if failure != "" {
			q.logger.Warn().Str("detail", failure).Msg("playback failed")
			if listener != nil {
				listener.PlaybackFailed(failure)
			}
		}

		if q.cfg.Pause > 0 {
			timer := time.NewTimer(q.cfg.Pause)
			select {
			case <-timer.C:
			case <-cancelled:
				timer.Stop()
				return
			}
		}
	}
}

// setSpeakingLocked returns a callback that notifies the listener outside
// the lock when the flag actually changed.
func (q *Queue) setSpeakingLocked(speaking bool) func() {
	if q.speaking == speaking {
		return func() {}
	}
	q.speaking = speaking
	listener := q.listener
	return func() {
		if listener != nil {
			listener.SpeakingChanged(speaking)
		}
	}
}
