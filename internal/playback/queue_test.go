package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
)

func newTestQueue(synth ports.Synthesizer) (*Queue, *recordingListener) {
	q := NewQueue(synth, Config{Pause: time.Millisecond}, zerolog.Nop())
	listener := &recordingListener{}
	q.SetListener(listener)
	return q, listener
}

func TestQueueSpeaksInOrderWithProsody(t *testing.T) {
	t.Parallel()

	synth := &scriptedSynth{}
	q, listener := newTestQueue(synth)

	q.Speak("first", domain.StyleCalm, "en-US")
	q.Speak("  ", domain.StyleDefault, "en-US")
	q.Speak("second", domain.StyleCheerful, "hi-IN")

	require.Eventually(t, func() bool { return len(synth.spoken()) == 2 }, time.Second, time.Millisecond)
	spoken := synth.spoken()
	assert.Equal(t, "first", spoken[0].Text)
	assert.InDelta(t, 0.85, spoken[0].Rate, 1e-9)
	assert.InDelta(t, 1.0, spoken[0].Pitch, 1e-9)
	assert.Equal(t, "second", spoken[1].Text)
	assert.Equal(t, "hi-IN", spoken[1].LanguageTag)
	assert.InDelta(t, 1.2, spoken[1].Pitch, 1e-9)

	require.Eventually(t, func() bool {
		flags := listener.flags()
		return len(flags) >= 4 && !flags[len(flags)-1]
	}, time.Second, time.Millisecond)
	assert.Equal(t, []bool{true, false, true, false}, listener.flags())
}

func TestQueueNeverOverlapsUtterances(t *testing.T) {
	t.Parallel()

	synth := &scriptedSynth{delay: 2 * time.Millisecond}
	q, _ := newTestQueue(synth)
	for i := 0; i < 5; i++ {
		q.Speak("line", domain.StyleDefault, "en-US")
	}

	require.Eventually(t, func() bool { return len(synth.spoken()) == 5 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, synth.maxActive())
}

func TestQueueRequeuesInterruptedUtterance(t *testing.T) {
	t.Parallel()

	synth := &scriptedSynth{errs: []error{ports.ErrInterrupted}}
	q, listener := newTestQueue(synth)

	q.Speak("a", domain.StyleDefault, "en-US")
	q.Speak("b", domain.StyleDefault, "en-US")

	require.Eventually(t, func() bool { return len(synth.spoken()) == 3 }, time.Second, time.Millisecond)
	texts := []string{}
	for _, u := range synth.spoken() {
		texts = append(texts, u.Text)
	}
	assert.Equal(t, []string{"a", "b", "a"}, texts)
	assert.Empty(t, listener.failureList())
}

func TestQueueGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	synth := &scriptedSynth{errs: []error{ports.ErrInterrupted, ports.ErrInterrupted, ports.ErrInterrupted, ports.ErrInterrupted}}
	q, listener := newTestQueue(synth)

	q.Speak("stubborn", domain.StyleDefault, "en-US")

	require.Eventually(t, func() bool { return len(listener.failureList()) == 1 }, time.Second, time.Millisecond)
	assert.Len(t, synth.spoken(), 3)
}

func TestQueueReportsSynthesizerFailure(t *testing.T) {
	t.Parallel()

	synth := &scriptedSynth{errs: []error{errors.New("no audio device")}}
	q, listener := newTestQueue(synth)

	q.Speak("hello", domain.StyleSerious, "en-US")
	q.Speak("still here", domain.StyleDefault, "en-US")

	require.Eventually(t, func() bool { return len(synth.spoken()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"no audio device"}, listener.failureList())
}

func TestQueueCancelStopsCurrentAndClearsPending(t *testing.T) {
	t.Parallel()

	synth := &scriptedSynth{block: true}
	q, listener := newTestQueue(synth)

	q.Speak("long", domain.StyleDefault, "en-US")
	q.Speak("never", domain.StyleDefault, "en-US")
	require.Eventually(t, func() bool { return len(synth.spoken()) == 1 }, time.Second, time.Millisecond)

	q.Cancel()
	assert.Equal(t, 0, q.Pending())
	require.Eventually(t, func() bool { return synth.cancelledCount() == 1 }, time.Second, time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	assert.Len(t, synth.spoken(), 1)
	assert.Equal(t, []bool{true, false}, listener.flags())
	assert.Empty(t, listener.failureList())

	synth.setBlock(false)
	q.Speak("again", domain.StyleDefault, "en-US")
	require.Eventually(t, func() bool { return len(synth.spoken()) == 2 }, time.Second, time.Millisecond)
}

func TestQueueCancelWhenIdle(t *testing.T) {
	t.Parallel()

	q, listener := newTestQueue(&scriptedSynth{})
	q.Cancel()
	assert.Empty(t, listener.flags())
}

type scriptedSynth struct {
	mu        sync.Mutex
	utters    []domain.Utterance
	errs      []error
	delay     time.Duration
	block     bool
	active    int
	peak      int
	cancelled int
}

func (s *scriptedSynth) Speak(ctx context.Context, utterance domain.Utterance) error {
	s.mu.Lock()
	s.utters = append(s.utters, utterance)
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	var err error
	if len(s.errs) > 0 {
		err, s.errs = s.errs[0], s.errs[1:]
	}
	block, delay := s.block, s.delay
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if block {
		<-ctx.Done()
		s.mu.Lock()
		s.cancelled++
		s.mu.Unlock()
		return ctx.Err()
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (s *scriptedSynth) setBlock(block bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block = block
}

func (s *scriptedSynth) spoken() []domain.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Utterance(nil), s.utters...)
}

func (s *scriptedSynth) maxActive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

func (s *scriptedSynth) cancelledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

type recordingListener struct {
	mu       sync.Mutex
	speaking []bool
	failures []string
}

func (l *recordingListener) SpeakingChanged(speaking bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.speaking = append(l.speaking, speaking)
}

func (l *recordingListener) PlaybackFailed(detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, detail)
}

func (l *recordingListener) flags() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.speaking...)
}

func (l *recordingListener) failureList() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.failures...)
}
