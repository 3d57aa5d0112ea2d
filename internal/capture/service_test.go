package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
)

const waitFor = time.Second

func newTestService(t *testing.T, provider *fakeProvider, normalizer ports.TextNormalizer) (*Service, *recordingListener, *manualClock) {
	t.Helper()
	clk := &manualClock{}
	svc := NewService(&fakeMicrophone{}, provider, normalizer, Config{Clock: clk, StopTimeout: 50 * time.Millisecond}, zerolog.Nop())
	listener := &recordingListener{}
	svc.SetListener(listener)
	return svc, listener, clk
}

func partial(text string, confidence float64) domain.TranscriptEvent {
	return domain.TranscriptEvent{Kind: domain.TranscriptKindPartial, Text: text, Confidence: confidence}
}

func final(text string, confidence float64, speechFinal bool) domain.TranscriptEvent {
	return domain.TranscriptEvent{Kind: domain.TranscriptKindFinal, Text: text, Confidence: confidence, IsSpeechFinal: speechFinal}
}

func TestServiceMergesInterimAndFinalResults(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	svc, listener, _ := newTestService(t, provider, nil)
	require.NoError(t, svc.Start(context.Background(), "hi-IN"))

	stream := provider.waitStream(t)
	assert.Equal(t, "hi-IN", provider.lastConfig().LanguageTag)
	assert.True(t, provider.lastConfig().InterimResults)

	stream.push(partial("i am", 0.9))
	stream.push(final("i am really stressed", 0.85, false))
	stream.push(partial("about work", 0.8))
	stream.push(final("about work", 0.82, true))

	require.Eventually(t, func() bool { return len(listener.updateList()) == 4 }, waitFor, time.Millisecond)
	updates := listener.updateList()
	assert.Equal(t, "i am", updates[0].Transcript)
	assert.Equal(t, "i am really stressed about work", updates[2].Transcript)
	assert.False(t, updates[2].HasUserSpoken)
	last := updates[3]
	assert.Equal(t, "i am really stressed about work", last.Transcript)
	assert.True(t, last.HasUserSpoken)
	assert.InDelta(t, 0.82, last.Confidence, 1e-9)
}

func TestServiceGatesOnConfidence(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	svc, listener, _ := newTestService(t, provider, nil)
	require.NoError(t, svc.Start(context.Background(), "en-US"))
	stream := provider.waitStream(t)

	stream.push(partial("mumble", 0.4))
	stream.push(partial("mumble", 0.6))
	stream.push(partial("hello there", 0.7))

	require.Eventually(t, func() bool { return len(listener.updateList()) == 1 }, waitFor, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	require.Len(t, listener.updateList(), 1)
	assert.Equal(t, "hello there", listener.updateList()[0].Transcript)
}

func TestServiceDropsNearDuplicateFinals(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	svc, listener, _ := newTestService(t, provider, nil)
	require.NoError(t, svc.Start(context.Background(), "en-US"))
	stream := provider.waitStream(t)

	stream.push(final("i feel tired today", 0.9, false))
	stream.push(final("I feel tired today.", 0.9, false))
	stream.push(final("tired today", 0.9, false))
	stream.push(final("and a bit sad", 0.9, true))

	require.Eventually(t, func() bool {
		updates := listener.updateList()
		return len(updates) > 0 && updates[len(updates)-1].HasUserSpoken
	}, waitFor, time.Millisecond)
	updates := listener.updateList()
	assert.Equal(t, "i feel tired today and a bit sad", updates[len(updates)-1].Transcript)
}

func TestServiceSilenceMarksUserSpoken(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	svc, listener, clk := newTestService(t, provider, nil)
	require.NoError(t, svc.Start(context.Background(), "en-US"))
	stream := provider.waitStream(t)

	stream.push(partial("i got a promotion", 0.9))
	require.Eventually(t, func() bool { return len(listener.updateList()) == 1 }, waitFor, time.Millisecond)
	assert.False(t, listener.updateList()[0].HasUserSpoken)
	require.Equal(t, 2*time.Second, clk.lastDelay())

	clk.fireAll()
	updates := listener.updateList()
	require.Len(t, updates, 2)
	assert.True(t, updates[1].HasUserSpoken)
	assert.Equal(t, "i got a promotion", updates[1].Transcript)
}

func TestServiceStopDropsLateResults(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	svc, listener, clk := newTestService(t, provider, nil)
	require.NoError(t, svc.Start(context.Background(), "en-US"))
	stream := provider.waitStream(t)

	stream.push(partial("hello mike", 0.9))
	require.Eventually(t, func() bool { return len(listener.updateList()) == 1 }, waitFor, time.Millisecond)

	require.NoError(t, svc.Stop())
	assert.ErrorIs(t, svc.Stop(), ErrNotRunning)
	clk.fireAll()

	stream.push(final("stray words", 0.9, true))
	require.Eventually(t, stream.isClosed, waitFor, time.Millisecond)
	assert.Len(t, listener.updateList(), 1)
}

func TestServiceRestartBeginsFreshTurn(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	svc, listener, _ := newTestService(t, provider, nil)
	require.NoError(t, svc.Start(context.Background(), "en-US"))
	first := provider.waitStream(t)
	first.push(final("yes", 0.9, true))
	require.Eventually(t, func() bool { return len(listener.updateList()) == 1 }, waitFor, time.Millisecond)

	svc.Reset()
	require.NoError(t, svc.Start(context.Background(), "en-US"))
	second := provider.waitStream(t)
	require.Eventually(t, first.isClosed, waitFor, time.Millisecond)

	second.push(final("yes", 0.9, true))
	require.Eventually(t, func() bool { return len(listener.updateList()) == 2 }, waitFor, time.Millisecond)
	assert.Equal(t, "yes", listener.updateList()[1].Transcript)
}

func TestServiceReportsFailuresButNotSilence(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.startErr = fmt.Errorf("dial: %w", ports.ErrNoSpeech)
	svc, listener, _ := newTestService(t, provider, nil)
	require.NoError(t, svc.Start(context.Background(), "en-US"))
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, listener.failureList())

	provider.setStartErr(errors.New("connection refused"))
	require.NoError(t, svc.Start(context.Background(), "en-US"))
	require.Eventually(t, func() bool { return len(listener.failureList()) == 1 }, waitFor, time.Millisecond)
	assert.Contains(t, listener.failureList()[0], "connection refused")
}

func TestServiceAppliesNormalizer(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	svc, listener, _ := newTestService(t, provider, upperNormalizer{})
	require.NoError(t, svc.Start(context.Background(), "en-US"))
	stream := provider.waitStream(t)

	stream.push(final("hey mic", 0.9, true))
	require.Eventually(t, func() bool { return len(listener.updateList()) == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, "HEY MIC", listener.updateList()[0].Transcript)
}

func TestServiceStartWithCancelledContext(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, newFakeProvider(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.Start(ctx, "en-US"), context.Canceled)
}

func TestNearDuplicate(t *testing.T) {
	t.Parallel()

	assert.True(t, nearDuplicate("hello", "hello"))
	assert.True(t, nearDuplicate("Hello there", "hello"))
	assert.True(t, nearDuplicate("i feel great today", "i feel great todya"))
	assert.False(t, nearDuplicate("i feel great", "i feel awful"))
	assert.True(t, nearDuplicate("", ""))
}

func TestRecentFinalsBounded(t *testing.T) {
	t.Parallel()

	var recent recentFinals
	for i := 0; i < 15; i++ {
		recent = recent.add(fmt.Sprintf("utterance number %c", 'a'+i))
	}
	assert.Len(t, recent, recentLimit)
	assert.False(t, recent.matches("something else entirely different"))
	assert.True(t, recent.matches("utterance number o"))
}

func TestPumpAudioStopsOnSendFailure(t *testing.T) {
	t.Parallel()

	mic := &readerMicrophone{Reader: strings.NewReader("pcm data")}
	err := pumpAudio(mic, &failingStream{}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stream audio")

	stream := newFakeStream()
	require.NoError(t, pumpAudio(&readerMicrophone{Reader: strings.NewReader("pcm data")}, stream, 0))
	assert.Equal(t, "pcm data", stream.sent())
}

// fakes

type upperNormalizer struct{}

func (upperNormalizer) Apply(text string) (string, error) { return strings.ToUpper(text), nil }

type recordingListener struct {
	mu       sync.Mutex
	updates  []domain.CaptureUpdate
	failures []string
}

func (l *recordingListener) CaptureUpdated(update domain.CaptureUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, update)
}

func (l *recordingListener) CaptureFailed(_ domain.ErrorCode, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, detail)
}

func (l *recordingListener) updateList() []domain.CaptureUpdate {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.CaptureUpdate(nil), l.updates...)
}

func (l *recordingListener) failureList() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.failures...)
}

type fakeProvider struct {
	mu       sync.Mutex
	startErr error
	configs  []ports.StreamingConfig
	streams  chan *fakeStream
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{streams: make(chan *fakeStream, 4)}
}

func (p *fakeProvider) setStartErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startErr = err
}

func (p *fakeProvider) StartStreaming(_ context.Context, cfg ports.StreamingConfig) (ports.StreamingSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configs = append(p.configs, cfg)
	if p.startErr != nil {
		return nil, p.startErr
	}
	stream := newFakeStream()
	p.streams <- stream
	return stream, nil
}

func (p *fakeProvider) lastConfig() ports.StreamingConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.configs[len(p.configs)-1]
}

func (p *fakeProvider) waitStream(t *testing.T) *fakeStream {
	t.Helper()
	select {
	case stream := <-p.streams:
		return stream
	case <-time.After(waitFor):
		t.Fatalf("stream was not opened")
		return nil
	}
}

type fakeStream struct {
	events chan domain.TranscriptEvent
	done   chan struct{}

	mu     sync.Mutex
	audio  strings.Builder
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan domain.TranscriptEvent, 16), done: make(chan struct{})}
}

// push delivers a provider event unless the stream was already closed.
func (s *fakeStream) push(event domain.TranscriptEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.events <- event
	}
}

func (s *fakeStream) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio.Write(chunk)
	return nil
}

func (s *fakeStream) CloseSend() error { return nil }

func (s *fakeStream) Events() <-chan domain.TranscriptEvent { return s.events }

func (s *fakeStream) Wait() error {
	<-s.done
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
		close(s.done)
	}
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) sent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio.String()
}

type failingStream struct{ fakeStream }

func (*failingStream) SendAudio([]byte) error { return errors.New("socket closed") }

type fakeMicrophone struct{}

func (fakeMicrophone) Start(context.Context, ports.AudioConfig) (ports.AudioSession, error) {
	return &blockingMicrophone{stop: make(chan struct{})}, nil
}

type blockingMicrophone struct {
	stop chan struct{}
	once sync.Once
}

func (m *blockingMicrophone) Read([]byte) (int, error) {
	<-m.stop
	return 0, io.EOF
}

func (m *blockingMicrophone) Stop() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *blockingMicrophone) Close() error { return m.Stop() }

type readerMicrophone struct{ io.Reader }

func (*readerMicrophone) Stop() error  { return nil }
func (*readerMicrophone) Close() error { return nil }

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) Now() time.Time { return time.Time{} }

func (c *manualClock) AfterFunc(d time.Duration, f func()) ports.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &manualTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *manualClock) lastDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return 0
	}
	return c.timers[len(c.timers)-1].delay
}

// fireAll runs every pending timer that has not been stopped.
func (c *manualClock) fireAll() {
	c.mu.Lock()
	var due []func()
	for _, timer := range c.timers {
		if !timer.stopped {
			timer.stopped = true
			due = append(due, timer.fn)
		}
	}
	c.timers = nil
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}
