// Package capture turns microphone audio into merged, de-duplicated
// transcript updates for the conversation controller.
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mikecheck/internal/clock"
	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
)

var ErrNotRunning = errors.New("capture is not running")

// Config controls capture behavior.
type Config struct {
	Audio     ports.AudioConfig
	Streaming ports.StreamingConfig
	ChunkSize int
	// MinConfidence is the recognition confidence an update must exceed.
	MinConfidence float64
	// SilenceWindow is the quiet period after which the user counts as done speaking.
	SilenceWindow time.Duration
	// StopTimeout bounds how long teardown waits for the provider to flush.
	StopTimeout time.Duration
	Clock       ports.Clock
}

// Service implements ports.CaptureService. Start and Stop return
// immediately; device and network work happens on background goroutines
// and reaches the listener as updates or failures.
type Service struct {
	audio      ports.AudioCapture
	provider   ports.TranscriptionProvider
	normalizer ports.TextNormalizer
	cfg        Config
	logger     zerolog.Logger

	mu         sync.Mutex
	listener   ports.CaptureListener
	tracker    *tracker
	current    *listeningRun
	runs       uint64
	silence    ports.Timer
	silenceGen uint64
}

type listeningRun struct {
	id     uint64
	cancel context.CancelFunc
	opened chan struct{}

	// set before opened is closed
	mic    ports.AudioSession
	stream ports.StreamingSession

	eventsDone chan struct{}
	audioDone  chan struct{}
}

func NewService(
	audio ports.AudioCapture,
	provider ports.TranscriptionProvider,
	normalizer ports.TextNormalizer,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	if cfg.ChunkSize < minChunkSize {
		cfg.ChunkSize = 4096
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.6
	}
	if cfg.SilenceWindow <= 0 {
		cfg.SilenceWindow = 2 * time.Second
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 4 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	cfg.Streaming.InterimResults = true
	return &Service{
		audio:      audio,
		provider:   provider,
		normalizer: normalizer,
		cfg:        cfg,
		logger:     logger.With().Str("component", "capture").Logger(),
		tracker:    newTracker(cfg.MinConfidence),
	}
}

func (s *Service) SetListener(listener ports.CaptureListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = listener
}

// Start begins a listening turn in the given language, replacing any
// turn already in progress.
func (s *Service) Start(ctx context.Context, languageTag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	previous := s.current
	s.runs++
	run := &listeningRun{
		id:         s.runs,
		cancel:     cancel,
		opened:     make(chan struct{}),
		eventsDone: make(chan struct{}),
		audioDone:  make(chan struct{}),
	}
	s.current = run
	s.tracker.beginTurn()
	s.stopSilenceLocked()
	s.mu.Unlock()

	if previous != nil {
		go s.teardown(previous)
	}
	go s.open(runCtx, run, languageTag)
	return nil
}

// Stop ends the current turn. Results that arrive afterwards are dropped.
func (s *Service) Stop() error {
	s.mu.Lock()
	run := s.current
	s.current = nil
	s.stopSilenceLocked()
	s.mu.Unlock()

	if run == nil {
		return ErrNotRunning
	}
	go s.teardown(run)
	return nil
}

// Reset clears the merged transcript and the duplicate buffer.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.reset()
	s.stopSilenceLocked()
}

func (s *Service) open(ctx context.Context, run *listeningRun, languageTag string) {
	defer close(run.opened)

	streamCfg := s.cfg.Streaming
	streamCfg.LanguageTag = languageTag
	stream, err := s.provider.StartStreaming(ctx, streamCfg)
	if err != nil {
		s.fail(run, err)
		return
	}
	mic, err := s.audio.Start(ctx, s.cfg.Audio)
	if err != nil {
		_ = stream.Close()
		s.fail(run, err)
		return
	}

	run.mic, run.stream = mic, stream
	go s.consume(run)
	go s.pump(run)
	s.logger.Debug().Uint64("run", run.id).Str("language", languageTag).Msg("listening")
}

func (s *Service) consume(run *listeningRun) {
	defer close(run.eventsDone)

	for event := range run.stream.Events() {
		s.observe(run, event)
	}
	if err := run.stream.Wait(); err != nil {
		s.fail(run, err)
	}
}

func (s *Service) pump(run *listeningRun) {
	defer close(run.audioDone)

	err := pumpAudio(run.mic, run.stream, s.cfg.ChunkSize)
	_ = run.stream.CloseSend()
	if err != nil {
		s.fail(run, err)
	}
}

func (s *Service) observe(run *listeningRun, event domain.TranscriptEvent) {
	if s.normalizer != nil && event.Text != "" {
		if text, err := s.normalizer.Apply(event.Text); err != nil {
			s.logger.Warn().Err(err).Msg("transcript normalization failed")
		} else {
			event.Text = text
		}
	}

	s.mu.Lock()
	if s.current != run {
		s.mu.Unlock()
		return
	}
	s.stopSilenceLocked()
	update, ok := s.tracker.observe(event)
	if ok && !update.HasUserSpoken {
		s.armSilenceLocked(run)
	}
	listener := s.listener
	s.mu.Unlock()

	if ok && listener != nil {
		listener.CaptureUpdated(update)
	}
}

func (s *Service) armSilenceLocked(run *listeningRun) {
	s.silenceGen++
	gen := s.silenceGen
	s.silence = s.cfg.Clock.AfterFunc(s.cfg.SilenceWindow, func() {
		s.mu.Lock()
		if s.current != run || s.silenceGen != gen {
			s.mu.Unlock()
			return
		}
		s.silence = nil
		update, ok := s.tracker.silence()
		listener := s.listener
		s.mu.Unlock()

		if ok && listener != nil {
			listener.CaptureUpdated(update)
		}
	})
}

func (s *Service) stopSilenceLocked() {
	s.silenceGen++
	if s.silence != nil {
		s.silence.Stop()
		s.silence = nil
	}
}

// fail reports an error from the current run. Errors from replaced or
// stopped runs, cancellations and expected silence are dropped.
func (s *Service) fail(run *listeningRun, err error) {
	s.mu.Lock()
	live := s.current == run
	listener := s.listener
	s.mu.Unlock()

	if !live || errors.Is(err, context.Canceled) {
		return
	}
	if errors.Is(err, ports.ErrNoSpeech) {
		s.logger.Debug().Err(err).Msg("no speech detected")
		return
	}
	s.logger.Warn().Err(err).Uint64("run", run.id).Msg("capture failed")
	if listener != nil {
		listener.CaptureFailed(domain.ErrorCodeCapture, err.Error())
	}
}

// teardown stops a run that is no longer current.
func (s *Service) teardown(run *listeningRun) {
	run.cancel()
	<-run.opened
	if run.mic == nil {
		return
	}

	if err := run.mic.Stop(); err != nil {
		s.logger.Debug().Err(err).Msg("microphone did not stop cleanly")
	}
	_ = run.stream.CloseSend()
	if err := drainStream(run.stream, s.cfg.StopTimeout); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug().Err(err).Msg("transcription stream closed with error")
	}
	<-run.eventsDone
	<-run.audioDone
	s.logger.Debug().Uint64("run", run.id).Msg("listening stopped")
}
