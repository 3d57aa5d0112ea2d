package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
)

const (
	defaultBaseURL     = "https://api.deepgram.com/v1"
	// silenceTimeoutCode is reported when no audio arrived within the provider window.
	silenceTimeoutCode = "NET-0001"
)

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	SmartFormat bool
	// Endpointing is the silence in milliseconds before Deepgram marks speech_final.
	Endpointing int
}

// Provider implements ports.TranscriptionProvider for Deepgram.
type Provider struct {
	cfg    Config
	logger zerolog.Logger
}

func NewProvider(cfg Config, logger zerolog.Logger) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Provider{cfg: cfg, logger: logger.With().Str("component", "deepgram").Logger()}
}

func (p *Provider) StartStreaming(ctx context.Context, cfg ports.StreamingConfig) (ports.StreamingSession, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}

	wsURL, err := listenURL(p.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Deepgram websocket: %w", err)
	}
	p.logger.Debug().Str("language", cfg.LanguageTag).Msg("streaming session opened")

	s := newSession(conn, p.logger)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

type session struct {
	conn   *websocket.Conn
	logger zerolog.Logger

	events chan domain.TranscriptEvent
	audio  chan []byte
	done   chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	sendMu     sync.RWMutex
	sendClosed bool
	closeOnce  sync.Once
}

func newSession(conn *websocket.Conn, logger zerolog.Logger) *session {
	s := &session{
		conn:   conn,
		logger: logger,
		events: make(chan domain.TranscriptEvent, 64),
		audio:  make(chan []byte, 32),
		done:   make(chan struct{}),
	}
	s.wg.Add(2)
	go s.receive()
	go s.transmit()
	go func() {
		s.wg.Wait()
		close(s.events)
		close(s.done)
		_ = conn.Close()
	}()
	return s
}

func (s *session) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.sendClosed {
		return errors.New("audio stream is already closed")
	}

	select {
	case s.audio <- append([]byte(nil), chunk...):
		return nil
	case <-s.done:
		if err := s.failure(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

func (s *session) CloseSend() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if !s.sendClosed {
		s.sendClosed = true
		close(s.audio)
	}
	return nil
}

func (s *session) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *session) Wait() error {
	<-s.done
	return s.failure()
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		// Closing the socket first unblocks a SendAudio waiting on a full buffer.
		_ = s.conn.Close()
		_ = s.CloseSend()
	})
	<-s.done
	return s.failure()
}

func (s *session) failure() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *session) fail(err error) {
	if err == nil || isNormalClose(err) {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

func (s *session) transmit() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.fail(fmt.Errorf("failed to send audio: %w", err))
			return
		}
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.fail(fmt.Errorf("failed to close stream: %w", err))
	}
}

func (s *session) receive() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.fail(fmt.Errorf("failed to read provider event: %w", err))
			return
		}

		var msg message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Debug().Err(err).Msg("skipping undecodable provider message")
			continue
		}

		event, ok, err := msg.event()
		if err != nil {
			s.emit(domain.TranscriptEvent{Kind: domain.TranscriptKindFinal, IsSpeechFinal: true})
			s.fail(err)
			return
		}
		if ok {
			s.emit(event)
		}
	}
}

func (s *session) emit(event domain.TranscriptEvent) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn().Msg("transcript event dropped, consumer is behind")
	}
}

type alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type message struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []alternative `json:"alternatives"`
	} `json:"channel"`

	Results struct {
		Channels []struct {
			Alternatives []alternative `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// event converts a provider message into a transcript event. ok is false for
// messages that carry no text.
func (m message) event() (domain.TranscriptEvent, bool, error) {
	switch {
	case strings.EqualFold(m.Type, "Error"):
		text := strings.TrimSpace(m.Message)
		if text == "" {
			text = "deepgram returned an unknown error"
		}
		if strings.Contains(text, silenceTimeoutCode) {
			return domain.TranscriptEvent{}, false, fmt.Errorf("%w: %s", ports.ErrNoSpeech, text)
		}
		return domain.TranscriptEvent{}, false, errors.New(text)
	case strings.EqualFold(m.Type, "UtteranceEnd"):
		return domain.TranscriptEvent{Kind: domain.TranscriptKindFinal, IsSpeechFinal: true}, true, nil
	}

	best, ok := m.best()
	if !ok {
		return domain.TranscriptEvent{}, false, nil
	}
	kind := domain.TranscriptKindPartial
	if m.IsFinal || m.SpeechFinal {
		kind = domain.TranscriptKindFinal
	}
	return domain.TranscriptEvent{
		Kind:          kind,
		Text:          best.Transcript,
		Confidence:    best.Confidence,
		IsSpeechFinal: m.SpeechFinal,
	}, true, nil
}

func (m message) best() (alternative, bool) {
	candidates := m.Channel.Alternatives
	if len(candidates) == 0 && len(m.Results.Channels) > 0 {
		candidates = m.Results.Channels[0].Alternatives
	}
	if len(candidates) == 0 {
		return alternative{}, false
	}
	best := candidates[0]
	best.Transcript = strings.TrimSpace(best.Transcript)
	if best.Transcript == "" {
		return alternative{}, false
	}
	return best, true
}

func listenURL(providerCfg Config, streamCfg ports.StreamingConfig) (string, error) {
	base := strings.TrimSpace(providerCfg.APIBaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	u, err := url.Parse(strings.TrimRight(base, "/") + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	if streamCfg.Encoding == "" {
		streamCfg.Encoding = "linear16"
	}
	if streamCfg.SampleRate <= 0 {
		streamCfg.SampleRate = 16000
	}
	if streamCfg.Channels <= 0 {
		streamCfg.Channels = 1
	}

	query := u.Query()
	query.Set("model", providerCfg.Model)
	query.Set("encoding", streamCfg.Encoding)
	query.Set("sample_rate", strconv.Itoa(streamCfg.SampleRate))
	query.Set("channels", strconv.Itoa(streamCfg.Channels))
	query.Set("interim_results", strconv.FormatBool(streamCfg.InterimResults))
	query.Set("smart_format", strconv.FormatBool(providerCfg.SmartFormat))
	if providerCfg.Endpointing > 0 {
		query.Set("endpointing", strconv.Itoa(providerCfg.Endpointing))
	}
	if tag := strings.TrimSpace(streamCfg.LanguageTag); tag != "" {
		query.Set("language", tag)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
