package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"mikecheck/internal/clock"
	"mikecheck/internal/community"
	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
	"mikecheck/internal/recommend"
)

var (
	ErrUnknownMode         = errors.New("unknown conversation mode")
	ErrUnknownContent      = errors.New("unknown content type")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrContactName         = errors.New("emergency contact name is required")
)

// Config controls conversation behavior.
type Config struct {
	Timings Timings
}

// Dependencies are the collaborators a Controller drives. Clock, Random,
// Events and Alerter are optional.
type Dependencies struct {
	Capture     ports.CaptureService
	Playback    ports.PlaybackService
	Tips        ports.TipStore
	Preferences ports.PreferenceStore
	Recommender ports.Recommender
	Alerter     ports.Alerter
	Events      ports.EventSink
	Clock       ports.Clock
	Random      ports.Random
}

// Controller runs the conversation state machine. Every input, whether a
// transcript, a playback callback, a timer or a UI action, is queued and
// applied one at a time by the dispatch loop.
type Controller struct {
	capture     ports.CaptureService
	playback    ports.PlaybackService
	tips        ports.TipStore
	prefs       ports.PreferenceStore
	recommender ports.Recommender
	alerter     ports.Alerter
	events      ports.EventSink
	clock       ports.Clock
	rnd         ports.Random
	cfg         Config
	logger      zerolog.Logger

	queue  eventQueue
	latest atomic.Pointer[domain.Snapshot]

	// owned by the dispatch loop
	ctx     context.Context
	session *session
	timers  timers
}

func NewController(deps Dependencies, cfg Config, logger zerolog.Logger) *Controller {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Random == nil {
		deps.Random = clock.Random{}
	}
	if deps.Events == nil {
		deps.Events = discardSink{}
	}
	cfg.Timings = cfg.Timings.withDefaults()

	c := &Controller{
		capture:     deps.Capture,
		playback:    deps.Playback,
		tips:        deps.Tips,
		prefs:       deps.Preferences,
		recommender: deps.Recommender,
		alerter:     deps.Alerter,
		events:      deps.Events,
		clock:       deps.Clock,
		rnd:         deps.Random,
		cfg:         cfg,
		logger:      logger.With().Str("component", "controller").Logger(),
		queue:       eventQueue{wake: make(chan struct{}, 1)},
		ctx:         context.Background(),
		timers:      timers{clock: deps.Clock},
	}
	c.session = newSession(c.prefs.Get().Language)
	snapshot := c.buildSnapshot()
	c.latest.Store(&snapshot)

	c.capture.SetListener(captureEvents{c})
	c.playback.SetListener(playbackEvents{c})
	return c
}

// Run dispatches queued events until ctx is done, then stops any activity.
// Only one Run may be active.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	for {
		c.drain()
		select {
		case <-ctx.Done():
			c.stop()
			c.publish()
			return ctx.Err()
		case <-c.queue.wake:
		}
	}
}

func (c *Controller) drain() {
	for {
		next, ok := c.queue.pop()
		if !ok {
			return
		}
		c.logger.Trace().Str("event", next.name).Msg("dispatch")
		next.apply()
		c.publish()
	}
}

func (c *Controller) post(name string, apply func()) {
	c.queue.push(event{name: name, apply: apply})
}

// Snapshot returns the state published after the last handled event.
func (c *Controller) Snapshot() domain.Snapshot {
	return *c.latest.Load()
}

// Listen starts listening for a wake phrase while idle.
func (c *Controller) Listen() {
	c.post("listen", c.listenForWake)
}

func (c *Controller) SelectMode(mode domain.Mode) error {
	switch mode {
	case domain.ModeIdle, domain.ModeCheckIn, domain.ModeConversation, domain.ModeEmergency:
	default:
		return ErrUnknownMode
	}
	c.post("select-mode", func() { c.selectMode(mode) })
	return nil
}

// SubmitText handles a typed or clicked reply as a final transcript.
func (c *Controller) SubmitText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.post("submit-text", func() { c.submitText(text) })
}

func (c *Controller) RequestContent(contentType domain.ContentType) error {
	if !isContentType(contentType) {
		return ErrUnknownContent
	}
	c.post("request-content", func() {
		c.stopListening()
		c.requestContent(contentType)
	})
	return nil
}

func (c *Controller) RequestCommunity() {
	c.post("request-community", func() {
		c.stopListening()
		c.requestCommunity()
	})
}

func (c *Controller) RequestEmergency() {
	c.post("request-emergency", func() {
		c.stopListening()
		c.requestEmergency()
	})
}

// SetLanguage changes the session language. An open listening turn is
// restarted in the new language.
func (c *Controller) SetLanguage(language domain.Language) error {
	if !language.Valid() {
		return ErrUnsupportedLanguage
	}
	c.post("set-language", func() {
		c.setLanguage(language)
		if c.session.listening {
			c.startListening()
		}
	})
	return nil
}

func (c *Controller) SaveEmergencyContact(name string, phone string) error {
	if strings.TrimSpace(name) == "" {
		return ErrContactName
	}
	c.post("save-contact", func() { c.saveContact(name, phone) })
	return nil
}

func (c *Controller) DismissEmergencyContact() {
	c.post("dismiss-contact", func() {
		c.timers.cancel(slotPanel)
		c.session.showContact = false
	})
}

// LikeRecommendation records the current recommendation as liked.
func (c *Controller) LikeRecommendation() {
	c.post("like", func() { c.rateRecommendation(true) })
}

// DislikeRecommendation records the current recommendation as disliked so it
// is not offered again.
func (c *Controller) DislikeRecommendation() {
	c.post("dislike", func() { c.rateRecommendation(false) })
}

// Stop ends the conversation. It is safe to call at any time.
func (c *Controller) Stop() {
	c.post("stop", c.stop)
}

// Reset stops and starts over with a fresh session.
func (c *Controller) Reset() {
	c.post("reset", c.reset)
}

func (c *Controller) stop() {
	c.timers.cancelAll()
	c.playback.Cancel()
	c.stopListening()
	c.session.clear()
	c.logger.Debug().Msg("conversation stopped")
}

func (c *Controller) reset() {
	c.stop()
	speaking := c.session.speaking
	c.session = newSession(c.prefs.Get().Language)
	c.session.speaking = speaking
}

func (c *Controller) notice(code domain.ErrorCode, detail string) {
	c.events.Notice(code, detail)
}

func (c *Controller) publish() {
	snapshot := c.buildSnapshot()
	c.latest.Store(&snapshot)
	c.events.SessionChanged(snapshot)
}

func (c *Controller) buildSnapshot() domain.Snapshot {
	s := c.session
	prefs := c.prefs.Get()

	snapshot := domain.Snapshot{
		State:                   s.state,
		Mode:                    s.mode,
		Message:                 s.message,
		Transcript:              s.transcript,
		Confidence:              s.confidence,
		Listening:               s.listening,
		Speaking:                s.speaking,
		DetectedEmotion:         s.emotion,
		EmotionConfirmed:        s.emotionConfirmed,
		SelectedContent:         s.content,
		Recommendation:          s.recommendation,
		Language:                s.language,
		CommunityTip:            s.tip,
		ShowEmergencyContact:    s.showContact,
		EmergencyContact:        prefs.EmergencyContact,
		Suggestions:             examplesFor(s.state),
		History:                 append([]domain.HistoryEntry{}, s.history...),
		RecentRecommendations:   append([]string{}, s.recent...),
		WaitingForClarification: s.waitingForClarification,
	}
	if s.emotion != "" {
		snapshot.EmotionColor = recommend.EmotionColor(s.emotion)
	}
	if s.tip != nil {
		snapshot.CommunityTipAge = community.FormatTimeSince(s.tip.Timestamp, c.clock.Now())
	}
	return snapshot
}

func isContentType(contentType domain.ContentType) bool {
	for _, known := range domain.ContentTypes {
		if known == contentType {
			return true
		}
	}
	return false
}

type event struct {
	name  string
	apply func()
}

// eventQueue is an unbounded FIFO. Pushing never blocks.
type eventQueue struct {
	mu    sync.Mutex
	items []event
	wake  chan struct{}
}

func (q *eventQueue) push(e event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) pop() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return event{}, false
	}
	next := q.items[0]
	q.items[0] = event{}
	q.items = q.items[1:]
	return next, true
}

type captureEvents struct{ c *Controller }

func (l captureEvents) CaptureUpdated(update domain.CaptureUpdate) {
	l.c.post("capture-update", func() { l.c.onTranscript(update) })
}

func (l captureEvents) CaptureFailed(code domain.ErrorCode, detail string) {
	l.c.post("capture-failed", func() { l.c.notice(code, detail) })
}

type playbackEvents struct{ c *Controller }

func (l playbackEvents) SpeakingChanged(speaking bool) {
	l.c.post("speaking", func() { l.c.session.speaking = speaking })
}

func (l playbackEvents) PlaybackFailed(detail string) {
	l.c.post("playback-failed", func() { l.c.notice(domain.ErrorCodePlayback, detail) })
}

type discardSink struct{}

func (discardSink) SessionChanged(domain.Snapshot) {}

func (discardSink) Notice(domain.ErrorCode, string) {}
