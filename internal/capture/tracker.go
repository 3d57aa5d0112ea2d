package capture

import (
	"strings"

	"mikecheck/internal/domain"
)

// tracker merges interim and final results for one listening turn and
// decides when the merged transcript is worth publishing.
type tracker struct {
	minConfidence float64

	finals      []string
	interim     string
	recent      recentFinals
	lastEmitted string
	confidence  float64
	spoken      bool
}

func newTracker(minConfidence float64) *tracker {
	return &tracker{minConfidence: minConfidence}
}

// beginTurn clears the transcript but keeps the duplicate buffer.
func (t *tracker) beginTurn() {
	t.finals = nil
	t.interim = ""
	t.lastEmitted = ""
	t.confidence = 0
	t.spoken = false
}

// reset forgets everything, including previously seen finals.
func (t *tracker) reset() {
	t.beginTurn()
	t.recent = nil
}

func (t *tracker) merged() string {
	parts := append([]string(nil), t.finals...)
	if t.interim != "" {
		parts = append(parts, t.interim)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (t *tracker) observe(event domain.TranscriptEvent) (domain.CaptureUpdate, bool) {
	text := strings.TrimSpace(event.Text)
	wasSpoken := t.spoken

	switch event.Kind {
	case domain.TranscriptKindFinal:
		if text != "" && !t.recent.matches(text) {
			t.finals = append(t.finals, text)
			t.recent = t.recent.add(text)
		}
		t.interim = ""
		if event.IsSpeechFinal {
			t.spoken = true
		}
	default:
		t.interim = text
	}

	if merged := t.merged(); merged != t.lastEmitted && event.Confidence > t.minConfidence {
		t.lastEmitted = merged
		t.confidence = event.Confidence
		return t.update(), true
	}
	if t.spoken && !wasSpoken && t.lastEmitted != "" {
		if event.Confidence > t.minConfidence {
			t.confidence = event.Confidence
		}
		return t.update(), true
	}
	return domain.CaptureUpdate{}, false
}

// silence marks the user as done speaking after a quiet period.
func (t *tracker) silence() (domain.CaptureUpdate, bool) {
	if t.spoken || t.lastEmitted == "" {
		return domain.CaptureUpdate{}, false
	}
	t.spoken = true
	return t.update(), true
}

func (t *tracker) update() domain.CaptureUpdate {
	return domain.CaptureUpdate{
		Transcript:    t.lastEmitted,
		HasUserSpoken: t.spoken,
		Confidence:    t.confidence,
	}
}
