package usecase

import (
	"time"

	"mikecheck/internal/ports"
)

type timerSlot int

const (
	slotResponse timerSlot = iota
	slotUserResponse
	slotClarification
	slotPanel
	slotCount
)

var slotNames = [slotCount]string{"response", "user-response", "clarification", "panel"}

func (s timerSlot) String() string { return slotNames[s] }

// Timings are the conversation delays.
type Timings struct {
	ResponsePause       time.Duration
	UserResponseTimeout time.Duration
	ClarificationHold   time.Duration
	ThinkingDelay       time.Duration
	FollowUpDelay       time.Duration
	RecommendationHold  time.Duration
	ContentPromptDelay  time.Duration
	TipHoldExtra        time.Duration
	ContactPanelHold    time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		ResponsePause:       3 * time.Second,
		UserResponseTimeout: 7 * time.Second,
		ClarificationHold:   10 * time.Second,
		ThinkingDelay:       time.Second,
		FollowUpDelay:       2 * time.Second,
		RecommendationHold:  4 * time.Second,
		ContentPromptDelay:  time.Second,
		TipHoldExtra:        2 * time.Second,
		ContactPanelHold:    3 * time.Second,
	}
}

func (t Timings) withDefaults() Timings {
	d := DefaultTimings()
	fill := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.ResponsePause, d.ResponsePause)
	fill(&t.UserResponseTimeout, d.UserResponseTimeout)
	fill(&t.ClarificationHold, d.ClarificationHold)
	fill(&t.ThinkingDelay, d.ThinkingDelay)
	fill(&t.FollowUpDelay, d.FollowUpDelay)
	fill(&t.RecommendationHold, d.RecommendationHold)
	fill(&t.ContentPromptDelay, d.ContentPromptDelay)
	fill(&t.TipHoldExtra, d.TipHoldExtra)
	fill(&t.ContactPanelHold, d.ContactPanelHold)
	return t
}

// timers holds at most one pending timer per slot. A firing only counts if
// its generation is still the slot's current one.
type timers struct {
	clock   ports.Clock
	handles [slotCount]ports.Timer
	gens    [slotCount]uint64
}

// arm replaces the slot's timer. fire receives the generation it was armed with.
func (t *timers) arm(slot timerSlot, d time.Duration, fire func(gen uint64)) {
	t.cancel(slot)
	gen := t.gens[slot]
	t.handles[slot] = t.clock.AfterFunc(d, func() { fire(gen) })
}

func (t *timers) cancel(slot timerSlot) {
	t.gens[slot]++
	if t.handles[slot] != nil {
		t.handles[slot].Stop()
		t.handles[slot] = nil
	}
}

func (t *timers) cancelAll() {
	for slot := timerSlot(0); slot < slotCount; slot++ {
		t.cancel(slot)
	}
}

// claim reports whether gen is still current and, if so, clears the slot.
func (t *timers) claim(slot timerSlot, gen uint64) bool {
	if t.gens[slot] != gen {
		return false
	}
	t.handles[slot] = nil
	t.gens[slot]++
	return true
}

func (t *timers) pending(slot timerSlot) bool {
	return t.handles[slot] != nil
}
