package usecase

import (
	"mikecheck/internal/domain"
)

// session is the live conversation. Only the dispatch goroutine touches it.
type session struct {
	state domain.ConversationState
	mode  domain.Mode

	message       string
	transcript    string
	confidence    float64
	hasUserSpoken bool
	listening     bool
	speaking      bool

	emotion          domain.Emotion
	emotionConfirmed bool
	content          domain.ContentType
	recommendation   string
	language         domain.Language

	tip           *domain.Tip
	communityStep communityStep
	showContact   bool

	waitingForClarification bool

	history []domain.HistoryEntry
	recent  []string
}

func newSession(language domain.Language) *session {
	if !language.Valid() {
		language = domain.DefaultLanguage
	}
	return &session{
		state:    domain.StateIdle,
		mode:     domain.ModeIdle,
		language: language,
	}
}

func (s *session) record(speaker domain.Speaker, text string) {
	s.history = append(s.history, domain.HistoryEntry{Speaker: speaker, Text: text})
}

// clear drops everything tied to the current dialogue. History, language
// and recent recommendations survive.
func (s *session) clear() {
	s.state = domain.StateIdle
	s.mode = domain.ModeIdle
	s.message = ""
	s.clearTranscript()
	s.listening = false
	s.emotion = ""
	s.emotionConfirmed = false
	s.content = ""
	s.recommendation = ""
	s.tip = nil
	s.communityStep = communityChoose
	s.showContact = false
	s.waitingForClarification = false
}

func (s *session) clearTranscript() {
	s.transcript = ""
	s.confidence = 0
	s.hasUserSpoken = false
}

func (s *session) turn() turn {
	return turn{
		state:                   s.state,
		step:                    s.communityStep,
		waitingForClarification: s.waitingForClarification,
		transcript:              s.transcript,
		hasUserSpoken:           s.hasUserSpoken,
		confidence:              s.confidence,
	}
}

// emotionOrNeutral is the mood used for lookups before anything was detected.
func (s *session) emotionOrNeutral() domain.Emotion {
	if s.emotion == "" {
		return domain.EmotionNeutral
	}
	return s.emotion
}

// awaitingReply reports whether the state waits on the user with a timeout fallback.
func awaitingReply(state domain.ConversationState) bool {
	switch state {
	case domain.StateListening,
		domain.StateEmotionCheck,
		domain.StateSuggestion,
		domain.StateLanguageSelection,
		domain.StateCommunitySharing,
		domain.StateEmergencyCheck:
		return true
	}
	return false
}
