package domain

import "time"

// ConversationState models the dialogue lifecycle.
type ConversationState string

const (
	StateIdle              ConversationState = "idle"
	StateGreeting          ConversationState = "greeting"
	StateListening         ConversationState = "listening"
	StateProcessing        ConversationState = "processing"
	StateEmotionCheck      ConversationState = "emotion-check"
	StateSuggestion        ConversationState = "suggestion"
	StateLanguageSelection ConversationState = "language-selection"
	StateContentSelection  ConversationState = "content-selection"
	StateCommunitySharing  ConversationState = "community-sharing"
	StateEmergencyCheck    ConversationState = "emergency-check"
)

// Mode is the coarse category of a session.
type Mode string

const (
	ModeIdle         Mode = "idle"
	ModeCheckIn      Mode = "check-in"
	ModeConversation Mode = "conversation"
	ModeEmergency    Mode = "emergency"
)

// Emotion is one of the seven classifier outputs.
type Emotion string

const (
	EmotionHappy    Emotion = "happy"
	EmotionSad      Emotion = "sad"
	EmotionStressed Emotion = "stressed"
	EmotionCalm     Emotion = "calm"
	EmotionExcited  Emotion = "excited"
	EmotionTired    Emotion = "tired"
	EmotionNeutral  Emotion = "neutral"
)

// Emotions lists every emotion in classifier tie-break order.
var Emotions = []Emotion{
	EmotionHappy,
	EmotionSad,
	EmotionStressed,
	EmotionCalm,
	EmotionExcited,
	EmotionTired,
	EmotionNeutral,
}

// Valid reports whether e is part of the fixed emotion set.
func (e Emotion) Valid() bool {
	for _, known := range Emotions {
		if e == known {
			return true
		}
	}
	return false
}

// ContentType is a recommendation category.
type ContentType string

const (
	ContentPlaylist    ContentType = "playlist"
	ContentPodcast     ContentType = "podcast"
	ContentMindfulness ContentType = "mindfulness"
	ContentBook        ContentType = "book"
)

// ContentTypes lists the categories in routing priority order.
var ContentTypes = []ContentType{ContentPlaylist, ContentPodcast, ContentMindfulness, ContentBook}

// Language is a short language preference code.
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageHindi    Language = "hi"
	LanguageSpanish  Language = "es"
	LanguageFrench   Language = "fr"
	LanguageGerman   Language = "de"
	LanguageJapanese Language = "ja"
	LanguageChinese  Language = "zh"
)

// DefaultLanguage is used whenever no preference applies.
const DefaultLanguage = LanguageEnglish

var languageTags = map[Language]string{
	LanguageEnglish:  "en-US",
	LanguageHindi:    "hi-IN",
	LanguageSpanish:  "es-ES",
	LanguageFrench:   "fr-FR",
	LanguageGerman:   "de-DE",
	LanguageJapanese: "ja-JP",
	LanguageChinese:  "zh-CN",
}

// Tag returns the BCP 47 tag used by capture and playback.
func (l Language) Tag() string {
	if tag, ok := languageTags[l]; ok {
		return tag
	}
	return languageTags[DefaultLanguage]
}

// Valid reports whether l is a supported preference.
func (l Language) Valid() bool {
	_, ok := languageTags[l]
	return ok
}

// VoiceStyle selects prosody for spoken output.
type VoiceStyle string

const (
	StyleDefault  VoiceStyle = "default"
	StyleCalm     VoiceStyle = "calm"
	StyleCheerful VoiceStyle = "cheerful"
	StyleSerious  VoiceStyle = "serious"
)

// Prosody returns the relative rate and pitch for a style.
func (s VoiceStyle) Prosody() (rate float64, pitch float64) {
	switch s {
	case StyleCalm:
		return 0.85, 1.0
	case StyleCheerful:
		return 1.1, 1.2
	case StyleSerious:
		return 0.95, 0.8
	default:
		return 1.0, 1.0
	}
}

// Utterance is one queued playback request.
type Utterance struct {
	Text        string     `json:"text"`
	Style       VoiceStyle `json:"style"`
	LanguageTag string     `json:"languageTag"`
	Rate        float64    `json:"rate"`
	Pitch       float64    `json:"pitch"`
}

// Speaker identifies who said a history line.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// HistoryEntry is one line of the conversation transcript.
type HistoryEntry struct {
	Speaker Speaker `json:"type"`
	Text    string  `json:"text"`
}

// Tip is a community-shared coping strategy. Tips are immutable once created.
type Tip struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Emotion   Emotion   `json:"emotion"`
	Language  Language  `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// EmergencyContact is the person alerted on an emergency request.
type EmergencyContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Preferences holds user choices that outlive a single dialogue.
type Preferences struct {
	Language         Language                 `json:"language"`
	EmergencyContact *EmergencyContact        `json:"emergencyContact,omitempty"`
	LikedContent     map[ContentType][]string `json:"likedContent"`
	DislikedContent  map[ContentType][]string `json:"dislikedContent"`
}

// TranscriptKind identifies whether a stream event is partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent represents incremental transcription output from a provider.
type TranscriptEvent struct {
	Kind          TranscriptKind `json:"kind"`
	Text          string         `json:"text"`
	Confidence    float64        `json:"confidence"`
	IsSpeechFinal bool           `json:"isSpeechFinal"`
}

// CaptureUpdate is the merged recognition state published by the capture service.
type CaptureUpdate struct {
	Transcript    string  `json:"transcript"`
	HasUserSpoken bool    `json:"hasUserSpoken"`
	Confidence    float64 `json:"confidence"`
}

// ErrorCode identifies non-fatal backend notices.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeCapture     ErrorCode = "capture"
	ErrorCodePlayback    ErrorCode = "playback"
	ErrorCodeAlert       ErrorCode = "alert"
	ErrorCodePreferences ErrorCode = "preferences"
	ErrorCodeStorage     ErrorCode = "storage"
	ErrorCodeInput       ErrorCode = "input"
)

// Snapshot is the UI-facing view of a conversation session.
type Snapshot struct {
	State                   ConversationState `json:"state"`
	Mode                    Mode              `json:"mode"`
	Message                 string            `json:"message"`
	Transcript              string            `json:"transcript"`
	Confidence              float64           `json:"confidence"`
	Listening               bool              `json:"listening"`
	Speaking                bool              `json:"speaking"`
	DetectedEmotion         Emotion           `json:"detectedEmotion,omitempty"`
	EmotionConfirmed        bool              `json:"emotionConfirmed"`
	EmotionColor            string            `json:"emotionColor,omitempty"`
	SelectedContent         ContentType       `json:"selectedContent,omitempty"`
	Recommendation          string            `json:"recommendation,omitempty"`
	Language                Language          `json:"language"`
	CommunityTip            *Tip              `json:"communityTip,omitempty"`
	CommunityTipAge         string            `json:"communityTipAge,omitempty"`
	ShowEmergencyContact    bool              `json:"showEmergencyContact"`
	EmergencyContact        *EmergencyContact `json:"emergencyContact,omitempty"`
	Suggestions             []string          `json:"suggestions"`
	History                 []HistoryEntry    `json:"history"`
	RecentRecommendations   []string          `json:"recentRecommendations"`
	WaitingForClarification bool              `json:"waitingForClarification"`
}
