package usecase

import (
	"strings"
	"unicode"

	"github.com/samber/lo"

	"mikecheck/internal/domain"
)

// A reply counts as a full statement once it is longer than
// statementMinLength and recognized above statementConfidence.
const (
	statementMinLength  = 5
	statementConfidence = 0.6
)

var wakePhrases = []string{"hey mike", "hey mic", "hey mick", "hi mike", "hi mic", "hello mike"}

type intentKind int

const (
	intentNone intentKind = iota
	intentWake
	intentStatement
	intentConfirmEmotion
	intentRestate
	intentEmergency
	intentContent
	intentCommunity
	intentClarify
	intentLanguage
	intentDeclineShare
	intentHearTip
	intentPromptTip
	intentStoreTip
	intentTriggerAlert
	intentCancelAlert
)

var intentNames = map[intentKind]string{
	intentNone:           "none",
	intentWake:           "wake",
	intentStatement:      "statement",
	intentConfirmEmotion: "confirm-emotion",
	intentRestate:        "restate",
	intentEmergency:      "emergency",
	intentContent:        "content",
	intentCommunity:      "community",
	intentClarify:        "clarify",
	intentLanguage:       "language",
	intentDeclineShare:   "decline-share",
	intentHearTip:        "hear-tip",
	intentPromptTip:      "prompt-tip",
	intentStoreTip:       "store-tip",
	intentTriggerAlert:   "trigger-alert",
	intentCancelAlert:    "cancel-alert",
}

func (k intentKind) String() string { return intentNames[k] }

type intent struct {
	kind     intentKind
	content  domain.ContentType
	language domain.Language
	text     string
}

type communityStep int

const (
	communityChoose communityStep = iota
	communityAwaitingTip
)

// turn is everything decide looks at.
type turn struct {
	state                   domain.ConversationState
	step                    communityStep
	waitingForClarification bool
	transcript              string
	hasUserSpoken           bool
	confidence              float64
}

// matcher is a case-insensitive keyword list. Phrases match as substrings,
// words only as whole tokens.
type matcher struct {
	phrases []string
	words   []string
}

func (m matcher) match(lower string, tokens []string) bool {
	return lo.SomeBy(m.phrases, func(p string) bool { return strings.Contains(lower, p) }) ||
		lo.SomeBy(m.words, func(w string) bool { return lo.Contains(tokens, w) })
}

type contentRoute struct {
	content domain.ContentType
	nouns   matcher
}

var (
	emotionDenied     = matcher{phrases: []string{"not right", "not correct", "incorrect", "wrong", "not it"}}
	emotionAffirmed   = matcher{phrases: []string{"yes", "yeah", "yep", "right", "correct", "that's it", "exactly"}}
	emotionDeniedWord = matcher{words: []string{"no", "nope", "nah"}}

	emergencyRequest = matcher{phrases: []string{"emergency", "help now", "need help"}}
	communityRequest = matcher{phrases: []string{"community", "tips", "tip", "tribe", "others"}}
	requestVerbs     = matcher{phrases: []string{"play", "recommend", "suggest"}}

	contentNouns = []contentRoute{
		{domain.ContentPlaylist, matcher{phrases: []string{"playlist", "music", "song"}}},
		{domain.ContentPodcast, matcher{phrases: []string{"podcast", "funny"}}},
		{domain.ContentMindfulness, matcher{phrases: []string{"mindful", "meditation", "exercise"}}},
		{domain.ContentBook, matcher{phrases: []string{"book", "read"}}},
	}
	extendedNouns = []contentRoute{
		{domain.ContentPlaylist, matcher{phrases: []string{"track", "melody"}}},
		{domain.ContentPodcast, matcher{phrases: []string{"show", "episode", "talk"}}},
		{domain.ContentMindfulness, matcher{phrases: []string{"breath", "relax", "calm"}}},
		{domain.ContentBook, matcher{phrases: []string{"novel", "story"}}},
	}

	languageNames = []struct {
		language domain.Language
		names    matcher
	}{
		{domain.LanguageHindi, matcher{phrases: []string{"hindi", "हिंदी"}}},
		{domain.LanguageSpanish, matcher{phrases: []string{"spanish", "español"}}},
		{domain.LanguageFrench, matcher{phrases: []string{"french", "français"}}},
		{domain.LanguageGerman, matcher{phrases: []string{"german", "deutsch"}}},
		{domain.LanguageJapanese, matcher{phrases: []string{"japanese", "日本語"}}},
		{domain.LanguageChinese, matcher{phrases: []string{"chinese", "中文"}}},
	}

	shareDeclined = matcher{phrases: []string{"don't have", "nothing", "not now", "no thanks"}, words: []string{"no"}}
	tipsHeard     = matcher{phrases: []string{"hear", "listen", "play", "others"}}
	tipShared     = matcher{phrases: []string{"share"}}

	alertCancelled = matcher{phrases: []string{"cancel", "don't"}}
	alertConfirmed = matcher{phrases: []string{"yes", "please", "help", "alert"}}
	alertDeclined  = matcher{phrases: []string{"fine", "okay", "i'm ok"}, words: []string{"no"}}
)

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func containsWakePhrase(lower string) bool {
	return lo.SomeBy(wakePhrases, func(p string) bool { return strings.Contains(lower, p) })
}

// decide maps a recognized reply to the action the current state calls for.
// The result depends only on t.
func decide(t turn) intent {
	text := strings.TrimSpace(t.transcript)
	lower := strings.ToLower(text)
	tokens := tokenize(lower)
	long := len(text) > statementMinLength

	switch t.state {
	case domain.StateIdle:
		if containsWakePhrase(lower) {
			return intent{kind: intentWake}
		}
		return intent{}
	case domain.StateListening:
		if t.hasUserSpoken && long && t.confidence > statementConfidence {
			return intent{kind: intentStatement, text: text}
		}
		return intent{}
	}

	if !t.hasUserSpoken || text == "" {
		return intent{}
	}

	switch t.state {
	case domain.StateEmotionCheck:
		switch {
		case emotionDenied.match(lower, tokens):
			return intent{kind: intentRestate}
		case emotionAffirmed.match(lower, tokens):
			return intent{kind: intentConfirmEmotion}
		case emotionDeniedWord.match(lower, tokens):
			return intent{kind: intentRestate}
		case long:
			return intent{kind: intentStatement, text: text}
		}
	case domain.StateSuggestion:
		return decideSuggestion(lower, tokens)
	case domain.StateLanguageSelection:
		return intent{kind: intentLanguage, language: languageFor(lower)}
	case domain.StateCommunitySharing:
		if t.step == communityAwaitingTip {
			if long {
				return intent{kind: intentStoreTip, text: text}
			}
			return intent{}
		}
		switch {
		case shareDeclined.match(lower, tokens):
			return intent{kind: intentDeclineShare}
		case tipsHeard.match(lower, tokens):
			return intent{kind: intentHearTip}
		case tipShared.match(lower, tokens):
			return intent{kind: intentPromptTip}
		case long && !t.waitingForClarification:
			return intent{kind: intentStoreTip, text: text}
		}
	case domain.StateEmergencyCheck:
		switch {
		case alertCancelled.match(lower, tokens):
			return intent{kind: intentCancelAlert}
		case alertConfirmed.match(lower, tokens):
			return intent{kind: intentTriggerAlert}
		case alertDeclined.match(lower, tokens):
			return intent{kind: intentCancelAlert}
		}
	}
	return intent{}
}

func decideSuggestion(lower string, tokens []string) intent {
	if emergencyRequest.match(lower, tokens) {
		return intent{kind: intentEmergency}
	}
	if route, ok := firstRoute(contentNouns, lower, tokens); ok {
		return intent{kind: intentContent, content: route.content}
	}
	if communityRequest.match(lower, tokens) {
		return intent{kind: intentCommunity}
	}
	if !requestVerbs.match(lower, tokens) {
		return intent{}
	}
	if route, ok := firstRoute(extendedNouns, lower, tokens); ok {
		return intent{kind: intentContent, content: route.content}
	}
	return intent{kind: intentClarify}
}

func firstRoute(routes []contentRoute, lower string, tokens []string) (contentRoute, bool) {
	return lo.Find(routes, func(r contentRoute) bool { return r.nouns.match(lower, tokens) })
}

func languageFor(lower string) domain.Language {
	tokens := tokenize(lower)
	for _, candidate := range languageNames {
		if candidate.names.match(lower, tokens) {
			return candidate.language
		}
	}
	return domain.LanguageEnglish
}
