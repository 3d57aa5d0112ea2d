// Package sentiment infers an emotion from free text with weighted keyword
// and phrase heuristics.
package sentiment

import (
	"regexp"
	"sort"
	"strings"

	"mikecheck/internal/domain"
)

const (
	negationPenalty = -1.5
	neutralBonus    = 1.2
	neutralFloor    = 1.2

	baseConfidence = 0.5
	maxConfidence  = 0.95
	minScore       = 0.1
)

// Result is the classifier output.
type Result struct {
	Emotion    domain.Emotion             `json:"emotion"`
	Confidence float64                    `json:"confidence"`
	Scores     map[domain.Emotion]float64 `json:"scores"`
}

type keyword struct {
	phrase string
	weight float64
}

type pattern struct {
	re      *regexp.Regexp
	emotion domain.Emotion
	weight  float64
}

var keywords = map[domain.Emotion][]keyword{
	domain.EmotionHappy: {
		{"happy", 2}, {"joy", 2}, {"great", 1.5}, {"wonderful", 1.5}, {"excellent", 1.5},
		{"amazing", 1.5}, {"excited", 1.5}, {"love", 1.5}, {"fantastic", 1.5},
	},
	domain.EmotionSad: {
		{"sad", 2}, {"upset", 1.8}, {"depressed", 2}, {"down", 1.5}, {"miserable", 2},
		{"unhappy", 1.8}, {"hurt", 1.5}, {"pain", 1.5}, {"disappointed", 1.5},
	},
	domain.EmotionStressed: {
		{"stress", 2}, {"anxious", 2}, {"worried", 1.8}, {"overwhelmed", 2}, {"pressure", 1.5},
		{"tense", 1.5}, {"nervous", 1.5}, {"panic", 1.8}, {"fear", 1.5},
	},
	domain.EmotionCalm: {
		{"calm", 2}, {"peaceful", 2}, {"relaxed", 2}, {"serene", 1.8}, {"tranquil", 1.8},
		{"content", 1.5}, {"balanced", 1.5}, {"steady", 1.5}, {"ease", 1.5},
	},
	domain.EmotionExcited: {
		{"excited", 2}, {"thrilled", 2}, {"eager", 1.5}, {"enthusiastic", 1.8}, {"pumped", 1.5},
		{"psyched", 1.5}, {"looking forward", 1.5}, {"cant wait", 1.5},
	},
	domain.EmotionTired: {
		{"tired", 2}, {"exhausted", 2}, {"sleepy", 1.8}, {"fatigue", 1.8}, {"drained", 1.8},
		{"weary", 1.5}, {"low energy", 1.5}, {"need rest", 1.5},
	},
}

var phrasePatterns = []pattern{
	{regexp.MustCompile(`feeling good|feel good|i am good|i'm good|doing well`), domain.EmotionHappy, 1},
	{regexp.MustCompile(`feeling bad|feel bad|i am bad|i'm bad|not doing well`), domain.EmotionSad, 1},
	{regexp.MustCompile(`too much|can['’]t handle|stressed out|freaking out`), domain.EmotionStressed, 1.2},
	{regexp.MustCompile(`at peace|at ease|very calm|relaxed|chilling`), domain.EmotionCalm, 1},
	{regexp.MustCompile(`can['’]t wait|looking forward|excited about|hyped|stoked`), domain.EmotionExcited, 1},
	{regexp.MustCompile(`need sleep|no energy|exhausted|so tired|need rest`), domain.EmotionTired, 1},
}

var negations = []pattern{
	{regexp.MustCompile(`not happy|not feeling happy|don['’]t feel happy|isn['’]t happy`), domain.EmotionHappy, negationPenalty},
	{regexp.MustCompile(`not sad|not feeling sad|don['’]t feel sad|isn['’]t sad`), domain.EmotionSad, negationPenalty},
	{regexp.MustCompile(`not stressed|not feeling stressed|don['’]t feel stressed`), domain.EmotionStressed, negationPenalty},
	{regexp.MustCompile(`not calm|not feeling calm|don['’]t feel calm`), domain.EmotionCalm, negationPenalty},
	{regexp.MustCompile(`not excited|not feeling excited|don['’]t feel excited`), domain.EmotionExcited, negationPenalty},
	{regexp.MustCompile(`not tired|not feeling tired|don['’]t feel tired`), domain.EmotionTired, negationPenalty},
}

var (
	neutralIndicator = regexp.MustCompile(`fine|ok|okay|alright|doing ok|not bad|not good`)
	intensifier      = regexp.MustCompile(`(really|very|so) (good|great|bad|terrible)`)
)

// Classify returns the dominant emotion of text and a confidence in [0.5, 0.95].
func Classify(text string) Result {
	normalized := strings.ToLower(text)

	scores := make(map[domain.Emotion]float64, len(domain.Emotions))
	for _, emotion := range domain.Emotions {
		scores[emotion] = 0
	}

	for _, emotion := range domain.Emotions {
		for _, kw := range keywords[emotion] {
			if strings.Contains(normalized, kw.phrase) {
				scores[emotion] += kw.weight
			}
		}
	}

	for _, p := range phrasePatterns {
		if p.re.MatchString(normalized) {
			scores[p.emotion] += p.weight
		}
	}

	// Negations correct the accumulated score after the keyword passes.
	for _, p := range negations {
		if p.re.MatchString(normalized) {
			scores[p.emotion] += p.weight
		}
	}

	if neutralIndicator.MatchString(normalized) && !intensifier.MatchString(normalized) {
		scores[domain.EmotionNeutral] += neutralBonus
	}

	silent := true
	positive := 0.0
	for _, score := range scores {
		if score != 0 {
			silent = false
		}
		if score > 0 {
			positive += score
		}
	}
	if positive < neutralFloor {
		scores[domain.EmotionNeutral] = neutralFloor
	}

	ranked := rank(scores)
	dominant := ranked[0]

	result := Result{Emotion: dominant.emotion, Scores: scores, Confidence: baseConfidence}
	if dominant.score <= 0 {
		result.Emotion = domain.EmotionNeutral
	}
	if silent {
		return result
	}

	result.Confidence = confidence(dominant.score, ranked[1].score)
	return result
}

type ranked struct {
	emotion domain.Emotion
	score   float64
}

// rank orders scores descending; equal scores keep the fixed emotion order.
func rank(scores map[domain.Emotion]float64) []ranked {
	out := make([]ranked, 0, len(domain.Emotions))
	for _, emotion := range domain.Emotions {
		out = append(out, ranked{emotion: emotion, score: scores[emotion]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].score > out[j].score
	})
	return out
}

func confidence(top float64, second float64) float64 {
	top = max(top, minScore)
	second = max(second, minScore)

	c := min(maxConfidence, baseConfidence+(top-second)/top*0.5)
	c = min(maxConfidence, c+min(0.3, top*0.1))
	return max(0, c)
}
