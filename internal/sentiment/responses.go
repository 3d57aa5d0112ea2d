package sentiment

import (
	"mikecheck/internal/domain"
	"mikecheck/internal/ports"
)

var responses = map[domain.Emotion][]string{
	domain.EmotionHappy: {
		"You sound joyful! That's wonderful to hear.",
		"I can hear the happiness in your voice. That's great!",
		"You seem to be in good spirits today!",
		"Your positive energy is coming through clearly.",
	},
	domain.EmotionSad: {
		"I hear that you might be feeling down.",
		"You sound a bit sad. Would you like to talk about it?",
		"I'm sensing some sadness in your voice.",
		"It sounds like today might be a bit tough for you.",
	},
	domain.EmotionStressed: {
		"I sense some tension in your voice.",
		"You sound like you might be under some pressure.",
		"I can tell things might be stressful for you right now.",
		"You seem to have a lot on your mind.",
	},
	domain.EmotionCalm: {
		"You sound peaceful and centered.",
		"I'm picking up on a sense of calmness in your voice.",
		"You seem to be in a peaceful state of mind.",
		"There's a tranquil quality to your voice right now.",
	},
	domain.EmotionExcited: {
		"You sound really enthusiastic!",
		"I can hear the excitement in your voice!",
		"You seem energized about something!",
		"Your excitement is coming through loud and clear!",
	},
	domain.EmotionTired: {
		"You sound like you could use some rest.",
		"I notice you might be feeling tired.",
		"Your voice suggests you might be low on energy.",
		"You seem a bit fatigued right now.",
	},
	domain.EmotionNeutral: {
		"Thanks for sharing. I'd like to understand more about how you're feeling.",
		"I appreciate you talking with me. How else are you feeling?",
		"I'm listening. Could you tell me more about your mood?",
		"I'm here to chat. Would you like to share more about how your day is going?",
	},
}

var examples = map[domain.Emotion]string{
	domain.EmotionHappy:    "For example, you could say 'I'm feeling great today because I got a promotion at work!'",
	domain.EmotionSad:      "For example, you might say 'I'm feeling down today because I miss my friends.'",
	domain.EmotionStressed: "For example, you could say 'I'm feeling overwhelmed with all the deadlines this week.'",
	domain.EmotionCalm:     "For example, you might say 'I'm feeling peaceful after my meditation session.'",
	domain.EmotionExcited:  "For example, you could say 'I'm so excited about my upcoming vacation!'",
	domain.EmotionTired:    "For example, you might say 'I'm exhausted after working late all week.'",
	domain.EmotionNeutral:  "For example, you could say 'I'm feeling okay, just a regular day.'",
}

// Response picks an acknowledgement phrase for emotion.
func Response(emotion domain.Emotion, rnd ports.Random) string {
	options, ok := responses[emotion]
	if !ok {
		options = responses[domain.EmotionNeutral]
	}
	return options[rnd.IntN(len(options))]
}

// Example returns a sample sentence a user could say for emotion.
func Example(emotion domain.Emotion) string {
	if example, ok := examples[emotion]; ok {
		return example
	}
	return examples[domain.EmotionNeutral]
}
