package usecase

import (
	"fmt"

	"mikecheck/internal/domain"
)

var wakeGreetings = []string{
	"Hi there! How's your heart feeling today?",
	"Hey! I'm Mike. How are you doing right now?",
	"Hello! I'd love to hear how you're feeling today.",
	"Hey, it's Mike here. How's your day going?",
	"Hi! I'm here to listen. How are you feeling?",
}

const (
	msgWakeListening     = "Say 'Hey Mike' to start a conversation."
	msgCheckInGreeting   = "Hi there! I'm here to check in on how you're feeling today. Would you like to tell me about your emotional state?"
	msgConversationHello = "I'm here to chat with you. What's on your mind today?"
	msgTellMeMore        = "Would you like to tell me more about how you're feeling?"
	msgRestate           = "I'm sorry I misunderstood. Could you tell me more directly how you're feeling? For example, 'I'm feeling anxious' or 'I'm actually quite happy'"
	msgReminder          = "Would you like a playlist, podcast, book recommendation, or a mindfulness exercise? Or maybe something from the community?"
	msgClarify           = "I'd be happy to recommend something. Would you prefer music, a podcast, a book, or a mindfulness exercise?"
	msgTrySomethingElse  = "Would you like to try something else instead?"
	msgCommunityPrompt   = "Would you like to share a tip with the Voice Tribe community or hear what others have shared?"
	msgTipThanks         = "Thank you for sharing your tip with the Voice Tribe community! It may help others who are feeling similar."
	msgNoTips            = "There aren't any community tips yet. Would you like to be the first to share one?"
	msgShareDeclined     = "No worries, we won't share anything. Let's continue our conversation. Would you like a recommendation instead?"
	msgNoContact         = "You haven't set up an emergency contact yet. Would you like to do that now?"
	msgAlertCancelled    = "Okay, I won't alert anyone. Remember, I'm here to help whenever you need it. Let's continue our conversation."
	defaultContactName   = "your emergency contact"
)

var suggestionOffers = map[domain.Emotion]string{
	domain.EmotionHappy:    "Since you're feeling good, would you like an upbeat playlist, an inspiring podcast, a book recommendation, or would you like to share a tip with the Voice Tribe community?",
	domain.EmotionExcited:  "Since you're feeling good, would you like an upbeat playlist, an inspiring podcast, a book recommendation, or would you like to share a tip with the Voice Tribe community?",
	domain.EmotionSad:      "I've got some mood-lifting suggestions. Would you prefer a cheerful playlist, an uplifting podcast, a gentle mindfulness exercise, or would you like to hear what helps others in the Voice Tribe?",
	domain.EmotionStressed: "To help with stress, I can suggest a calming playlist, a relaxation exercise, a lighthearted podcast, or connect you with emergency help if needed. What would you prefer?",
	domain.EmotionCalm:     "To maintain your calm state, would you like a peaceful playlist, a mindfulness practice, a book recommendation, or would you like to share your calm techniques with the Voice Tribe?",
	domain.EmotionTired:    "For those tired moments, I can recommend a gentle energizing playlist, a short rejuvenating exercise, a podcast to keep you company, or would you like to hear what helps others with fatigue?",
}

const defaultSuggestionOffer = "I've got a few ideas to lift your spirits. Would you like to hear a funny podcast, a calming playlist, a quick mindful exercise, or connect with the Voice Tribe community?"

func suggestionOffer(emotion domain.Emotion) string {
	if offer, ok := suggestionOffers[emotion]; ok {
		return offer
	}
	return defaultSuggestionOffer
}

func confirmationQuestion(emotion domain.Emotion) string {
	return fmt.Sprintf("It sounds like you're feeling %s. Did I get that right?", emotion)
}

func languageQuestion(content domain.ContentType) string {
	return fmt.Sprintf("What language would you prefer for your %s? English, Hindi, Spanish, or something else?", content)
}

func noResponsePrompt(example string) string {
	return fmt.Sprintf("I didn't catch that. Could you tell me a bit more about how you're feeling? %s", example)
}

func tipRequest(emotion domain.Emotion) string {
	feeling := "this way"
	if emotion != "" {
		feeling = string(emotion)
	}
	return fmt.Sprintf("Please share a brief tip that might help others feeling similar to you. What works for you when you're feeling %s?", feeling)
}

func tipAnnouncement(tip domain.Tip) string {
	return fmt.Sprintf("Here's a tip from the Voice Tribe community: \"%s\"", tip.Text)
}

func emergencyQuestion(contactName string) string {
	return fmt.Sprintf("I sense you might need urgent help. Should I alert %s and share your location?", contactName)
}

func alertingContact(contactName string) string {
	return fmt.Sprintf("I'm alerting %s now. They'll receive a notification with your current location.", contactName)
}

func contactSaved(contactName string) string {
	return fmt.Sprintf("I've saved %s as your emergency contact. If you ever need urgent help, just say \"I need help now\".", contactName)
}

// replyExamples are the sample answers shown for each awaiting state.
var replyExamples = map[domain.ConversationState][]string{
	domain.StateListening: {
		"I'm feeling a bit down today",
		"I'm actually really happy right now",
		"I'm stressed about work",
		"I'm feeling tired but okay",
	},
	domain.StateEmotionCheck: {
		"Yes, that's right",
		"No, I'm actually feeling different",
		"That's partially correct",
		"I'm not sure how I feel",
	},
	domain.StateSuggestion: {
		"I'd like a playlist recommendation",
		"Do you have any book suggestions?",
		"Share something from the community",
		"I need some mindfulness exercises",
	},
	domain.StateLanguageSelection: {
		"English please",
		"Hindi",
		"Spanish",
		"French",
	},
	domain.StateCommunitySharing: {
		"I'd like to hear what others shared",
		"Here's what helps me when I'm feeling this way...",
		"I don't have anything to share right now",
		"Play a community tip",
	},
	domain.StateEmergencyCheck: {
		"Yes, please get me help",
		"No, I'm okay",
		"I just need someone to talk to",
		"Cancel emergency mode",
	},
}

func examplesFor(state domain.ConversationState) []string {
	return append([]string{}, replyExamples[state]...)
}
