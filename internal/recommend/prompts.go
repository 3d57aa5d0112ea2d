package recommend

import "mikecheck/internal/domain"

const genericPrompt = "What specific type of content would you prefer?"

var contentPrompts = map[domain.ContentType]map[domain.Language]string{
	domain.ContentPlaylist: {
		domain.LanguageEnglish: "What kind of music do you enjoy? For example, pop, rock, jazz, or classical?",
		domain.LanguageHindi:   "आप किस प्रकार का संगीत पसंद करते हैं? उदाहरण के लिए, पॉप, रॉक, जैज़, या क्लासिकल?",
		domain.LanguageSpanish: "¿Qué tipo de música te gusta? Por ejemplo, pop, rock, jazz o clásica?",
	},
	domain.ContentPodcast: {
		domain.LanguageEnglish: "What subjects interest you? Perhaps comedy, news, stories, or education?",
		domain.LanguageHindi:   "आपकी रुचि किन विषयों में है? शायद कॉमेडी, समाचार, कहानियाँ, या शिक्षा?",
		domain.LanguageSpanish: "¿Qué temas te interesan? ¿Comedia, noticias, historias o educación?",
	},
	domain.ContentBook: {
		domain.LanguageEnglish: "What genres do you enjoy reading? Fiction, non-fiction, mystery, or self-help?",
		domain.LanguageHindi:   "आप किस प्रकार की किताबें पढ़ना पसंद करते हैं? कल्पना, गैर-कल्पना, रहस्य, या आत्म-सहायता?",
		domain.LanguageSpanish: "¿Qué géneros te gusta leer? ¿Ficción, no ficción, misterio o autoayuda?",
	},
	domain.ContentMindfulness: {
		domain.LanguageEnglish: "Would you prefer a quick breathing exercise, meditation, or a gentle movement practice?",
		domain.LanguageHindi:   "क्या आप एक त्वरित श्वास व्यायाम, ध्यान, या एक सौम्य आंदोलन अभ्यास पसंद करेंगे?",
		domain.LanguageSpanish: "¿Preferirías un ejercicio de respiración rápido, meditación o una práctica de movimiento suave?",
	},
}

// ContentPrompt asks a follow-up question about the chosen content type.
func ContentPrompt(contentType domain.ContentType, language domain.Language) string {
	prompts, ok := contentPrompts[contentType]
	if !ok {
		return genericPrompt
	}
	if prompt, ok := prompts[language]; ok {
		return prompt
	}
	if prompt, ok := prompts[domain.DefaultLanguage]; ok {
		return prompt
	}
	return genericPrompt
}

// EmotionColor is the accent color used when rendering an emotion.
func EmotionColor(emotion domain.Emotion) string {
	switch emotion {
	case domain.EmotionHappy:
		return "amber"
	case domain.EmotionSad:
		return "blue"
	case domain.EmotionStressed:
		return "red"
	case domain.EmotionCalm:
		return "teal"
	case domain.EmotionExcited:
		return "purple"
	case domain.EmotionTired:
		return "indigo"
	default:
		return "gray"
	}
}
