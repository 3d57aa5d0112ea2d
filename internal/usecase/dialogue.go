package usecase

import (
	"strings"
	"time"

	"mikecheck/internal/domain"
	"mikecheck/internal/recommend"
	"mikecheck/internal/sentiment"
)

// onTranscript applies a capture update. Updates outside a listening turn
// are stale and dropped.
func (c *Controller) onTranscript(update domain.CaptureUpdate) {
	s := c.session
	if !s.listening {
		c.logger.Debug().Str("state", string(s.state)).Msg("dropping transcript outside a listening turn")
		return
	}
	if update.Transcript != s.transcript && awaitingReply(s.state) {
		c.armUserResponse()
	}
	s.transcript = update.Transcript
	s.confidence = update.Confidence
	s.hasUserSpoken = update.HasUserSpoken
	c.interpret()
}

func (c *Controller) submitText(text string) {
	s := c.session
	s.transcript = text
	s.confidence = 1
	s.hasUserSpoken = true
	c.interpret()
}

func (c *Controller) interpret() {
	s := c.session
	in := decide(s.turn())
	if in.kind == intentNone {
		return
	}
	c.logger.Debug().Stringer("intent", in.kind).Str("state", string(s.state)).Msg("reply recognized")

	if in.kind != intentWake {
		s.record(domain.SpeakerUser, strings.TrimSpace(s.transcript))
	}
	c.stopListening()

	switch in.kind {
	case intentWake:
		c.greet(domain.ModeCheckIn, c.pick(wakeGreetings))
	case intentStatement:
		c.processStatement(in.text)
	case intentConfirmEmotion:
		s.emotionConfirmed = true
		c.offerSuggestions()
	case intentRestate:
		c.askRestatement()
	case intentEmergency:
		c.requestEmergency()
	case intentContent:
		c.requestContent(in.content)
	case intentCommunity:
		c.requestCommunity()
	case intentClarify:
		c.askClarification()
	case intentLanguage:
		c.selectLanguage(in.language)
	case intentDeclineShare:
		c.declineShare()
	case intentHearTip:
		c.playTip()
	case intentPromptTip:
		c.promptForTip()
	case intentStoreTip:
		c.storeTip(in.text)
	case intentTriggerAlert:
		c.triggerAlert()
	case intentCancelAlert:
		c.cancelAlert()
	}
}

// noResponse is the fallback for a state whose reply never came.
func (c *Controller) noResponse() {
	s := c.session
	state := s.state
	c.logger.Debug().Str("state", string(state)).Msg("no response")
	c.stopListening()

	switch state {
	case domain.StateListening:
		c.say(noResponsePrompt(sentiment.Example(domain.EmotionNeutral)), domain.StyleCalm)
		c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateListening)
	case domain.StateEmotionCheck:
		s.emotionConfirmed = true
		c.offerSuggestions()
	case domain.StateLanguageSelection:
		c.selectLanguage(s.language)
	case domain.StateSuggestion:
		c.say(msgReminder, domain.StyleCheerful)
		c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateSuggestion)
	case domain.StateCommunitySharing:
		c.declineShare()
	case domain.StateEmergencyCheck:
		c.cancelAlert()
	}
}

func (c *Controller) listenForWake() {
	s := c.session
	if s.state != domain.StateIdle || s.listening {
		return
	}
	s.message = msgWakeListening
	c.startListening()
}

func (c *Controller) selectMode(mode domain.Mode) {
	switch mode {
	case domain.ModeCheckIn:
		c.stopListening()
		c.greet(mode, msgCheckInGreeting)
	case domain.ModeConversation:
		c.stopListening()
		c.greet(mode, msgConversationHello)
	case domain.ModeEmergency:
		c.stopListening()
		c.requestEmergency()
	default:
		c.stop()
	}
}

func (c *Controller) greet(mode domain.Mode, greeting string) {
	c.session.mode = mode
	c.enter(domain.StateGreeting)
	c.say(greeting, domain.StyleDefault)
	c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateListening)
}

func (c *Controller) processStatement(text string) {
	s := c.session
	c.enter(domain.StateProcessing)

	result := sentiment.Classify(text)
	s.emotion = result.Emotion
	s.emotionConfirmed = false
	c.logger.Debug().
		Str("emotion", string(result.Emotion)).
		Float64("confidence", result.Confidence).
		Msg("statement classified")

	emotion := result.Emotion
	timings := c.cfg.Timings
	c.after(slotResponse, timings.ThinkingDelay, func() {
		response := sentiment.Response(emotion, c.rnd)
		style := domain.StyleDefault
		if emotion == domain.EmotionHappy {
			style = domain.StyleCheerful
		}
		c.say(response, style)
		s.message = response + " " + msgTellMeMore

		c.after(slotResponse, timings.FollowUpDelay, func() {
			c.speak(msgTellMeMore, domain.StyleDefault)
			c.after(slotResponse, timings.ResponsePause, func() { c.confirmEmotion(emotion) })
		})
	})
}

func (c *Controller) confirmEmotion(emotion domain.Emotion) {
	c.enter(domain.StateEmotionCheck)
	c.say(confirmationQuestion(emotion), domain.StyleDefault)
	c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateEmotionCheck)
}

func (c *Controller) askRestatement() {
	c.say(msgRestate, domain.StyleCalm)
	c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateListening)
}

func (c *Controller) offerSuggestions() {
	c.enter(domain.StateSuggestion)
	c.say(suggestionOffer(c.session.emotion), domain.StyleDefault)
	c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateSuggestion)
}

func (c *Controller) askClarification() {
	s := c.session
	s.waitingForClarification = true
	c.say(msgClarify, domain.StyleCheerful)

	timings := c.cfg.Timings
	c.after(slotResponse, timings.ResponsePause, func() {
		c.enter(domain.StateSuggestion)
		c.startListening()
		c.after(slotClarification, timings.ClarificationHold, func() {
			s.waitingForClarification = false
		})
	})
}

func (c *Controller) requestContent(contentType domain.ContentType) {
	c.session.content = contentType
	c.enter(domain.StateLanguageSelection)
	c.say(languageQuestion(contentType), domain.StyleDefault)
	c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateLanguageSelection)
}

func (c *Controller) selectLanguage(language domain.Language) {
	s := c.session
	c.setLanguage(language)
	if s.content == "" {
		c.offerSuggestions()
		return
	}

	contentType := s.content
	c.say(recommend.ContentPrompt(contentType, language), domain.StyleDefault)
	c.after(slotResponse, c.cfg.Timings.ContentPromptDelay, func() {
		c.recommendContent(contentType, language)
	})
}

func (c *Controller) setLanguage(language domain.Language) {
	c.session.language = language
	if err := c.prefs.SetLanguage(language); err != nil {
		c.logger.Warn().Err(err).Msg("failed to save language preference")
		c.notice(domain.ErrorCodePreferences, err.Error())
	}
}

func (c *Controller) recommendContent(contentType domain.ContentType, language domain.Language) {
	s := c.session
	c.enter(domain.StateContentSelection)
	c.stopListening()

	excluded := append(append([]string{}, s.recent...), c.prefs.Get().DislikedContent[contentType]...)
	item := c.recommender.Recommend(contentType, s.emotionOrNeutral(), language, excluded)
	s.recent = recommend.Remember(s.recent, item)
	s.recommendation = item
	c.say(item, domain.StyleDefault)

	timings := c.cfg.Timings
	c.after(slotResponse, timings.RecommendationHold, func() {
		c.speak(msgTrySomethingElse, domain.StyleDefault)
		s.message = item + " " + msgTrySomethingElse
		c.listenAfter(timings.ResponsePause, domain.StateSuggestion)
	})
}

func (c *Controller) rateRecommendation(liked bool) {
	s := c.session
	if s.content == "" || s.recommendation == "" {
		c.notice(domain.ErrorCodeInput, "there is no recommendation to rate")
		return
	}
	if liked {
		c.prefs.Like(s.content, s.recommendation)
	} else {
		c.prefs.Dislike(s.content, s.recommendation)
	}
}

func (c *Controller) requestCommunity() {
	c.session.communityStep = communityChoose
	c.enter(domain.StateCommunitySharing)
	c.say(msgCommunityPrompt, domain.StyleDefault)
	c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateCommunitySharing)
}

func (c *Controller) promptForTip() {
	s := c.session
	s.communityStep = communityAwaitingTip
	c.enter(domain.StateCommunitySharing)
	c.say(tipRequest(s.emotion), domain.StyleDefault)
	c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateCommunitySharing)
}

func (c *Controller) storeTip(text string) {
	s := c.session
	tip, err := c.tips.AddTip(text, s.emotionOrNeutral(), s.language)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to store community tip")
		c.notice(domain.ErrorCodeStorage, err.Error())
	}
	if tip.ID != "" {
		s.tip = &tip
	}
	s.communityStep = communityChoose
	c.say(msgTipThanks, domain.StyleCheerful)
	c.after(slotResponse, c.cfg.Timings.ResponsePause, c.offerSuggestions)
}

func (c *Controller) playTip() {
	s := c.session
	message := msgNoTips
	if tip, ok := c.tips.RandomTip(s.language, s.emotion); ok {
		s.tip = tip
		message = tipAnnouncement(*tip)
	}
	c.say(message, domain.StyleDefault)

	timings := c.cfg.Timings
	c.after(slotResponse, timings.ResponsePause+timings.TipHoldExtra, c.offerSuggestions)
}

func (c *Controller) declineShare() {
	c.session.communityStep = communityChoose
	c.say(msgShareDeclined, domain.StyleCalm)
	c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateSuggestion)
}

func (c *Controller) requestEmergency() {
	s := c.session
	s.mode = domain.ModeEmergency
	s.showContact = true
	c.timers.cancel(slotPanel)
	c.enter(domain.StateEmergencyCheck)

	name := defaultContactName
	if contact := c.prefs.Get().EmergencyContact; contact != nil {
		name = contact.Name
	}
	c.say(emergencyQuestion(name), domain.StyleSerious)
	c.listenAfter(c.cfg.Timings.ResponsePause, domain.StateEmergencyCheck)
}

// triggerAlert alerts the saved contact. Without one the panel stays open so
// a contact can be entered.
func (c *Controller) triggerAlert() {
	s := c.session
	contact := c.prefs.Get().EmergencyContact
	if contact == nil {
		c.say(msgNoContact, domain.StyleSerious)
	} else {
		c.say(alertingContact(contact.Name), domain.StyleSerious)
		c.sendAlert(*contact, s.emotionOrNeutral())
	}

	c.after(slotResponse, 2*c.cfg.Timings.ResponsePause, func() {
		if contact != nil {
			s.showContact = false
		}
		c.offerSuggestions()
	})
}

func (c *Controller) sendAlert(contact domain.EmergencyContact, emotion domain.Emotion) {
	if c.alerter == nil {
		return
	}
	ctx := c.ctx
	go func() {
		if err := c.alerter.Alert(ctx, contact, emotion); err != nil {
			c.post("alert-failed", func() {
				c.logger.Warn().Err(err).Msg("emergency alert failed")
				c.notice(domain.ErrorCodeAlert, err.Error())
			})
		}
	}()
}

func (c *Controller) cancelAlert() {
	c.session.showContact = false
	c.say(msgAlertCancelled, domain.StyleCalm)
	c.after(slotResponse, c.cfg.Timings.ResponsePause, c.offerSuggestions)
}

func (c *Controller) saveContact(name string, phone string) {
	s := c.session
	contact := domain.EmergencyContact{Name: strings.TrimSpace(name), Phone: strings.TrimSpace(phone)}
	if err := c.prefs.SetEmergencyContact(contact); err != nil {
		c.notice(domain.ErrorCodePreferences, err.Error())
		return
	}
	c.say(contactSaved(contact.Name), domain.StyleCalm)
	c.after(slotPanel, c.cfg.Timings.ContactPanelHold, func() { s.showContact = false })
}

// say shows text as the current message and speaks it.
func (c *Controller) say(text string, style domain.VoiceStyle) {
	c.session.message = text
	c.speak(text, style)
}

func (c *Controller) speak(text string, style domain.VoiceStyle) {
	s := c.session
	s.record(domain.SpeakerAssistant, text)
	c.playback.Speak(text, adaptStyle(style, s.emotion, s.emotionConfirmed), s.language.Tag())
}

// adaptStyle tints the default voice once the user confirmed their mood.
func adaptStyle(style domain.VoiceStyle, emotion domain.Emotion, confirmed bool) domain.VoiceStyle {
	if style != domain.StyleDefault || !confirmed {
		return style
	}
	switch emotion {
	case domain.EmotionHappy, domain.EmotionExcited:
		return domain.StyleCheerful
	case domain.EmotionSad, domain.EmotionTired, domain.EmotionStressed:
		return domain.StyleCalm
	}
	return style
}

func (c *Controller) enter(state domain.ConversationState) {
	s := c.session
	if s.state == state {
		return
	}
	c.logger.Debug().Str("from", string(s.state)).Str("to", string(state)).Msg("state changed")
	s.state = state
}

// listenAfter enters state and opens a listening turn once d has passed.
func (c *Controller) listenAfter(d time.Duration, state domain.ConversationState) {
	c.after(slotResponse, d, func() {
		c.enter(state)
		c.startListening()
	})
}

func (c *Controller) startListening() {
	s := c.session
	s.clearTranscript()
	if awaitingReply(s.state) {
		c.armUserResponse()
	}

	c.capture.Reset()
	if err := c.capture.Start(c.ctx, s.language.Tag()); err != nil {
		c.logger.Warn().Err(err).Msg("failed to start listening")
		c.notice(domain.ErrorCodeCapture, err.Error())
		s.listening = false
		return
	}
	s.listening = true
}

// stopListening closes the listening turn and its reply timeout.
func (c *Controller) stopListening() {
	c.timers.cancel(slotUserResponse)
	s := c.session
	if !s.listening {
		return
	}
	s.listening = false
	if err := c.capture.Stop(); err != nil {
		c.logger.Debug().Err(err).Msg("capture stop")
	}
}

func (c *Controller) armUserResponse() {
	c.after(slotUserResponse, c.cfg.Timings.UserResponseTimeout, c.noResponse)
}

// after runs fn on the dispatch loop once d has passed, unless the slot is
// re-armed or cancelled first.
func (c *Controller) after(slot timerSlot, d time.Duration, fn func()) {
	c.timers.arm(slot, d, func(gen uint64) {
		c.post(slot.String()+"-timer", func() {
			if c.timers.claim(slot, gen) {
				fn()
			}
		})
	})
}

func (c *Controller) pick(options []string) string {
	return options[c.rnd.IntN(len(options))]
}
