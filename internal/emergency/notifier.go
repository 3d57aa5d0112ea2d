// Package emergency delivers alerts to the user's emergency contact.
package emergency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mikecheck/internal/domain"
)

var (
	ErrNoContact = errors.New("emergency contact is not configured")
	ErrDelivery  = errors.New("alert delivery failed")
)

// Alert is the payload recorded and delivered for one emergency request.
type Alert struct {
	Contact domain.EmergencyContact `json:"contact"`
	Emotion domain.Emotion          `json:"emotion"`
	Message string                  `json:"message"`
	SentAt  time.Time               `json:"sentAt"`
}

// Recorder keeps a durable copy of every alert.
type Recorder interface {
	Append(document json.RawMessage) error
}

type Options struct {
	// WebhookURL receives each alert as a JSON POST. Empty disables delivery.
	WebhookURL string
	Client     *http.Client
	Recorder   Recorder
	Now        func() time.Time
}

// Notifier implements ports.Alerter.
type Notifier struct {
	webhook  string
	client   *http.Client
	recorder Recorder
	now      func() time.Time
	logger   zerolog.Logger
}

func NewNotifier(opts Options, logger zerolog.Logger) *Notifier {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Notifier{
		webhook:  strings.TrimSpace(opts.WebhookURL),
		client:   opts.Client,
		recorder: opts.Recorder,
		now:      opts.Now,
		logger:   logger.With().Str("component", "emergency").Logger(),
	}
}

// Alert records and delivers an alert for contact. Recording and delivery
// are both attempted; their failures are joined.
func (n *Notifier) Alert(ctx context.Context, contact domain.EmergencyContact, emotion domain.Emotion) error {
	if strings.TrimSpace(contact.Name) == "" {
		return ErrNoContact
	}
	alert := Alert{
		Contact: contact,
		Emotion: emotion,
		Message: alertMessage(emotion),
		SentAt:  n.now(),
	}
	n.logger.Warn().
		Str("contact", contact.Name).
		Str("phone", contact.Phone).
		Str("emotion", string(emotion)).
		Msg("emergency alert raised")

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	var errs []error
	if n.recorder != nil {
		if err := n.recorder.Append(body); err != nil {
			errs = append(errs, fmt.Errorf("record alert: %w", err))
		}
	}
	if n.webhook != "" {
		if err := n.deliver(ctx, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) deliver(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: webhook returned %s", ErrDelivery, resp.Status)
	}
	n.logger.Info().Int("status", resp.StatusCode).Msg("emergency alert delivered")
	return nil
}

func alertMessage(emotion domain.Emotion) string {
	if emotion == "" || emotion == domain.EmotionNeutral {
		return "Your contact asked Mike to alert you. Please check in with them as soon as you can."
	}
	return fmt.Sprintf("Your contact asked Mike to alert you. They were feeling %s. Please check in with them as soon as you can.", emotion)
}
