package emergency

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikecheck/internal/domain"
)

var sentAt = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return sentAt }

func TestAlertRequiresContact(t *testing.T) {
	t.Parallel()

	n := NewNotifier(Options{}, zerolog.Nop())
	err := n.Alert(context.Background(), domain.EmergencyContact{Phone: "555"}, domain.EmotionSad)
	assert.ErrorIs(t, err, ErrNoContact)
}

func TestAlertRecordsAndDelivers(t *testing.T) {
	t.Parallel()

	received := make(chan Alert, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var alert Alert
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &alert))
		received <- alert
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	recorder := &memoryRecorder{}
	n := NewNotifier(Options{WebhookURL: server.URL, Recorder: recorder, Now: fixedNow}, zerolog.Nop())
	contact := domain.EmergencyContact{Name: "Ana", Phone: "555-0100"}

	require.NoError(t, n.Alert(context.Background(), contact, domain.EmotionStressed))

	alert := <-received
	assert.Equal(t, contact, alert.Contact)
	assert.Equal(t, domain.EmotionStressed, alert.Emotion)
	assert.Contains(t, alert.Message, "feeling stressed")
	assert.True(t, sentAt.Equal(alert.SentAt))

	require.Len(t, recorder.docs, 1)
	var recorded Alert
	require.NoError(t, json.Unmarshal(recorder.docs[0], &recorded))
	assert.Equal(t, "Ana", recorded.Contact.Name)
}

func TestAlertReportsWebhookFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	recorder := &memoryRecorder{}
	n := NewNotifier(Options{WebhookURL: server.URL, Recorder: recorder}, zerolog.Nop())
	err := n.Alert(context.Background(), domain.EmergencyContact{Name: "Ana"}, domain.EmotionSad)

	assert.ErrorIs(t, err, ErrDelivery)
	assert.Len(t, recorder.docs, 1, "recording still happens when delivery fails")
}

func TestAlertJoinsRecorderFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	n := NewNotifier(Options{Recorder: &memoryRecorder{err: boom}}, zerolog.Nop())
	err := n.Alert(context.Background(), domain.EmergencyContact{Name: "Ana"}, "")

	assert.ErrorIs(t, err, boom)
}

func TestAlertWithoutSinksOnlyLogs(t *testing.T) {
	t.Parallel()

	n := NewNotifier(Options{}, zerolog.Nop())
	assert.NoError(t, n.Alert(context.Background(), domain.EmergencyContact{Name: "Ana"}, domain.EmotionNeutral))
}

func TestAlertMessage(t *testing.T) {
	t.Parallel()

	assert.NotContains(t, alertMessage(domain.EmotionNeutral), "feeling")
	assert.Contains(t, alertMessage(domain.EmotionTired), "feeling tired")
}

type memoryRecorder struct {
	docs []json.RawMessage
	err  error
}

func (m *memoryRecorder) Append(document json.RawMessage) error {
	if m.err != nil {
		return m.err
	}
	m.docs = append(m.docs, document)
	return nil
}
