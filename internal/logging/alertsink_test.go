package logging

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookAlertSink_EmptyURL_IsANoop(t *testing.T) {
	sink := NewWebhookAlertSink("")
	assert.NoError(t, sink.Alert("error", "boom", nil))
}

func TestWebhookAlertSink_PostsEmbedWithFields(t *testing.T) {
	var received webhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewWebhookAlertSink(server.URL)
	err := sink.Alert("warn", "flush retrying", map[string]interface{}{"attempt": 3})
	require.NoError(t, err)

	require.Len(t, received.Embeds, 1)
	assert.Equal(t, "warn alert", received.Embeds[0].Title)
	assert.Equal(t, "flush retrying", received.Embeds[0].Description)
	require.Len(t, received.Embeds[0].Fields, 1)
	assert.Equal(t, "attempt", received.Embeds[0].Fields[0].Name)
	assert.Equal(t, "3", received.Embeds[0].Fields[0].Value)
}

func TestWebhookAlertSink_NonSuccessStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := NewWebhookAlertSink(server.URL)
	err := sink.Alert("error", "boom", nil)
	assert.Error(t, err)
}

func TestColorForLevel(t *testing.T) {
	assert.Equal(t, 0xFF0000, colorForLevel("error"))
	assert.Equal(t, 0x8B0000, colorForLevel("fatal"))
	assert.Equal(t, 0xFFA500, colorForLevel("warn"))
	assert.Equal(t, 0x808080, colorForLevel("info"))
}

func TestNoopAlertSink_AlwaysNil(t *testing.T) {
	var sink NoopAlertSink
	assert.NoError(t, sink.Alert("error", "anything", map[string]interface{}{"x": 1}))
}
