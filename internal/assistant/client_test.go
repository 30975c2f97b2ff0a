package assistant_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/assistant"
)

type mockAPI struct {
	lastPath string
	lastBody any
	payload  string
	err      error
}

func (m *mockAPI) Post(_ context.Context, path string, body, out any) error {
	m.lastPath = path
	m.lastBody = body
	if m.err != nil {
		return m.err
	}
	return json.Unmarshal([]byte(m.payload), out)
}

func TestClient_Message(t *testing.T) {
	api := &mockAPI{payload: `{"data": {"response": "Stay indoors this afternoon."}}`}
	client := assistant.NewClient(api)

	reply, err := client.Message(context.Background(), "should I run today?", map[string]any{"aqi": 160})
	require.NoError(t, err)

	assert.Equal(t, "/api/chatbot/message", api.lastPath)
	assert.Equal(t, "Stay indoors this afternoon.", reply)

	raw, err := json.Marshal(api.lastBody)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message": "should I run today?", "context": {"aqi": 160}}`, string(raw))
}

func TestClient_QuickTips(t *testing.T) {
	api := &mockAPI{payload: `{"data": {"tips": "Close your windows."}}`}
	client := assistant.NewClient(api)

	tips, err := client.QuickTips(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/chatbot/tips", api.lastPath)
	assert.Equal(t, "Close your windows.", tips)
}

func TestClient_AnalyzeTrends(t *testing.T) {
	api := &mockAPI{payload: `{"data": {"analysis": "Improving over 24h."}}`}
	client := assistant.NewClient(api)

	analysis, err := client.AnalyzeTrends(context.Background(), map[string]any{"hours": 24})
	require.NoError(t, err)
	assert.Equal(t, "/api/chatbot/analyze-trends", api.lastPath)
	assert.Equal(t, "Improving over 24h.", analysis)
}

func TestClient_ActivityRecommendations(t *testing.T) {
	api := &mockAPI{payload: `{"data": {"recommendations": "Light exercise only."}}`}
	client := assistant.NewClient(api)

	recs, err := client.ActivityRecommendations(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/chatbot/activity-recommendations", api.lastPath)
	assert.Equal(t, "Light exercise only.", recs)
}

func TestClient_PropagatesErrors(t *testing.T) {
	api := &mockAPI{err: assert.AnError}
	client := assistant.NewClient(api)

	_, err := client.Message(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = client.QuickTips(context.Background(), nil)
	assert.ErrorIs(t, err, assert.AnError)
}
