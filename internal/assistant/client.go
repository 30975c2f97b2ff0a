package assistant

import (
	"context"
	"fmt"
)

// API abstracts the shared backend client.
type API interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Client calls the backend chatbot endpoints.
type Client struct {
	api API
}

// NewClient creates a chatbot client over the shared API client.
func NewClient(api API) *Client {
	return &Client{api: api}
}

type messageRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

type messageEnvelope struct {
	Data struct {
		Response string `json:"response"`
	} `json:"data"`
}

type tipsEnvelope struct {
	Data struct {
		Tips string `json:"tips"`
	} `json:"data"`
}

type analysisEnvelope struct {
	Data struct {
		Analysis string `json:"analysis"`
	} `json:"data"`
}

type recommendationsEnvelope struct {
	Data struct {
		Recommendations string `json:"recommendations"`
	} `json:"data"`
}

// Message sends a user message with optional context and returns the reply.
func (c *Client) Message(ctx context.Context, text string, msgContext map[string]any) (string, error) {
	var env messageEnvelope
	body := messageRequest{Message: text, Context: msgContext}
	if err := c.api.Post(ctx, "/api/chatbot/message", body, &env); err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return env.Data.Response, nil
}

// QuickTips fetches contextual tips.
func (c *Client) QuickTips(ctx context.Context, msgContext map[string]any) (string, error) {
	var env tipsEnvelope
	if err := c.api.Post(ctx, "/api/chatbot/tips", map[string]any{"context": msgContext}, &env); err != nil {
		return "", fmt.Errorf("fetch tips: %w", err)
	}
	return env.Data.Tips, nil
}

// AnalyzeTrends asks for an analysis of the current trend window.
func (c *Client) AnalyzeTrends(ctx context.Context, msgContext map[string]any) (string, error) {
	var env analysisEnvelope
	if err := c.api.Post(ctx, "/api/chatbot/analyze-trends", map[string]any{"context": msgContext}, &env); err != nil {
		return "", fmt.Errorf("analyze trends: %w", err)
	}
	return env.Data.Analysis, nil
}

// ActivityRecommendations asks for activity guidance for current conditions.
func (c *Client) ActivityRecommendations(ctx context.Context, msgContext map[string]any) (string, error) {
	var env recommendationsEnvelope
	if err := c.api.Post(ctx, "/api/chatbot/activity-recommendations", map[string]any{"context": msgContext}, &env); err != nil {
		return "", fmt.Errorf("fetch recommendations: %w", err)
	}
	return env.Data.Recommendations, nil
}
