package notifications

import (
	"context"
	"fmt"
	"net/url"
)

// API abstracts the shared backend client.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Feed fetches the per-user notification feed.
type Feed interface {
	Fetch(ctx context.Context, userID string) ([]ServerNotification, error)
}

// HTTPFeed is the backend-backed Feed implementation.
type HTTPFeed struct {
	api API
}

// NewHTTPFeed creates a feed client over the shared API client.
func NewHTTPFeed(api API) *HTTPFeed {
	return &HTTPFeed{api: api}
}

type feedEnvelope struct {
	Data []ServerNotification `json:"data"`
}

// Fetch retrieves the feed for a user.
func (f *HTTPFeed) Fetch(ctx context.Context, userID string) ([]ServerNotification, error) {
	var env feedEnvelope
	path := "/notifications/user/" + url.PathEscape(userID)
	if err := f.api.Get(ctx, path, nil, &env); err != nil {
		return nil, fmt.Errorf("fetch notifications: %w", err)
	}
	return env.Data, nil
}
