package notifications

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clearskies/clearskies/internal/session"
)

// readSetKey is the persistence key for the local read-id set.
const readSetKey = "read_notifications"

// EngineConfig holds configuration for the reconciliation engine.
type EngineConfig struct {
	// Feed is the per-user notification source.
	Feed Feed

	// Store persists the local read-id set across restarts. Optional; when
	// nil the read set lives in memory only.
	Store session.Store

	// Logger for engine operations.
	Logger zerolog.Logger

	// PollInterval is how often the feed is polled while authenticated
	// (default: 30 seconds).
	PollInterval time.Duration
}

// Engine merges the server-known notification list with the local read-id
// set so read status survives refetches. Read status is monotonic per id:
// once read, a later fetch cannot silently revert it. Clearing a notification
// forgets its read status, so a reappearing id is treated as unread again.
type Engine struct {
	feed         Feed
	store        session.Store
	logger       zerolog.Logger
	pollInterval time.Duration

	mu       sync.Mutex
	list     []Notification
	readSet  map[string]struct{}
	userID   string
	pollStop chan struct{}
	closed   bool

	wg sync.WaitGroup
}

// NewEngine creates a reconciliation engine and loads any persisted read set.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}

	e := &Engine{
		feed:         cfg.Feed,
		store:        cfg.Store,
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
		readSet:      make(map[string]struct{}),
	}
	e.loadReadSet()
	return e
}

// FetchNotifications refreshes the list from the feed. Without an
// authenticated user it clears the list and does nothing else. The server
// list replaces the in-memory list wholesale; read flags come from the local
// read set.
func (e *Engine) FetchNotifications(ctx context.Context) error {
	e.mu.Lock()
	userID := e.userID
	e.mu.Unlock()

	if userID == "" {
		e.mu.Lock()
		e.list = nil
		e.mu.Unlock()
		return nil
	}

	serverList, err := e.feed.Fetch(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("notification fetch failed")
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A fetch that resolves after logout or an account switch must not
	// resurrect the old user's feed.
	if e.userID != userID {
		return nil
	}

	list := make([]Notification, 0, len(serverList))
	for _, n := range serverList {
		_, read := e.readSet[n.ID]
		list = append(list, Notification{
			ID:         n.ID,
			Title:      n.Title,
			Message:    n.Message,
			Severity:   MapSeverity(n.Severity),
			Timestamp:  n.Timestamp,
			Read:       read,
			SourceMeta: n.SourceMeta,
		})
	}
	e.list = list
	return nil
}

// StartPolling begins (or rebinds) the 30-second poll loop for userID.
// Polling is keyed to the user id, not a boolean: switching accounts tears
// the old loop down and starts a fresh one. An empty id stops polling, which
// is the logout path.
func (e *Engine) StartPolling(userID string) {
	e.mu.Lock()

	if e.closed || (e.userID == userID && e.pollStop != nil) {
		e.mu.Unlock()
		return
	}

	if e.pollStop != nil {
		close(e.pollStop)
		e.pollStop = nil
	}

	e.userID = userID
	if userID == "" {
		e.list = nil
		e.mu.Unlock()
		return
	}

	stop := make(chan struct{})
	e.pollStop = stop
	interval := e.pollInterval
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		// Fetch immediately, then on every tick.
		_ = e.FetchNotifications(context.Background())

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = e.FetchNotifications(context.Background())
			}
		}
	}()
}

// StopPolling tears the poll loop down immediately and clears the bound user.
func (e *Engine) StopPolling() {
	e.StartPolling("")
}

// MarkAsRead records id in the read set and optimistically flips the
// in-memory flag so the UI updates before the next poll.
func (e *Engine) MarkAsRead(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.readSet[id] = struct{}{}
	for i := range e.list {
		if e.list[i].ID == id {
			e.list[i].Read = true
		}
	}
	e.persistReadSetLocked()
}

// MarkAllAsRead marks every currently listed notification read.
func (e *Engine) MarkAllAsRead() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.list {
		e.readSet[e.list[i].ID] = struct{}{}
		e.list[i].Read = true
	}
	e.persistReadSetLocked()
}

// ClearNotification removes id from the list and from the read set. If the
// server sends it again it will show as unread.
func (e *Engine) ClearNotification(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.readSet, id)
	for i := range e.list {
		if e.list[i].ID == id {
			e.list = append(e.list[:i], e.list[i+1:]...)
			break
		}
	}
	e.persistReadSetLocked()
}

// ClearAll empties the list and the read set.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.list = nil
	e.readSet = make(map[string]struct{})
	e.persistReadSetLocked()
}

// AddNotification appends a client-originated notification with a fresh id.
// It is never sent to the server and only lives until the next full fetch
// replaces the list.
func (e *Engine) AddNotification(title, message string, severity Severity) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Severity:  severity,
		Timestamp: time.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = append(e.list, n)
	return n
}

// Notifications returns a copy of the current list.
func (e *Engine) Notifications() []Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Notification, len(e.list))
	copy(out, e.list)
	return out
}

// UnreadCount returns the number of unread notifications.
func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, n := range e.list {
		if !n.Read {
			count++
		}
	}
	return count
}

// Close stops polling and waits for the loop to exit.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.pollStop != nil {
		close(e.pollStop)
		e.pollStop = nil
	}
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Engine) loadReadSet() {
	if e.store == nil {
		return
	}

	raw, err := e.store.Get(readSetKey)
	if err != nil {
		return
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		e.logger.Warn().Err(err).Msg("discarding corrupt read set")
		return
	}
	for _, id := range ids {
		e.readSet[id] = struct{}{}
	}
}

func (e *Engine) persistReadSetLocked() {
	if e.store == nil {
		return
	}

	ids := make([]string, 0, len(e.readSet))
	for id := range e.readSet {
		ids = append(ids, id)
	}

	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := e.store.Set(readSetKey, string(raw)); err != nil {
		e.logger.Warn().Err(err).Msg("persisting read set failed")
	}
}
