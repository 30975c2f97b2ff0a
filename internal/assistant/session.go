package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Chatbot is the backend conversation API.
type Chatbot interface {
	Message(ctx context.Context, text string, msgContext map[string]any) (string, error)
	QuickTips(ctx context.Context, msgContext map[string]any) (string, error)
	AnalyzeTrends(ctx context.Context, msgContext map[string]any) (string, error)
	ActivityRecommendations(ctx context.Context, msgContext map[string]any) (string, error)
}

// SessionConfig holds configuration for a conversation session.
type SessionConfig struct {
	// Client is the chatbot backend.
	Client Chatbot

	// Logger for session operations.
	Logger zerolog.Logger

	// RevealDelay is the per-word delay of the reveal animation
	// (default: 30ms).
	RevealDelay time.Duration
}

// Session manages a linear append-only transcript with at most one outbound
// request in flight. Assistant replies are revealed word by word, mutating
// the placeholder message in place until completion.
type Session struct {
	client      Chatbot
	logger      zerolog.Logger
	revealDelay time.Duration

	mu       sync.Mutex
	messages []ChatMessage
	inFlight bool

	wg sync.WaitGroup
}

// NewSession creates an empty session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.RevealDelay == 0 {
		cfg.RevealDelay = 30 * time.Millisecond
	}
	return &Session{
		client:      cfg.Client,
		logger:      cfg.Logger,
		revealDelay: cfg.RevealDelay,
	}
}

// Send appends a user message and an empty assistant placeholder, then issues
// the request asynchronously. Blank text and sends while a request is in
// flight are rejected at the boundary; the transcript is left untouched.
// On failure the placeholder becomes the fixed apology with no partial
// reveal. Returns the placeholder's id.
func (s *Session) Send(ctx context.Context, text string, msgContext map[string]any) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.inFlight = true

	now := time.Now()
	s.messages = append(s.messages, ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: now,
	})

	placeholderID := uuid.NewString()
	s.messages = append(s.messages, ChatMessage{
		ID:        placeholderID,
		Role:      RoleAssistant,
		Timestamp: now,
		Revealing: true,
	})

	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.clearInFlight()

		reply, err := s.client.Message(ctx, text, msgContext)
		if err != nil {
			s.logger.Warn().Err(err).Msg("chat send failed")
			s.setContent(placeholderID, Apology)
			return
		}
		s.reveal(placeholderID, reply)
	}()

	return placeholderID, nil
}

// QuickTips fetches contextual tips through the placeholder-then-reveal
// pattern. Unlike Send, a failed enrichment removes the placeholder entirely:
// it is an optional extra, not a reply the user is waiting on.
func (s *Session) QuickTips(ctx context.Context, msgContext map[string]any) (string, error) {
	return s.enrich(ctx, msgContext, s.client.QuickTips)
}

// AnalyzeTrends fetches a trend analysis, placeholder-then-reveal.
func (s *Session) AnalyzeTrends(ctx context.Context, msgContext map[string]any) (string, error) {
	return s.enrich(ctx, msgContext, s.client.AnalyzeTrends)
}

// ActivityRecommendations fetches activity guidance, placeholder-then-reveal.
func (s *Session) ActivityRecommendations(ctx context.Context, msgContext map[string]any) (string, error) {
	return s.enrich(ctx, msgContext, s.client.ActivityRecommendations)
}

func (s *Session) enrich(ctx context.Context, msgContext map[string]any, fetch func(context.Context, map[string]any) (string, error)) (string, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.inFlight = true

	placeholderID := uuid.NewString()
	s.messages = append(s.messages, ChatMessage{
		ID:        placeholderID,
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Revealing: true,
	})

	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.clearInFlight()

		content, err := fetch(ctx, msgContext)
		if err != nil {
			s.logger.Debug().Err(err).Msg("assistant enrichment failed")
			s.remove(placeholderID)
			return
		}
		s.reveal(placeholderID, content)
	}()

	return placeholderID, nil
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// InFlight reports whether a request is outstanding.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Wait blocks until any outstanding request and reveal have finished. Used
// at teardown and in tests.
func (s *Session) Wait() {
	s.wg.Wait()
}

// reveal incrementally rebuilds the placeholder's content word by word at the
// configured delay, mutating the same message id in place, then marks it
// complete.
func (s *Session) reveal(id, content string) {
	words := strings.Fields(content)
	for i := 1; i <= len(words); i++ {
		time.Sleep(s.revealDelay)
		s.update(id, func(m *ChatMessage) {
			m.Content = strings.Join(words[:i], " ")
		})
	}

	s.update(id, func(m *ChatMessage) {
		m.Content = content
		m.Revealing = false
	})
}

// setContent replaces the message content at once, reveal finished.
func (s *Session) setContent(id, content string) {
	s.update(id, func(m *ChatMessage) {
		m.Content = content
		m.Revealing = false
	})
}

func (s *Session) update(id string, fn func(*ChatMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == id {
			fn(&s.messages[i])
			return
		}
	}
}

func (s *Session) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

func (s *Session) clearInFlight() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}
