package chat

import (
	"database/sql"
	"errors"
	"time"

	"dormbot/internal/redis"

	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidParticipants = errors.New("two distinct non-empty participants are required")
	ErrSessionNotFound     = errors.New("session not found")
	ErrEmptyContent        = errors.New("message content is required")
	ErrInvalidPrompt       = errors.New("prompt query and response are required")
	ErrPromptNotFound      = errors.New("prompt not found")
)

const defaultPromptTTL = 10 * time.Minute

// Service owns chat sessions, the message log and the prompt knowledge base.
type Service struct {
	db  *sql.DB
	now func() time.Time

	cache     *redis.Client
	promptTTL time.Duration
	fill      singleflight.Group
}

type Option func(*Service)

// WithPromptCache keeps the prompt list in redis for ttl. A nil client is ignored.
func WithPromptCache(client *redis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		if client == nil {
			return
		}
		if ttl <= 0 {
			ttl = defaultPromptTTL
		}
		s.cache = client
		s.promptTTL = ttl
	}
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds the chat service on top of a migrated database.
func NewService(db *sql.DB, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
