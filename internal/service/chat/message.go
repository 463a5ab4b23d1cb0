package chat

import (
	"context"
	"fmt"
	"strings"

	"dormbot/internal/models"
)

// AppendMessage stores one immutable message in a session.
func (s *Service) AppendMessage(ctx context.Context, sessionID int64, sender, receiver, content string) (*models.Message, error) {
	sender = strings.TrimSpace(sender)
	receiver = strings.TrimSpace(receiver)
	if sender == "" || receiver == "" {
		return nil, ErrInvalidParticipants
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	ok, err := s.SessionExists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, sender_id, receiver_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, sender, receiver, content, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	return &models.Message{
		ID:         id,
		SessionID:  sessionID,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		CreatedAt:  now,
	}, nil
}

// ListMessages returns every message of a session in the order it was stored.
func (s *Service) ListMessages(ctx context.Context, sessionID int64) ([]models.Message, error) {
	ok, err := s.SessionExists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, sender_id, receiver_id, content, created_at FROM messages WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
