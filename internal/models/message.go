package models

import "time"

// Message captures one line exchanged inside a session. Rows are never updated.
type Message struct {
	ID         int64     `json:"id" db:"id"`
	SessionID  int64     `json:"session_id" db:"session_id"`
	SenderID   string    `json:"sender" db:"sender_id"`
	ReceiverID string    `json:"receiver" db:"receiver_id"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
