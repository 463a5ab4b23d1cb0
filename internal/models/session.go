package models

import "time"

// Session is a two-party conversation channel. PairKey is the canonical
// unordered pair and is unique across sessions.
type Session struct {
	ID        int64     `json:"id" db:"id"`
	PairKey   string    `json:"-" db:"pair_key"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SessionMember records one participant of a session.
type SessionMember struct {
	SessionID     int64  `json:"session_id" db:"session_id"`
	ParticipantID string `json:"participant_id" db:"participant_id"`
}
