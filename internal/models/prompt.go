package models

import "time"

// Prompt is a knowledge base entry: a canonical query and the verbatim reply.
type Prompt struct {
	ID        int64     `json:"id" db:"id"`
	Query     string    `json:"query" db:"query"`
	Response  string    `json:"response" db:"response"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
