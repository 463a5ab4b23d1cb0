package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dormbot/internal/storage"
)

// ResolveSession returns the session shared by a and b, creating it on first
// contact. The pair is unordered: (a, b) and (b, a) resolve to the same id.
func (s *Service) ResolveSession(ctx context.Context, a, b string) (int64, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" || a == b {
		return 0, ErrInvalidParticipants
	}

	id, err := s.findSharedSession(ctx, a, b)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	id, err = s.createSession(ctx, a, b)
	if err == nil {
		return id, nil
	}
	if !storage.IsUniqueViolation(err) {
		return 0, err
	}

	// A concurrent caller created the pair first; its row is committed by now.
	id, err = s.findSharedSession(ctx, a, b)
	if err != nil {
		return 0, fmt.Errorf("reload session after conflict: %w", err)
	}
	return id, nil
}

// SessionExists reports whether id names a stored session.
func (s *Service) SessionExists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chat_sessions WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup session: %w", err)
	}
	return true, nil
}

// SessionMembers returns both participants of a session.
func (s *Service) SessionMembers(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id FROM session_members WHERE session_id = ? ORDER BY participant_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list session members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan session member: %w", err)
		}
		members = append(members, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list session members: %w", err)
	}
	if len(members) == 0 {
		return nil, ErrSessionNotFound
	}
	return members, nil
}

func (s *Service) findSharedSession(ctx context.Context, a, b string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id FROM session_members
		WHERE participant_id IN (?, ?)
		GROUP BY session_id
		HAVING COUNT(DISTINCT participant_id) = 2
		ORDER BY session_id
		LIMIT 1`,
		a, b,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("find session: %w", err)
	}
	return id, nil
}

func (s *Service) createSession(ctx context.Context, a, b string) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO chat_sessions (pair_key, created_at) VALUES (?, ?)`,
		pairKey(a, b), s.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}
	for _, p := range []string{a, b} {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO session_members (session_id, participant_id) VALUES (?, ?)`,
			id, p,
		); err != nil {
			return 0, fmt.Errorf("add session member: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit session: %w", err)
	}
	return id, nil
}

// pairKey canonicalizes an unordered pair. The length prefix keeps ids that
// contain the separator from colliding.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%s|%s", len(a), a, b)
}
