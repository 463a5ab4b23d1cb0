package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dormbot/internal/models"
)

// UpsertPrompt updates the prompt with the given id, or inserts a new one when
// id is nil.
func (s *Service) UpsertPrompt(ctx context.Context, id *int64, query, response string) (*models.Prompt, error) {
	query = strings.TrimSpace(query)
	response = strings.TrimSpace(response)
	if query == "" || response == "" {
		return nil, ErrInvalidPrompt
	}

	var (
		p   *models.Prompt
		err error
	)
	if id != nil {
		p, err = s.updatePrompt(ctx, *id, query, response)
	} else {
		p, err = s.insertPrompt(ctx, query, response)
	}
	if err != nil {
		return nil, err
	}
	s.invalidatePrompts(ctx)
	return p, nil
}

// DeletePrompt removes a prompt by id.
func (s *Service) DeletePrompt(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("prompt rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPromptNotFound
	}
	s.invalidatePrompts(ctx)
	return nil
}

// ListPrompts returns the whole knowledge base ordered by id.
func (s *Service) ListPrompts(ctx context.Context) ([]models.Prompt, error) {
	if s.cache == nil {
		return s.loadPrompts(ctx)
	}
	return s.cachedPrompts(ctx)
}

func (s *Service) insertPrompt(ctx context.Context, query, response string) (*models.Prompt, error) {
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prompts (query, response, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		query, response, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert prompt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("prompt id: %w", err)
	}
	return &models.Prompt{ID: id, Query: query, Response: response, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Service) updatePrompt(ctx context.Context, id int64, query, response string) (p *models.Prompt, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	p = &models.Prompt{ID: id, Query: query, Response: response}
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM prompts WHERE id = ?`, id).Scan(&p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}

	p.UpdatedAt = s.now().UTC()
	if _, err = tx.ExecContext(ctx,
		`UPDATE prompts SET query = ?, response = ?, updated_at = ? WHERE id = ?`,
		query, response, p.UpdatedAt, id,
	); err != nil {
		return nil, fmt.Errorf("update prompt: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit prompt: %w", err)
	}
	return p, nil
}

func (s *Service) loadPrompts(ctx context.Context) ([]models.Prompt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, response, created_at, updated_at FROM prompts ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	prompts := make([]models.Prompt, 0)
	for rows.Next() {
		var p models.Prompt
		if err := rows.Scan(&p.ID, &p.Query, &p.Response, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}
