package chat

import (
	"context"
	"encoding/json"
	"errors"

	"dormbot/internal/log"
	"dormbot/internal/models"
	"dormbot/internal/redis"
)

const promptsKey = "prompts"

// cachedPrompts serves the prompt list from redis. Misses are filled from the
// database once per key no matter how many requests are waiting. Redis
// failures fall through to the database.
func (s *Service) cachedPrompts(ctx context.Context) ([]models.Prompt, error) {
	key := s.cache.Key(promptsKey)
	logger := log.Ctx(ctx)

	raw, err := s.cache.Get(ctx, key)
	if err == nil {
		var prompts []models.Prompt
		if err := json.Unmarshal([]byte(raw), &prompts); err == nil {
			return prompts, nil
		}
		logger.Warn().Str("key", key).Msg("discarding undecodable prompt cache entry")
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		logger.Warn().Err(err).Str("key", key).Msg("prompt cache read failed")
	}

	v, err, _ := s.fill.Do(key, func() (interface{}, error) {
		prompts, err := s.loadPrompts(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(prompts); err == nil {
			if err := s.cache.Set(ctx, key, data, s.promptTTL); err != nil {
				l := log.Ctx(ctx)
				l.Warn().Err(err).Str("key", key).Msg("prompt cache write failed")
			}
		}
		return prompts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Prompt), nil
}

func (s *Service) invalidatePrompts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	key := s.cache.Key(promptsKey)
	if err := s.cache.Del(ctx, key); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("prompt cache invalidation failed")
	}
}
