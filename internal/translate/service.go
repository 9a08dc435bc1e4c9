package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dwporter/dwporter/internal/cache"
	"github.com/dwporter/dwporter/pkg/models"
)

// Service wraps a translation backend with a Redis result cache. Identical
// statements appear many times across a warehouse, and backend calls are the
// expensive part of a migration, so hits are worth real money.
type Service struct {
	translator models.Translator
	cache      cache.Cache
	ttl        time.Duration
}

var _ models.Translator = (*Service)(nil)

// NewService wraps translator with the given cache. A nil cache disables
// caching entirely.
func NewService(translator models.Translator, c cache.Cache, ttl time.Duration) *Service {
	return &Service{translator: translator, cache: c, ttl: ttl}
}

func (s *Service) Name() string { return s.translator.Name() }

func (s *Service) Translate(ctx context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
	key := cache.TranslationKey(requestHash(req))

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var result models.TranslationResult
			if err := json.Unmarshal(data, &result); err == nil {
				return result, nil
			}
			// Unreadable entry, fall through and overwrite it.
			slog.Warn("discarding corrupt translation cache entry", "key", key)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("translation cache read failed", "error", err)
		}
	}

	result, err := s.translator.Translate(ctx, req)
	if err != nil {
		return models.TranslationResult{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				slog.Warn("translation cache write failed", "error", err)
			}
		}
	}
	return result, nil
}

// requestHash identifies a translation request by everything that affects its
// output.
func requestHash(req models.TranslationRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s",
		req.SourceSystem, req.ModelID, req.TargetCatalog, req.TargetSchema, req.SourceSQL)
	return hex.EncodeToString(h.Sum(nil))
}
