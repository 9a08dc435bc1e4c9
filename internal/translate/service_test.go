package translate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwporter/dwporter/internal/cache"
	"github.com/dwporter/dwporter/internal/translate/mock"
	"github.com/dwporter/dwporter/pkg/models"
)

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	gets  int
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.items[key] = value
	return nil
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if v, ok := m.items[key]; ok {
		return v, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *memoryCache) Delete(ctx context.Context, key string) error { return nil }
func (m *memoryCache) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, nil
}
func (m *memoryCache) Ping(ctx context.Context) error { return nil }
func (m *memoryCache) Close() error                   { return nil }

func req(sql string) models.TranslationRequest {
	return models.TranslationRequest{
		SourceSystem:  "postgres",
		SourceSQL:     sql,
		ModelID:       "databricks-llama-4-maverick",
		TargetCatalog: "main",
		TargetSchema:  "analytics",
	}
}

func TestServiceCachesResults(t *testing.T) {
	var calls int
	backend := &mock.Translator{
		TranslateFunc: func(ctx context.Context, r models.TranslationRequest) (models.TranslationResult, error) {
			calls++
			return models.TranslationResult{TranslatedSQL: "SELECT 1", ModelUsed: r.ModelID}, nil
		},
	}
	c := newMemoryCache()
	svc := NewService(backend, c, time.Hour)

	first, err := svc.Translate(context.Background(), req("SELECT 1"))
	require.NoError(t, err)
	second, err := svc.Translate(context.Background(), req("SELECT 1"))
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second call must be served from cache")
	assert.Equal(t, first.TranslatedSQL, second.TranslatedSQL)
	assert.Equal(t, 1, c.sets)
}

func TestServiceCacheKeyCoversRequestFields(t *testing.T) {
	var calls int
	backend := &mock.Translator{
		TranslateFunc: func(ctx context.Context, r models.TranslationRequest) (models.TranslationResult, error) {
			calls++
			return models.TranslationResult{TranslatedSQL: r.SourceSQL}, nil
		},
	}
	svc := NewService(backend, newMemoryCache(), time.Hour)

	_, err := svc.Translate(context.Background(), req("SELECT 1"))
	require.NoError(t, err)

	other := req("SELECT 1")
	other.ModelID = "databricks-gpt-5"
	_, err = svc.Translate(context.Background(), other)
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "different model must not hit the same cache entry")
}

func TestServiceFailuresAreNotCached(t *testing.T) {
	backend := mock.NewFailingTranslator(ErrTranslatorUnavailable)
	c := newMemoryCache()
	svc := NewService(backend, c, time.Hour)

	_, err := svc.Translate(context.Background(), req("SELECT 1"))
	assert.ErrorIs(t, err, ErrTranslatorUnavailable)
	assert.Equal(t, 0, c.sets)
}

func TestServiceNilCache(t *testing.T) {
	svc := NewService(mock.NewFixedTranslator("SELECT 2"), nil, time.Hour)

	result, err := svc.Translate(context.Background(), req("SELECT 1"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", result.TranslatedSQL)
}

func TestServiceSurvivesCorruptCacheEntry(t *testing.T) {
	c := newMemoryCache()
	r := req("SELECT 1")
	c.items[cache.TranslationKey(requestHash(r))] = []byte("{not json")

	svc := NewService(mock.NewFixedTranslator("SELECT 3"), c, time.Hour)
	result, err := svc.Translate(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 3", result.TranslatedSQL)
}
