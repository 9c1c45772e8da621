package source

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	commonerrors "provider-discovery/internal/common/errors"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/common/metrics"
	"provider-discovery/internal/models"

	"github.com/redis/go-redis/v9"
)

const CacheKeyPrefix = "discovery:providers:"

// CachedSource keeps a JSON snapshot of the inner source's provider list in
// Redis. Cache errors are logged and the inner source is used directly.
type CachedSource struct {
	inner  ProviderSource
	client redis.Cmdable
	key    string
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(inner ProviderSource, client redis.Cmdable, name string, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{
		inner:  inner,
		client: client,
		key:    CacheKeyPrefix + name,
		ttl:    ttl,
		logger: log,
	}
}

func (s *CachedSource) ListProviders(ctx context.Context) ([]models.ProviderRecord, error) {
	if records, ok := s.read(ctx); ok {
		return records, nil
	}

	records, err := s.inner.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	s.write(ctx, records)
	return records, nil
}

// GetProviders is not cached.
func (s *CachedSource) GetProviders(ctx context.Context, ids []string) ([]models.ProviderRecord, error) {
	if l, ok := s.inner.(Lookup); ok {
		return l.GetProviders(ctx, ids)
	}
	all, err := s.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	return StaticSource(all).GetProviders(ctx, ids)
}

// Invalidate drops the snapshot so the next read goes to the inner source.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func (s *CachedSource) read(ctx context.Context) ([]models.ProviderRecord, bool) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ProviderCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.ProviderCacheLookups.WithLabelValues("error").Inc()
		s.warn("provider cache read failed", err)
		return nil, false
	}

	var records []models.ProviderRecord
	if err := json.Unmarshal(data, &records); err != nil {
		metrics.ProviderCacheLookups.WithLabelValues("error").Inc()
		s.warn("provider cache entry is corrupt", err)
		return nil, false
	}
	metrics.ProviderCacheLookups.WithLabelValues("hit").Inc()
	return records, true
}

func (s *CachedSource) write(ctx context.Context, records []models.ProviderRecord) {
	data, err := json.Marshal(records)
	if err != nil {
		s.warn("provider cache encode failed", err)
		return
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		s.warn("provider cache write failed", err)
	}
}

func (s *CachedSource) warn(msg string, err error) {
	stdErr := commonerrors.NewCacheFailedError(err)
	s.logger.Warn(msg, map[string]interface{}{
		"key":       s.key,
		"errorCode": string(stdErr.Code),
		"error":     err,
	})
}
