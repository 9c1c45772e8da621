// Package source loads provider records for the discovery engine.
package source

import (
	"context"
	"errors"

	commonerrors "provider-discovery/internal/common/errors"
	"provider-discovery/internal/models"
)

var (
	// ErrSourceUnavailable wraps failures of the primary provider store.
	ErrSourceUnavailable = errors.New("PROVIDER_SOURCE_FAILED")
	// ErrSearchUnavailable wraps failures of the search index.
	ErrSearchUnavailable = errors.New("PROVIDER_SEARCH_FAILED")
)

// ProviderSource returns every active provider, newest first.
type ProviderSource interface {
	ListProviders(ctx context.Context) ([]models.ProviderRecord, error)
}

// Lookup fetches specific providers. Unknown ids are skipped.
type Lookup interface {
	GetProviders(ctx context.Context, ids []string) ([]models.ProviderRecord, error)
}

// Searcher narrows providers server-side. The result is always a superset
// of what filter.Engine would keep for the same criteria, so the engine
// still runs afterwards.
type Searcher interface {
	SearchProviders(ctx context.Context, criteria models.FilterCriteria) ([]models.ProviderRecord, error)
}

// Fetch uses the source's server-side search when it has one.
func Fetch(ctx context.Context, src ProviderSource, criteria models.FilterCriteria) ([]models.ProviderRecord, error) {
	if s, ok := src.(Searcher); ok {
		return s.SearchProviders(ctx, criteria)
	}
	return src.ListProviders(ctx)
}

// JobError maps a fetch failure onto the worker error taxonomy. name is the
// configured source, used in the error details.
func JobError(name string, err error) *commonerrors.StandardError {
	if errors.Is(err, ErrSearchUnavailable) {
		return commonerrors.NewProviderSearchFailedError(name, err)
	}
	return commonerrors.NewProviderSourceFailedError(name, err)
}

// StaticSource serves a fixed list, for the CLI and tests.
type StaticSource []models.ProviderRecord

func (s StaticSource) ListProviders(context.Context) ([]models.ProviderRecord, error) {
	return append([]models.ProviderRecord(nil), s...), nil
}

func (s StaticSource) GetProviders(_ context.Context, ids []string) ([]models.ProviderRecord, error) {
	byID := make(map[string]models.ProviderRecord, len(s))
	for _, p := range s {
		byID[p.ID] = p
	}
	out := make([]models.ProviderRecord, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
