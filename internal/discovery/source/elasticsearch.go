package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"provider-discovery/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultSearchSize = 1000

// ElasticsearchSource reads providers from the search index. Documents use
// the ProviderRecord JSON shape.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
	size   int
}

func NewElasticsearchSource(client *elasticsearch.Client, index string, size int) *ElasticsearchSource {
	if size <= 0 {
		size = DefaultSearchSize
	}
	return &ElasticsearchSource{client: client, index: index, size: size}
}

func (s *ElasticsearchSource) ListProviders(ctx context.Context) ([]models.ProviderRecord, error) {
	return s.search(ctx, BuildProviderQuery(models.FilterCriteria{}))
}

func (s *ElasticsearchSource) SearchProviders(ctx context.Context, criteria models.FilterCriteria) ([]models.ProviderRecord, error) {
	return s.search(ctx, BuildProviderQuery(criteria))
}

func (s *ElasticsearchSource) GetProviders(ctx context.Context, ids []string) ([]models.ProviderRecord, error) {
	if len(ids) == 0 {
		return []models.ProviderRecord{}, nil
	}
	return s.search(ctx, map[string]interface{}{
		"query": map[string]interface{}{
			"ids": map[string]interface{}{"values": ids},
		},
		"sort": newestFirst(),
	})
}

// BuildProviderQuery translates criteria into a bool filter that can only
// widen, never narrow, what the in-memory engine keeps. Search and text
// matches use case-insensitive wildcard/term queries on keyword subfields.
func BuildProviderQuery(c models.FilterCriteria) map[string]interface{} {
	var filters []interface{}

	if term := strings.TrimSpace(c.Search); term != "" {
		pattern := "*" + escapeWildcard(strings.ToLower(term)) + "*"
		filters = append(filters, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					wildcard("businessName.keyword", pattern),
					wildcard("services.keyword", pattern),
				},
				"minimum_should_match": 1,
			},
		})
	}
	if c.Category != nil {
		filters = append(filters, caseInsensitiveTerm("services.keyword", *c.Category))
	}
	if c.Municipality != nil {
		filters = append(filters, caseInsensitiveTerm("municipality.keyword", *c.Municipality))
	}
	if c.VerifiedOnly {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"verified": true},
		})
	}
	if c.MinRating != nil {
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{
				"rating": map[string]interface{}{"gte": *c.MinRating},
			},
		})
	}

	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(filters) > 0 {
		query = map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		}
	}
	return map[string]interface{}{
		"query": query,
		"sort":  newestFirst(),
	}
}

func newestFirst() []interface{} {
	return []interface{}{
		map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		map[string]interface{}{"_doc": map[string]interface{}{"order": "asc"}},
	}
}

func wildcard(field, pattern string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{"value": pattern, "case_insensitive": true},
		},
	}
}

func caseInsensitiveTerm(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{
			field: map[string]interface{}{"value": value, "case_insensitive": true},
		},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                `json:"_id"`
			Source models.ProviderRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) search(ctx context.Context, body map[string]interface{}) ([]models.ProviderRecord, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchUnavailable, err)
	}

	size := s.size
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(payload)),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search failed: %s", ErrSearchUnavailable, res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode hits: %v", ErrSearchUnavailable, err)
	}

	out := make([]models.ProviderRecord, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		p := hit.Source
		if p.ID == "" {
			p.ID = hit.ID
		}
		if p.Services == nil {
			p.Services = []string{}
		}
		out = append(out, p)
	}
	return out, nil
}
