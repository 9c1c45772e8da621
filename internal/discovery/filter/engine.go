// Package filter applies search criteria and sort orders to provider lists.
package filter

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"provider-discovery/internal/discovery/geo"
	"provider-discovery/internal/models"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidCriteria = errors.New("INVALID_CRITERIA")

// Engine filters and sorts providers. It is safe for concurrent use.
type Engine struct {
	validate *validator.Validate
}

func NewEngine() *Engine {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Engine{validate: v}
}

// Validate checks criteria without touching any providers.
func (e *Engine) Validate(c models.FilterCriteria) error {
	if err := e.validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %s (value %v)", ErrInvalidCriteria, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}
	if c.SortBy == models.SortDistance && c.Origin == nil {
		return fmt.Errorf("%w: sortBy distance requires an origin", ErrInvalidCriteria)
	}
	return nil
}

// Filter returns every provider matching c, sorted by c.SortBy. The input
// slice is never modified. An empty result is not an error.
func (e *Engine) Filter(providers []models.ProviderRecord, c models.FilterCriteria) ([]models.ProviderRecord, error) {
	if err := e.Validate(c); err != nil {
		return nil, err
	}

	match := predicate(c)
	out := make([]models.ProviderRecord, 0, len(providers))
	for _, p := range providers {
		if match(p) {
			out = append(out, p)
		}
	}

	sortProviders(out, c)
	return out, nil
}

func predicate(c models.FilterCriteria) func(models.ProviderRecord) bool {
	search := strings.ToLower(strings.TrimSpace(c.Search))

	return func(p models.ProviderRecord) bool {
		if search != "" && !matchesSearch(p, search) {
			return false
		}
		if c.Category != nil && !hasService(p, *c.Category) {
			return false
		}
		if c.Municipality != nil && !strings.EqualFold(p.Municipality, *c.Municipality) {
			return false
		}
		if c.VerifiedOnly && !p.Verified {
			return false
		}
		if c.MinRating != nil && p.Rating < *c.MinRating {
			return false
		}
		return true
	}
}

func matchesSearch(p models.ProviderRecord, term string) bool {
	if strings.Contains(strings.ToLower(p.BusinessName), term) {
		return true
	}
	for _, s := range p.Services {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func hasService(p models.ProviderRecord, category string) bool {
	for _, s := range p.Services {
		if strings.EqualFold(s, category) {
			return true
		}
	}
	return false
}

func sortProviders(ps []models.ProviderRecord, c models.FilterCriteria) {
	switch c.SortBy {
	case models.SortRating:
		sort.SliceStable(ps, func(i, j int) bool {
			if ps[i].Rating != ps[j].Rating {
				return ps[i].Rating > ps[j].Rating
			}
			return ps[i].ReviewCount > ps[j].ReviewCount
		})
	case models.SortName:
		sort.SliceStable(ps, func(i, j int) bool {
			return strings.ToLower(ps[i].BusinessName) < strings.ToLower(ps[j].BusinessName)
		})
	case models.SortDistance:
		sortByDistance(ps, *c.Origin)
	default:
		// newest: sources already return newest first
	}
}

// sortByDistance orders located providers nearest first; providers without a
// location follow in their original order.
func sortByDistance(ps []models.ProviderRecord, origin models.Coordinate) {
	type entry struct {
		p    models.ProviderRecord
		dist float64
		has  bool
	}
	entries := make([]entry, len(ps))
	for i, p := range ps {
		entries[i] = entry{p: p}
		if p.Location != nil {
			entries[i].dist = geo.DistanceKm(origin, *p.Location)
			entries[i].has = true
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.has != b.has {
			return a.has
		}
		return a.has && a.dist < b.dist
	})

	for i := range entries {
		ps[i] = entries[i].p
	}
}
