// Package ranking scores providers against a project analysis.
package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"provider-discovery/internal/common/config"
	"provider-discovery/internal/common/metrics"
	"provider-discovery/internal/models"
)

var ErrInvalidWeights = errors.New("INVALID_WEIGHTS")

const (
	DefaultReviewThreshold = 50
	highlyRatedThreshold   = 4.5
	highOverlapThreshold   = 0.5
)

const (
	ReasonHighServiceMatch    = "High service match"
	ReasonPartialServiceMatch = "Partial service match"
	ReasonHighlyRated         = "Highly rated"
	ReasonVerified            = "Verified provider"
	ReasonFeatured            = "Featured provider"
	ReasonTopRated            = "Top rated provider"
	ReasonExperienced         = "Experienced provider"
)

// Weights is the point budget of each score component. It must sum to 100.
type Weights struct {
	ServiceOverlap float64 `json:"serviceOverlap"`
	Rating         float64 `json:"rating"`
	Verified       float64 `json:"verified"`
	Featured       float64 `json:"featured"`
	Experience     float64 `json:"experience"`
}

func DefaultWeights() Weights {
	return Weights{
		ServiceOverlap: 50,
		Rating:         25,
		Verified:       10,
		Featured:       5,
		Experience:     10,
	}
}

func (w Weights) Sum() float64 {
	return w.ServiceOverlap + w.Rating + w.Verified + w.Featured + w.Experience
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"serviceOverlap": w.ServiceOverlap,
		"rating":         w.Rating,
		"verified":       w.Verified,
		"featured":       w.Featured,
		"experience":     w.Experience,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidWeights, name, v)
		}
	}
	if math.Abs(w.Sum()-100) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %v, want 100", ErrInvalidWeights, w.Sum())
	}
	return nil
}

// WeightsFromConfig returns the configured table, or the defaults when none is set.
func WeightsFromConfig(cfg config.MatchingConfig) Weights {
	w := Weights{
		ServiceOverlap: cfg.Weights.ServiceOverlap,
		Rating:         cfg.Weights.Rating,
		Verified:       cfg.Weights.Verified,
		Featured:       cfg.Weights.Featured,
		Experience:     cfg.Weights.Experience,
	}
	if w.Sum() == 0 {
		return DefaultWeights()
	}
	return w
}

type Ranker struct {
	weights         Weights
	reviewThreshold int
}

// NewRanker validates the weight table. reviewThreshold <= 0 selects the default.
func NewRanker(weights Weights, reviewThreshold int) (*Ranker, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if reviewThreshold <= 0 {
		reviewThreshold = DefaultReviewThreshold
	}
	return &Ranker{weights: weights, reviewThreshold: reviewThreshold}, nil
}

// Rank scores every candidate and orders them by score, rating and id.
// Candidates with no service overlap are still returned.
func (r *Ranker) Rank(analysis models.ProjectAnalysis, candidates []models.ProviderRecord) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(candidates))
	detected := distinctLower(analysis.DetectedServices)

	for _, p := range candidates {
		res := r.score(detected, p)
		metrics.MatchScores.Observe(float64(res.CompatibilityScore))
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.CompatibilityScore != b.CompatibilityScore {
			return a.CompatibilityScore > b.CompatibilityScore
		}
		if a.Provider.Rating != b.Provider.Rating {
			return a.Provider.Rating > b.Provider.Rating
		}
		return a.Provider.ID < b.Provider.ID
	})
	return results
}

// Score rates a single provider.
func (r *Ranker) Score(analysis models.ProjectAnalysis, p models.ProviderRecord) models.MatchResult {
	return r.score(distinctLower(analysis.DetectedServices), p)
}

func (r *Ranker) score(detected []string, p models.ProviderRecord) models.MatchResult {
	reasons := []string{}
	w := r.weights

	overlap := Overlap(detected, p.Services)
	total := overlap * w.ServiceOverlap
	switch {
	case overlap >= highOverlapThreshold:
		reasons = append(reasons, ReasonHighServiceMatch)
	case overlap > 0:
		reasons = append(reasons, ReasonPartialServiceMatch)
	}

	rating := math.Max(0, math.Min(p.Rating, 5))
	total += rating / 5 * w.Rating
	if rating >= highlyRatedThreshold {
		reasons = append(reasons, ReasonHighlyRated)
	}

	if p.Verified {
		total += w.Verified
		reasons = append(reasons, ReasonVerified)
	}
	if p.Featured {
		total += w.Featured
		reasons = append(reasons, ReasonFeatured)
	}
	if p.TopRated {
		reasons = append(reasons, ReasonTopRated)
	}

	experience := math.Max(0, math.Min(float64(p.ReviewCount)/float64(r.reviewThreshold), 1))
	total += experience * w.Experience
	if p.ReviewCount >= r.reviewThreshold {
		reasons = append(reasons, ReasonExperienced)
	}

	return models.MatchResult{
		Provider:           p,
		CompatibilityScore: clampScore(total),
		Reasons:            reasons,
	}
}

// Overlap is the share of detected services (already lower-cased and
// distinct) that the provider offers. It is 0 when nothing was detected.
func Overlap(detected, services []string) float64 {
	if len(detected) == 0 {
		return 0
	}
	offered := make(map[string]bool, len(services))
	for _, s := range services {
		offered[strings.ToLower(strings.TrimSpace(s))] = true
	}
	hits := 0
	for _, d := range detected {
		if offered[d] {
			hits++
		}
	}
	return float64(hits) / float64(len(detected))
}

func distinctLower(services []string) []string {
	seen := make(map[string]bool, len(services))
	out := make([]string, 0, len(services))
	for _, s := range services {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

func clampScore(v float64) int {
	score := int(math.Round(v))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
