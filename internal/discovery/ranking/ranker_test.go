package ranking

import (
	"testing"

	"provider-discovery/internal/common/config"
	"provider-discovery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRanker(t *testing.T) *Ranker {
	r, err := NewRanker(DefaultWeights(), DefaultReviewThreshold)
	require.NoError(t, err)
	return r
}

func analysis(services ...string) models.ProjectAnalysis {
	return models.ProjectAnalysis{DetectedServices: services, Urgency: models.UrgencyMedium}
}

// ==========================
// Scoring
// ==========================

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		detected []string
		provider models.ProviderRecord
		want     int
		reasons  []string
	}{
		{
			name:     "perfect provider",
			detected: []string{"Plumbing"},
			provider: models.ProviderRecord{ID: "a", Services: []string{"plumbing"}, Rating: 5, ReviewCount: 80, Verified: true, Featured: true, TopRated: true},
			want:     100,
			reasons:  []string{ReasonHighServiceMatch, ReasonHighlyRated, ReasonVerified, ReasonFeatured, ReasonTopRated, ReasonExperienced},
		},
		{
			name:     "partial overlap",
			detected: []string{"Plumbing", "Electrical", "Painting"},
			provider: models.ProviderRecord{ID: "b", Services: []string{"Electrical"}, Rating: 4, ReviewCount: 25},
			want:     42, // 50/3 + 20 + 5
			reasons:  []string{ReasonPartialServiceMatch},
		},
		{
			name:     "half overlap counts as high",
			detected: []string{"Plumbing", "Electrical"},
			provider: models.ProviderRecord{ID: "c", Services: []string{"Plumbing"}},
			want:     25,
			reasons:  []string{ReasonHighServiceMatch},
		},
		{
			name:     "zero overlap still scored",
			detected: []string{"Roofing"},
			provider: models.ProviderRecord{ID: "d", Services: []string{"Cleaning"}, Rating: 4.6, Verified: true},
			want:     33, // 23 + 10
			reasons:  []string{ReasonHighlyRated, ReasonVerified},
		},
		{
			name:     "duplicate detected services count once",
			detected: []string{"Plumbing", "plumbing", " PLUMBING "},
			provider: models.ProviderRecord{ID: "e", Services: []string{"Plumbing"}},
			want:     50,
			reasons:  []string{ReasonHighServiceMatch},
		},
		{
			name:     "nothing detected",
			detected: nil,
			provider: models.ProviderRecord{ID: "f", Services: []string{"Plumbing"}, Rating: 2.5},
			want:     13,
			reasons:  []string{},
		},
		{
			name:     "out of range rating is clamped",
			detected: []string{"Plumbing"},
			provider: models.ProviderRecord{ID: "g", Services: []string{"Plumbing"}, Rating: 9, ReviewCount: 500, Verified: true, Featured: true},
			want:     100,
			reasons:  []string{ReasonHighServiceMatch, ReasonHighlyRated, ReasonVerified, ReasonFeatured, ReasonExperienced},
		},
	}

	r := newTestRanker(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Score(analysis(tt.detected...), tt.provider)
			assert.Equal(t, tt.want, got.CompatibilityScore)
			assert.Equal(t, tt.reasons, got.Reasons)
			assert.Equal(t, tt.provider.ID, got.Provider.ID)
		})
	}
}

// ==========================
// Ordering
// ==========================

func TestRank_Ordering(t *testing.T) {
	candidates := []models.ProviderRecord{
		{ID: "z-low", Services: []string{"Cleaning"}, Rating: 3},
		{ID: "b-tie", Services: []string{"Plumbing"}, Rating: 4},
		{ID: "a-tie", Services: []string{"Plumbing"}, Rating: 4},
		{ID: "best", Services: []string{"Plumbing"}, Rating: 5, Verified: true},
		{ID: "runner-up", Services: []string{"Plumbing"}, Rating: 4.2},
	}

	got := newTestRanker(t).Rank(analysis("Plumbing"), candidates)

	require.Len(t, got, 5)
	order := make([]string, len(got))
	for i, m := range got {
		order[i] = m.Provider.ID
	}
	// best 85, runner-up 71, a/b-tie 70 each, z-low 15
	assert.Equal(t, []string{"best", "runner-up", "a-tie", "b-tie", "z-low"}, order)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].CompatibilityScore, got[i].CompatibilityScore)
	}
}

func TestRank_SameScoreFallsBackToRatingThenID(t *testing.T) {
	// verified adds 10 points that a 2-point rating gap offsets exactly
	candidates := []models.ProviderRecord{
		{ID: "b", Services: []string{"Painting"}, Rating: 3},
		{ID: "c", Services: []string{"Painting"}, Rating: 5},
		{ID: "a", Services: []string{"Painting"}, Rating: 3},
	}
	weights := Weights{ServiceOverlap: 50, Rating: 25, Verified: 10, Featured: 5, Experience: 10}
	r, err := NewRanker(weights, 50)
	require.NoError(t, err)

	candidates[0].Verified = true
	candidates[2].Verified = true
	got := r.Rank(analysis("Painting"), candidates)

	// b and a: 50 + 15 + 10 = 75; c: 50 + 25 = 75
	assert.Equal(t, "c", got[0].Provider.ID)
	assert.Equal(t, "a", got[1].Provider.ID)
	assert.Equal(t, "b", got[2].Provider.ID)
}

func TestRank_EmptyCandidates(t *testing.T) {
	got := newTestRanker(t).Rank(analysis("Plumbing"), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRank_ScoresInRange(t *testing.T) {
	r := newTestRanker(t)
	candidates := []models.ProviderRecord{
		{ID: "1", Rating: -3, ReviewCount: -10},
		{ID: "2", Rating: 100, ReviewCount: 1 << 20, Verified: true, Featured: true, Services: []string{"X"}},
	}
	for _, m := range r.Rank(analysis("X"), candidates) {
		assert.GreaterOrEqual(t, m.CompatibilityScore, 0)
		assert.LessOrEqual(t, m.CompatibilityScore, 100)
	}
}

// ==========================
// Weights
// ==========================

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{name: "defaults", weights: DefaultWeights()},
		{name: "alternative table", weights: Weights{ServiceOverlap: 40, Rating: 30, Verified: 15, Featured: 5, Experience: 10}},
		{name: "sums to 90", weights: Weights{ServiceOverlap: 40, Rating: 25, Verified: 10, Featured: 5, Experience: 10}, wantErr: true},
		{name: "negative component", weights: Weights{ServiceOverlap: 110, Rating: -10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRanker(tt.weights, 0)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWeights)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWeightsFromConfig(t *testing.T) {
	assert.Equal(t, DefaultWeights(), WeightsFromConfig(config.MatchingConfig{}))

	var cfg config.MatchingConfig
	cfg.Weights.ServiceOverlap = 60
	cfg.Weights.Rating = 20
	cfg.Weights.Verified = 10
	cfg.Weights.Featured = 5
	cfg.Weights.Experience = 5
	assert.Equal(t, Weights{ServiceOverlap: 60, Rating: 20, Verified: 10, Featured: 5, Experience: 5}, WeightsFromConfig(cfg))
}

func BenchmarkRank(b *testing.B) {
	r, _ := NewRanker(DefaultWeights(), DefaultReviewThreshold)
	candidates := make([]models.ProviderRecord, 500)
	for i := range candidates {
		candidates[i] = models.ProviderRecord{
			ID:          string(rune('a' + i%26)),
			Services:    []string{"Plumbing", "Electrical"},
			Rating:      float64(i%50) / 10,
			ReviewCount: i,
		}
	}
	a := analysis("Plumbing", "Roofing")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Rank(a, candidates)
	}
}
