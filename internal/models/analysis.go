// internal/models/analysis.go
package models

import "strings"

type Urgency string

const (
	UrgencyLow       Urgency = "LOW"
	UrgencyMedium    Urgency = "MEDIUM"
	UrgencyHigh      Urgency = "HIGH"
	UrgencyEmergency Urgency = "EMERGENCY"
)

var urgencyRank = map[Urgency]int{
	UrgencyLow:       1,
	UrgencyMedium:    2,
	UrgencyHigh:      3,
	UrgencyEmergency: 4,
}

// ParseUrgency accepts any casing. The second return is false for unknown values.
func ParseUrgency(s string) (Urgency, bool) {
	u := Urgency(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := urgencyRank[u]
	return u, ok
}

// AtLeast reports whether u is as urgent as other.
func (u Urgency) AtLeast(other Urgency) bool {
	return urgencyRank[u] >= urgencyRank[other]
}

type CostRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type ProjectAnalysis struct {
	DetectedServices []string  `json:"detectedServices"`
	Urgency          Urgency   `json:"urgency"`
	EstimatedCost    CostRange `json:"estimatedCost"`
	ComplexityScore  int       `json:"complexityScore"`
	Confidence       float64   `json:"confidence"`
	Timeframe        string    `json:"timeframe"`
	SourceIsFallback bool      `json:"sourceIsFallback"`
	RequestID        string    `json:"requestId,omitempty"`
}

type MatchResult struct {
	Provider           ProviderRecord `json:"provider"`
	CompatibilityScore int            `json:"compatibilityScore"`
	Reasons            []string       `json:"reasons"`
}
