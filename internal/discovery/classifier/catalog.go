package classifier

import (
	"strings"

	"provider-discovery/internal/common/config"
	"provider-discovery/internal/models"
)

// Category is one service category with the keywords that detect it offline
// and its typical cost range.
type Category struct {
	Name     string
	Keywords []string
	CostMin  float64
	CostMax  float64
}

// Catalog is the single table the fallback classifier and its tests read from.
type Catalog struct {
	Categories []Category
	Generic    Category
	Currency   string
}

// DefaultCatalog returns the built-in category table. Costs are in PHP.
func DefaultCatalog() Catalog {
	return Catalog{
		Currency: "PHP",
		Generic:  Category{Name: "General Services", CostMin: 1000, CostMax: 5000},
		Categories: []Category{
			{Name: "Plumbing", CostMin: 1500, CostMax: 5000,
				Keywords: []string{"plumb", "faucet", "pipe", "leak", "drain", "toilet", "sink", "clog", "water heater", "shower"}},
			{Name: "Electrical", CostMin: 2000, CostMax: 8000,
				Keywords: []string{"electric", "wire", "wiring", "outlet", "breaker", "switch", "socket", "spark", "light fixture"}},
			{Name: "Carpentry", CostMin: 3000, CostMax: 15000,
				Keywords: []string{"carpent", "cabinet", "door", "wood", "furniture", "shelf", "shelves", "termite"}},
			{Name: "Painting", CostMin: 5000, CostMax: 20000,
				Keywords: []string{"paint", "repaint", "peeling", "wall finish", "primer"}},
			{Name: "Roofing", CostMin: 8000, CostMax: 40000,
				Keywords: []string{"roof", "gutter", "shingle", "yero"}},
			{Name: "Appliance Repair", CostMin: 1000, CostMax: 4000,
				Keywords: []string{"appliance", "refrigerator", "fridge", "washing machine", "aircon", "air conditioner", "microwave", "oven"}},
			{Name: "Cleaning", CostMin: 1000, CostMax: 3500,
				Keywords: []string{"clean", "mold", "mould", "sanitize", "disinfect"}},
		},
	}
}

// CatalogFromConfig overlays configured values on the default catalog. An
// empty configured category list keeps the built-in categories.
func CatalogFromConfig(cfg config.ClassifierConfig) Catalog {
	c := DefaultCatalog()
	if cfg.Currency != "" {
		c.Currency = cfg.Currency
	}
	if cfg.GenericCategory != "" {
		c.Generic.Name = cfg.GenericCategory
	}
	if cfg.GenericCostMax > 0 && cfg.GenericCostMax >= cfg.GenericCostMin {
		c.Generic.CostMin = cfg.GenericCostMin
		c.Generic.CostMax = cfg.GenericCostMax
	}
	if len(cfg.Catalog) > 0 {
		c.Categories = make([]Category, 0, len(cfg.Catalog))
		for _, cat := range cfg.Catalog {
			c.Categories = append(c.Categories, Category{
				Name:     cat.Name,
				Keywords: cat.Keywords,
				CostMin:  cat.CostMin,
				CostMax:  cat.CostMax,
			})
		}
	}
	return c
}

// Detect returns the categories whose keywords occur in text, in catalog
// order. text is matched case-insensitively. With no match it returns the
// generic category.
func (c Catalog) Detect(text string) []Category {
	lower := strings.ToLower(text)
	var out []Category
	for _, cat := range c.Categories {
		for _, kw := range cat.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				out = append(out, cat)
				break
			}
		}
	}
	if len(out) == 0 {
		return []Category{c.Generic}
	}
	return out
}

// EstimateCost sums the ranges of the given categories.
func (c Catalog) EstimateCost(cats []Category) models.CostRange {
	r := models.CostRange{Currency: c.Currency}
	for _, cat := range cats {
		r.Min += cat.CostMin
		r.Max += cat.CostMax
	}
	return r
}

var (
	emergencyWords = []string{"emergency", "flood", "fire", "sparking", "burst"}
	highWords      = []string{"leak", "urgent", "asap", "broken"}
	lowWords       = []string{"no rush", "whenever"}
)

// DetectUrgency applies the keyword tiers in order: emergency, high, low.
func DetectUrgency(text string) models.Urgency {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, emergencyWords):
		return models.UrgencyEmergency
	case containsAny(lower, highWords):
		return models.UrgencyHigh
	case containsAny(lower, lowWords):
		return models.UrgencyLow
	default:
		return models.UrgencyMedium
	}
}

// Timeframe maps urgency to the expected scheduling window.
func Timeframe(u models.Urgency) string {
	switch u {
	case models.UrgencyEmergency:
		return "Within 24 hours"
	case models.UrgencyHigh:
		return "Within 1-3 days"
	case models.UrgencyLow:
		return "Within 2-4 weeks"
	default:
		return "Within 1 week"
	}
}

// Complexity is 5 for one category plus one per additional category, at most 10.
func Complexity(categoryCount int) int {
	score := 5 + categoryCount - 1
	if categoryCount < 1 {
		score = 5
	}
	if score > 10 {
		score = 10
	}
	return score
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
