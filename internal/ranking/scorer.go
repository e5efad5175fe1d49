// Package ranking turns the materialized promotion flags into a search boost.
// Scoring is pure: it reads flags and the catalog and never touches storage,
// so search can call it per result row without I/O.
package ranking

import (
	"sort"
	"time"

	"trustgate/internal/catalog"
	"trustgate/internal/listing/models"
	id "trustgate/pkg/domain"
)

type Scorer struct {
	catalog *catalog.Catalog
}

func NewScorer(cat *catalog.Catalog) *Scorer {
	return &Scorer{catalog: cat}
}

// Score computes the promotion boost for one listing at the given instant.
// Only the highest live placement tier counts; containment already folds the
// lower tiers into it. Enhancement bonuses stack on top. The verified badge
// is display-only and contributes nothing.
func (s *Scorer) Score(p *models.Promotion, now time.Time) int {
	score := 0
	for _, tier := range id.PlacementTiers() {
		if p.State(tier).ActiveAt(now) {
			score = s.catalog.Weight(tier)
			break
		}
	}
	if p.AIEnhanced {
		score += s.catalog.AIEnhancedBonus()
	}
	if p.SpecSheet {
		score += s.catalog.SpecSheetBonus()
	}
	return score
}

// Entry pairs a listing with its computed boost for ranking.
type Entry struct {
	Promotion *models.Promotion
	Score     int
}

// Rank orders entries by score descending. Equal scores rank the newer
// listing first; target ID is the final tiebreak so the ordering is stable
// across calls and replicas.
func (s *Scorer) Rank(promotions []*models.Promotion, now time.Time) []Entry {
	entries := make([]Entry, len(promotions))
	for i, p := range promotions {
		entries[i] = Entry{Promotion: p, Score: s.Score(p, now)}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].Promotion.CreatedAt.Equal(entries[j].Promotion.CreatedAt) {
			return entries[i].Promotion.CreatedAt.After(entries[j].Promotion.CreatedAt)
		}
		return entries[i].Promotion.TargetID.String() < entries[j].Promotion.TargetID.String()
	})
	return entries
}
