package search

import (
	"sort"
	"strings"

	"github.com/promethia-ai/promethia/internal/domain"
)

// trustedDomains each add a fixed bonus when present in a URL.
var trustedDomains = []string{
	".gov", ".edu", "who.int", "nih.gov", "ieee.org",
	"nature.com", "science.org", "reuters.com", "bbc.co.uk",
}

// Scoring policy table. Rules are additive and intentionally not mutually
// exclusive: a .gov URL collects both the trusted-list bonus and the
// government bonus, which matches the scoring distribution clients expect.
const (
	trustedBonus    = 100
	governmentBonus = 80
	educationBonus  = 70
	wikipediaBonus  = 10 // useful but editable
	blogPenalty     = -20
	localPenalty    = -100
)

// ScoreSource rates a URL by domain-trust heuristics.
func ScoreSource(rawURL string) int {
	u := strings.ToLower(rawURL)
	score := 0
	for _, d := range trustedDomains {
		if strings.Contains(u, d) {
			score += trustedBonus
		}
	}
	if strings.Contains(u, ".gov") {
		score += governmentBonus
	}
	if strings.Contains(u, ".edu") {
		score += educationBonus
	}
	if strings.Contains(u, "wikipedia.org") {
		score += wikipediaBonus
	}
	if strings.Contains(u, "blogspot") || strings.Contains(u, "medium.com") {
		score += blogPenalty
	}
	if strings.Contains(u, "localhost") || strings.HasPrefix(u, "file:") {
		score += localPenalty
	}
	return score
}

// Rank attaches scores and stably sorts descending, so equal-score results
// keep their upstream order. Deterministic for reproducible citations.
func Rank(results []domain.SearchResult) []domain.SearchResult {
	ranked := make([]domain.SearchResult, len(results))
	copy(ranked, results)
	for i := range ranked {
		ranked[i].Score = ScoreSource(ranked[i].URL)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
