// Package matching scores a customer profile against a catalog program.
// Pure computation, no I/O.
package matching

import (
	"strings"
	"time"
)

const (
	industryWeight = 30
	locationWeight = 30
	keywordBase    = 10
	keywordPrefer  = 15
	keywordExtra   = 5
	keywordCap     = 40
)

type CustomerProfile struct {
	Industry          string
	Location          string
	PreferredKeywords []string
}

type ProgramFacts struct {
	TargetAudience []string
	TargetLocation []string
	Keywords       []string
	RegisteredAt   time.Time
}

// Score is the per-component breakdown. Total = Industry + Location + Keyword
// with Industry, Location in {0,30} and Keyword in [0,40], so Total in [0,100].
type Score struct {
	Industry int
	Location int
	Keyword  int
	Total    int

	MatchedIndustry bool
	MatchedLocation bool
	MatchedKeywords []string
}

// Calculate scores one (customer, program) pair.
//
// Keyword component: 10 when the customer keyword set (preferred keywords
// plus the industry term) overlaps the program keywords at all, +15 when the
// overlap includes a preferred keyword, +5 per extra overlapping keyword,
// capped at 40.
func Calculate(c CustomerProfile, p ProgramFacts) Score {
	var s Score

	industry := normalize(c.Industry)
	if industry != "" && containsFold(p.TargetAudience, industry) {
		s.Industry = industryWeight
		s.MatchedIndustry = true
	}

	location := normalize(c.Location)
	if location != "" && containsFold(p.TargetLocation, location) {
		s.Location = locationWeight
		s.MatchedLocation = true
	}

	preferred := make(map[string]bool, len(c.PreferredKeywords))
	candidates := make([]string, 0, len(c.PreferredKeywords)+1)
	for _, kw := range c.PreferredKeywords {
		kw = normalize(kw)
		if kw == "" {
			continue
		}
		preferred[kw] = true
		candidates = append(candidates, kw)
	}
	if industry != "" && !preferred[industry] {
		candidates = append(candidates, industry)
	}

	overlap := make([]string, 0, len(candidates))
	preferredHit := false
	for _, kw := range candidates {
		if containsFold(p.Keywords, kw) {
			overlap = append(overlap, kw)
			if preferred[kw] {
				preferredHit = true
			}
		}
	}

	if len(overlap) > 0 {
		s.Keyword = keywordBase
		if preferredHit {
			s.Keyword += keywordPrefer
		}
		s.Keyword += keywordExtra * (len(overlap) - 1)
		if s.Keyword > keywordCap {
			s.Keyword = keywordCap
		}
		s.MatchedKeywords = overlap
	}

	s.Total = s.Industry + s.Location + s.Keyword
	return s
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if normalize(h) == needle {
			return true
		}
	}
	return false
}
