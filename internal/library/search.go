package library

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// minSearchScore drops candidates that share too little with the query.
const minSearchScore = 0.70

// SearchHit is a movie ranked against a query.
type SearchHit struct {
	Movie *Movie
	Score float64 // 0-1, 1 is an exact match after CleanTitle
}

// Search ranks every movie by Jaro-Winkler similarity of cleaned titles.
// Substring matches score at least 0.9. Results are best first, capped at limit (0 = all).
func (s *Store) Search(query string, limit int) ([]SearchHit, error) {
	q := CleanTitle(query)
	if q == "" {
		return nil, nil
	}

	movies, _, err := s.ListMovies(Filter{})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var hits []SearchHit
	for _, m := range movies {
		score := titleScore(q, CleanTitle(m.Title))
		if score >= minSearchScore {
			hits = append(hits, SearchHit{Movie: m, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func titleScore(query, title string) float64 {
	if title == "" {
		return 0
	}
	score := float64(edlib.JaroWinklerSimilarity(query, title))
	if score < 0.9 && strings.Contains(title, query) {
		score = 0.9
	}
	return score
}
