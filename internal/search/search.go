// Package search implements candidate matching over a movie corpus for the
// selection steps of the conversation flows.
package search

import (
	"strings"

	"kinoteka/internal/database"
)

// FindCandidates returns the movies from corpus whose title contains
// fragment, case-insensitively. The corpus order is preserved and an
// empty result is not an error.
func FindCandidates(fragment string, corpus []database.MovieWithReview) []database.MovieWithReview {
	needle := strings.ToLower(fragment)

	var matches []database.MovieWithReview
	for _, entry := range corpus {
		if strings.Contains(strings.ToLower(entry.Movie.Title), needle) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// WithoutReview returns the entries from corpus that have no review yet.
func WithoutReview(corpus []database.MovieWithReview) []database.MovieWithReview {
	var result []database.MovieWithReview
	for _, entry := range corpus {
		if entry.Review == nil {
			result = append(result, entry)
		}
	}
	return result
}

// WithReview returns the entries from corpus that already have a review.
func WithReview(corpus []database.MovieWithReview) []database.MovieWithReview {
	var result []database.MovieWithReview
	for _, entry := range corpus {
		if entry.Review != nil {
			result = append(result, entry)
		}
	}
	return result
}
