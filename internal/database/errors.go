package database

import "errors"

// Rating bounds accepted for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Sentinel errors returned by Store operations. Callers dispatch on these
// with errors.Is to pick the user-facing message; anything else is treated
// as a storage failure.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the movie already has a review.
	ErrConflict = errors.New("review already exists")

	// ErrInvalidRating indicates a rating outside the accepted range.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)
