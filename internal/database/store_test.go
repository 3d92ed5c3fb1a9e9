// Package database_test tests the data access layer against a real SQLite
// database with migrations applied.
package database_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"kinoteka/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEnsureUserIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.EnsureUser(ctx, 42, "alice", "Alice A")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("EnsureUser returned zero user ID")
	}

	second, err := store.EnsureUser(ctx, 42, "alice", "Alice A")
	if err != nil {
		t.Fatalf("second EnsureUser failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("EnsureUser created a duplicate: first ID %d, second ID %d", first.ID, second.ID)
	}

	stats, err := store.CountStats(ctx)
	if err != nil {
		t.Fatalf("CountStats failed: %v", err)
	}
	if stats.Users != 1 {
		t.Errorf("expected 1 user, got %d", stats.Users)
	}
}

func TestAddMovieUnknownOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.AddMovie(ctx, 999, "Dune", "Sci-fi epic")
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("AddMovie with unknown owner: expected ErrNotFound, got %v", err)
	}
}

func TestAddReviewRatingBounds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	user, err := store.EnsureUser(ctx, 1, "bob", "Bob")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	movie, err := store.AddMovie(ctx, user.ID, "Dune", "Sci-fi epic")
	if err != nil {
		t.Fatalf("AddMovie failed: %v", err)
	}

	tests := []struct {
		name    string
		rating  int
		wantErr bool
	}{
		{name: "below minimum", rating: 0, wantErr: true},
		{name: "above maximum", rating: 6, wantErr: true},
		{name: "negative", rating: -1, wantErr: true},
		{name: "minimum", rating: 1, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.AddReview(ctx, user.ID, movie.ID, tc.rating, "comment")
			if tc.wantErr {
				if !errors.Is(err, database.ErrInvalidRating) {
					t.Errorf("AddReview(rating=%d): expected ErrInvalidRating, got %v", tc.rating, err)
				}
				return
			}
			if err != nil {
				t.Errorf("AddReview(rating=%d) failed: %v", tc.rating, err)
			}
		})
	}
}

func TestAddReviewConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	user, err := store.EnsureUser(ctx, 1, "bob", "Bob")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	movie, err := store.AddMovie(ctx, user.ID, "Dune", "Sci-fi epic")
	if err != nil {
		t.Fatalf("AddMovie failed: %v", err)
	}

	if _, err := store.AddReview(ctx, user.ID, movie.ID, 5, "great"); err != nil {
		t.Fatalf("first AddReview failed: %v", err)
	}

	_, err = store.AddReview(ctx, user.ID, movie.ID, 4, "second thoughts")
	if !errors.Is(err, database.ErrConflict) {
		t.Fatalf("second AddReview: expected ErrConflict, got %v", err)
	}

	stats, err := store.CountStats(ctx)
	if err != nil {
		t.Fatalf("CountStats failed: %v", err)
	}
	if stats.Reviews != 1 {
		t.Errorf("expected exactly 1 review after conflict, got %d", stats.Reviews)
	}
}

func TestDeleteMovieCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	user, err := store.EnsureUser(ctx, 1, "bob", "Bob")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	movie, err := store.AddMovie(ctx, user.ID, "Dune", "Sci-fi epic")
	if err != nil {
		t.Fatalf("AddMovie failed: %v", err)
	}
	if _, err := store.AddReview(ctx, user.ID, movie.ID, 5, "great"); err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}

	if err := store.DeleteMovie(ctx, movie.ID); err != nil {
		t.Fatalf("DeleteMovie failed: %v", err)
	}

	if _, err := store.GetReviewForMovie(ctx, movie.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected review to be deleted with movie, got %v", err)
	}

	stats, err := store.CountStats(ctx)
	if err != nil {
		t.Fatalf("CountStats failed: %v", err)
	}
	if stats.Movies != 0 || stats.Reviews != 0 {
		t.Errorf("expected no movies and no reviews after cascade delete, got %d/%d", stats.Movies, stats.Reviews)
	}
}

func TestDeleteMovieNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.DeleteMovie(ctx, 12345); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("DeleteMovie of missing movie: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateReview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	user, err := store.EnsureUser(ctx, 1, "bob", "Bob")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	movie, err := store.AddMovie(ctx, user.ID, "Dune", "Sci-fi epic")
	if err != nil {
		t.Fatalf("AddMovie failed: %v", err)
	}
	review, err := store.AddReview(ctx, user.ID, movie.ID, 3, "decent")
	if err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}

	updated, err := store.UpdateReview(ctx, review.ID, 5, "rewatched, loved it")
	if err != nil {
		t.Fatalf("UpdateReview failed: %v", err)
	}
	if updated.Rating != 5 || updated.Comment != "rewatched, loved it" {
		t.Errorf("UpdateReview returned rating=%d comment=%q", updated.Rating, updated.Comment)
	}

	stored, err := store.GetReviewForMovie(ctx, movie.ID)
	if err != nil {
		t.Fatalf("GetReviewForMovie failed: %v", err)
	}
	if stored.Rating != 5 || stored.Comment != "rewatched, loved it" {
		t.Errorf("stored review rating=%d comment=%q after update", stored.Rating, stored.Comment)
	}

	if _, err := store.UpdateReview(ctx, review.ID+1000, 4, "x"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("UpdateReview of missing review: expected ErrNotFound, got %v", err)
	}

	if _, err := store.UpdateReview(ctx, review.ID, 0, "x"); !errors.Is(err, database.ErrInvalidRating) {
		t.Errorf("UpdateReview with rating 0: expected ErrInvalidRating, got %v", err)
	}
}

func TestFindMoviesByTitle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	user, err := store.EnsureUser(ctx, 1, "bob", "Bob")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	for _, title := range []string{"Inception", "Interstellar", "Dune"} {
		if _, err := store.AddMovie(ctx, user.ID, title, ""); err != nil {
			t.Fatalf("AddMovie(%q) failed: %v", title, err)
		}
	}

	movies, err := store.FindMoviesByTitle(ctx, "in")
	if err != nil {
		t.Fatalf("FindMoviesByTitle failed: %v", err)
	}
	got := make([]string, 0, len(movies))
	for _, m := range movies {
		got = append(got, m.Title)
	}

	expected := []string{"Inception", "Interstellar"}
	if len(got) != len(expected) {
		t.Fatalf("FindMoviesByTitle(\"in\") = %v, expected %v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("FindMoviesByTitle result[%d] = %q, expected %q", i, got[i], expected[i])
		}
	}
}

func TestListMoviesWithReviews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	user, err := store.EnsureUser(ctx, 1, "bob", "Bob")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	other, err := store.EnsureUser(ctx, 2, "carol", "Carol")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	first, err := store.AddMovie(ctx, user.ID, "Dune", "Sci-fi epic")
	if err != nil {
		t.Fatalf("AddMovie failed: %v", err)
	}
	if _, err := store.AddMovie(ctx, user.ID, "Inception", ""); err != nil {
		t.Fatalf("AddMovie failed: %v", err)
	}
	if _, err := store.AddMovie(ctx, other.ID, "Tenet", ""); err != nil {
		t.Fatalf("AddMovie failed: %v", err)
	}
	if _, err := store.AddReview(ctx, user.ID, first.ID, 5, "great visuals"); err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}

	entries, err := store.ListMoviesWithReviews(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListMoviesWithReviews failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for user, got %d", len(entries))
	}
	if entries[0].Movie.Title != "Dune" || entries[1].Movie.Title != "Inception" {
		t.Errorf("entries not in creation order: %q, %q", entries[0].Movie.Title, entries[1].Movie.Title)
	}
	if entries[0].Review == nil {
		t.Fatal("expected review on first entry")
	}
	if entries[0].Review.Rating != 5 || entries[0].Review.Comment != "great visuals" {
		t.Errorf("unexpected review: rating=%d comment=%q", entries[0].Review.Rating, entries[0].Review.Comment)
	}
	if entries[1].Review != nil {
		t.Errorf("expected no review on second entry, got %+v", entries[1].Review)
	}
}
