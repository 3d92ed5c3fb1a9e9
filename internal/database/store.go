package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// EnsureUser returns the user with the given Telegram ID, creating one
	// if it does not exist yet. Idempotent.
	EnsureUser(ctx context.Context, telegramID int64, username, fullName string) (*User, error)

	// AddMovie inserts a new movie owned by the given user.
	AddMovie(ctx context.Context, userID int64, title, description string) (*Movie, error)

	// FindMoviesByTitle retrieves movies whose title contains the fragment,
	// case-insensitively, in natural retrieval order.
	FindMoviesByTitle(ctx context.Context, fragment string) ([]Movie, error)

	// ListMoviesWithReviews retrieves every movie owned by the user paired
	// with its review if present, in creation order.
	ListMoviesWithReviews(ctx context.Context, userID int64) ([]MovieWithReview, error)

	// AddReview inserts a review for a movie. Returns ErrInvalidRating if the
	// rating is outside [MinRating, MaxRating], ErrNotFound if the movie does
	// not exist, and ErrConflict if the movie already has a review.
	AddReview(ctx context.Context, userID, movieID int64, rating int, comment string) (*Review, error)

	// GetReviewForMovie retrieves the review attached to a movie.
	// Returns ErrNotFound when the movie has no review.
	GetReviewForMovie(ctx context.Context, movieID int64) (*Review, error)

	// UpdateReview replaces the rating and comment of an existing review.
	// Returns ErrNotFound if the review no longer exists.
	UpdateReview(ctx context.Context, reviewID int64, rating int, comment string) (*Review, error)

	// DeleteMovie removes a movie and its review, if any, in one transaction.
	// Returns ErrNotFound if the movie does not exist.
	DeleteMovie(ctx context.Context, movieID int64) error

	// CountStats returns entity counts for the admin stats command.
	CountStats(ctx context.Context) (Stats, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rollback is deferred by write operations; it is a no-op once the
// transaction has been committed.
func (s *sqlxStore) rollback(ctx context.Context, tx *sqlx.Tx) {
	if tx == nil {
		return
	}
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.WarnContext(ctx, "Error rolling back transaction", "error", err)
	}
}

// EnsureUser returns the existing user matching telegramID or creates one.
func (s *sqlxStore) EnsureUser(ctx context.Context, telegramID int64, username, fullName string) (*User, error) {
	if telegramID == 0 {
		return nil, fmt.Errorf("telegram_id cannot be zero")
	}

	var user User
	err := s.db.GetContext(ctx, &user,
		`SELECT id, created_at, updated_at, telegram_id, username, full_name
		 FROM users WHERE telegram_id = ?`, telegramID)
	if err == nil {
		s.logger.DebugContext(ctx, "Found existing user", "telegram_id", telegramID, "user_id", user.ID)
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Error looking up user", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("failed to look up user %d: %w", telegramID, err)
	}

	now := time.Now().UTC()
	user = User{
		CreatedAt:  now,
		UpdatedAt:  now,
		TelegramID: telegramID,
		Username:   username,
		FullName:   fullName,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for user creation", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { s.rollback(ctx, tx) }()

	result, err := tx.NamedExecContext(ctx,
		`INSERT INTO users (created_at, updated_at, telegram_id, username, full_name)
		 VALUES (:created_at, :updated_at, :telegram_id, :username, :full_name)`, &user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating user", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("failed to create user %d: %w", telegramID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after creating user",
			"telegram_id", telegramID, "error", err)
	} else {
		user.ID = id
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Registered new user", "telegram_id", telegramID, "user_id", user.ID)
	return &user, nil
}

// AddMovie inserts a new movie owned by userID.
func (s *sqlxStore) AddMovie(ctx context.Context, userID int64, title, description string) (*Movie, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if title == "" {
		return nil, fmt.Errorf("movie must have a non-empty title")
	}

	now := time.Now().UTC()
	movie := Movie{
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       title,
		Description: description,
		UserID:      userID,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for adding movie", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { s.rollback(ctx, tx) }()

	var ownerExists bool
	err = tx.GetContext(ctx, &ownerExists, `SELECT 1 FROM users WHERE id = ? LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("owner %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error checking movie owner", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to check owner %d: %w", userID, err)
	}

	result, err := tx.NamedExecContext(ctx,
		`INSERT INTO movies (created_at, updated_at, title, description, user_id)
		 VALUES (:created_at, :updated_at, :title, :description, :user_id)`, &movie)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding movie", "user_id", userID, "title", title, "error", err)
		return nil, fmt.Errorf("failed to add movie %q: %w", title, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after adding movie",
			"user_id", userID, "title", title, "error", err)
	} else {
		movie.ID = id
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Movie added successfully", "user_id", userID, "movie_id", movie.ID, "title", title)
	return &movie, nil
}

// FindMoviesByTitle retrieves movies whose title contains fragment, case-insensitively.
func (s *sqlxStore) FindMoviesByTitle(ctx context.Context, fragment string) ([]Movie, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var movies []Movie
	query := `
        SELECT id, created_at, updated_at, title, description, user_id
        FROM movies
        WHERE title LIKE '%' || ? || '%' COLLATE NOCASE
        ORDER BY id;
    `

	err := s.db.SelectContext(ctx, &movies, query, fragment)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error finding movies by title", "fragment", fragment, "error", err)
		return nil, fmt.Errorf("failed to find movies matching %q: %w", fragment, err)
	}

	s.logger.DebugContext(ctx, "Found movies by title", "fragment", fragment, "count", len(movies))
	return movies, nil
}

// movieReviewRow is the flat scan target for the movie/review LEFT JOIN.
type movieReviewRow struct {
	Movie
	ReviewID        sql.NullInt64  `db:"review_id"`
	ReviewCreatedAt sql.NullTime   `db:"review_created_at"`
	ReviewUpdatedAt sql.NullTime   `db:"review_updated_at"`
	ReviewUserID    sql.NullInt64  `db:"review_user_id"`
	Rating          sql.NullInt64  `db:"rating"`
	Comment         sql.NullString `db:"comment"`
}

// ListMoviesWithReviews retrieves every movie owned by userID with its review, if any.
func (s *sqlxStore) ListMoviesWithReviews(ctx context.Context, userID int64) ([]MovieWithReview, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var rows []movieReviewRow
	query := `
        SELECT m.id, m.created_at, m.updated_at, m.title, m.description, m.user_id,
               r.id AS review_id, r.created_at AS review_created_at,
               r.updated_at AS review_updated_at, r.user_id AS review_user_id,
               r.rating, r.comment
        FROM movies m
        LEFT JOIN reviews r ON r.movie_id = m.id
        WHERE m.user_id = ?
        ORDER BY m.id;
    `

	err := s.db.SelectContext(ctx, &rows, query, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing movies with reviews", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list movies for user %d: %w", userID, err)
	}

	result := make([]MovieWithReview, 0, len(rows))
	for _, row := range rows {
		entry := MovieWithReview{Movie: row.Movie}
		if row.ReviewID.Valid {
			entry.Review = &Review{
				ID:        row.ReviewID.Int64,
				CreatedAt: row.ReviewCreatedAt.Time,
				UpdatedAt: row.ReviewUpdatedAt.Time,
				UserID:    row.ReviewUserID.Int64,
				MovieID:   row.Movie.ID,
				Rating:    int(row.Rating.Int64),
				Comment:   row.Comment.String,
			}
		}
		result = append(result, entry)
	}

	s.logger.DebugContext(ctx, "Listed movies with reviews", "user_id", userID, "count", len(result))
	return result, nil
}

// AddReview inserts a review for movieID written by userID.
func (s *sqlxStore) AddReview(ctx context.Context, userID, movieID int64, rating int, comment string) (*Review, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if movieID == 0 {
		return nil, fmt.Errorf("movie_id cannot be zero")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("rating %d: %w", rating, ErrInvalidRating)
	}

	now := time.Now().UTC()
	review := Review{
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    userID,
		MovieID:   movieID,
		Rating:    rating,
		Comment:   comment,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for adding review", "movie_id", movieID, "error", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { s.rollback(ctx, tx) }()

	var movieExists bool
	err = tx.GetContext(ctx, &movieExists, `SELECT 1 FROM movies WHERE id = ? LIMIT 1`, movieID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("movie %d: %w", movieID, ErrNotFound)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error checking movie before adding review", "movie_id", movieID, "error", err)
		return nil, fmt.Errorf("failed to check movie %d: %w", movieID, err)
	}

	// The reviews.movie_id UNIQUE constraint backstops this check.
	var reviewExists bool
	err = tx.GetContext(ctx, &reviewExists, `SELECT 1 FROM reviews WHERE movie_id = ? LIMIT 1`, movieID)
	if err == nil {
		return nil, fmt.Errorf("movie %d: %w", movieID, ErrConflict)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Error checking for existing review", "movie_id", movieID, "error", err)
		return nil, fmt.Errorf("failed to check existing review for movie %d: %w", movieID, err)
	}

	result, err := tx.NamedExecContext(ctx,
		`INSERT INTO reviews (created_at, updated_at, user_id, movie_id, rating, comment)
		 VALUES (:created_at, :updated_at, :user_id, :movie_id, :rating, :comment)`, &review)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding review", "movie_id", movieID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to add review for movie %d: %w", movieID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after adding review",
			"movie_id", movieID, "error", err)
	} else {
		review.ID = id
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "movie_id", movieID, "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Review added successfully",
		"movie_id", movieID, "user_id", userID, "review_id", review.ID, "rating", rating)
	return &review, nil
}

// GetReviewForMovie retrieves the review attached to movieID.
func (s *sqlxStore) GetReviewForMovie(ctx context.Context, movieID int64) (*Review, error) {
	if movieID == 0 {
		return nil, fmt.Errorf("movie_id cannot be zero")
	}

	var review Review
	err := s.db.GetContext(ctx, &review,
		`SELECT id, created_at, updated_at, user_id, movie_id, rating, comment
		 FROM reviews WHERE movie_id = ?`, movieID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review for movie %d: %w", movieID, ErrNotFound)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting review for movie", "movie_id", movieID, "error", err)
		return nil, fmt.Errorf("failed to get review for movie %d: %w", movieID, err)
	}

	return &review, nil
}

// UpdateReview replaces the rating and comment of the review with reviewID.
func (s *sqlxStore) UpdateReview(ctx context.Context, reviewID int64, rating int, comment string) (*Review, error) {
	if reviewID == 0 {
		return nil, fmt.Errorf("review_id cannot be zero")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("rating %d: %w", rating, ErrInvalidRating)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for updating review", "review_id", reviewID, "error", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { s.rollback(ctx, tx) }()

	var review Review
	err = tx.GetContext(ctx, &review,
		`SELECT id, created_at, updated_at, user_id, movie_id, rating, comment
		 FROM reviews WHERE id = ?`, reviewID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %d: %w", reviewID, ErrNotFound)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting review for update", "review_id", reviewID, "error", err)
		return nil, fmt.Errorf("failed to get review %d: %w", reviewID, err)
	}

	review.Rating = rating
	review.Comment = comment
	review.UpdatedAt = time.Now().UTC()

	_, err = tx.NamedExecContext(ctx,
		`UPDATE reviews SET rating = :rating, comment = :comment, updated_at = :updated_at
		 WHERE id = :id`, &review)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating review", "review_id", reviewID, "error", err)
		return nil, fmt.Errorf("failed to update review %d: %w", reviewID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "review_id", reviewID, "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Review updated successfully", "review_id", reviewID, "rating", rating)
	return &review, nil
}

// DeleteMovie removes the movie with movieID and its review in a single
// transaction, so either both rows go or neither does.
func (s *sqlxStore) DeleteMovie(ctx context.Context, movieID int64) error {
	if movieID == 0 {
		return fmt.Errorf("movie_id cannot be zero")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for deleting movie", "movie_id", movieID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { s.rollback(ctx, tx) }()

	// Delete the dependent review first, then the movie itself.
	reviewResult, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE movie_id = ?`, movieID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting review during movie deletion", "movie_id", movieID, "error", err)
		return fmt.Errorf("failed to delete review for movie %d: %w", movieID, err)
	}
	reviewsDeleted, _ := reviewResult.RowsAffected()

	movieResult, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, movieID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting movie", "movie_id", movieID, "error", err)
		return fmt.Errorf("failed to delete movie %d: %w", movieID, err)
	}

	affected, err := movieResult.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when deleting movie",
			"movie_id", movieID, "error", err)
	} else if affected == 0 {
		return fmt.Errorf("movie %d: %w", movieID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "movie_id", movieID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Movie deleted successfully", "movie_id", movieID, "reviews_deleted", reviewsDeleted)
	return nil
}

// CountStats returns user, movie, and review counts.
func (s *sqlxStore) CountStats(ctx context.Context) (Stats, error) {
	var stats Stats
	query := `
        SELECT (SELECT COUNT(*) FROM users)   AS users,
               (SELECT COUNT(*) FROM movies)  AS movies,
               (SELECT COUNT(*) FROM reviews) AS reviews;
    `

	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		s.logger.ErrorContext(ctx, "Error counting stats", "error", err)
		return Stats{}, fmt.Errorf("failed to count stats: %w", err)
	}

	return stats, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
