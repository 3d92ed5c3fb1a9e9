package database

import (
	"time"
)

// User represents a registered bot user, keyed by the stable Telegram
// identifier assigned by the chat transport.
type User struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	TelegramID int64  `db:"telegram_id"`
	Username   string `db:"username"`
	FullName   string `db:"full_name"`
}

// Movie represents a movie note added by a user. A movie holds at most
// one review.
type Movie struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Title       string `db:"title"`
	Description string `db:"description"`
	UserID      int64  `db:"user_id"`
}

// Review represents a rating and comment attached to a single movie.
type Review struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID  int64  `db:"user_id"`
	MovieID int64  `db:"movie_id"`
	Rating  int    `db:"rating"`
	Comment string `db:"comment"`
}

// MovieWithReview pairs a movie with its review, if one exists.
type MovieWithReview struct {
	Movie  Movie
	Review *Review
}

// Stats holds entity counts reported by the admin stats command.
type Stats struct {
	Users   int64 `db:"users"`
	Movies  int64 `db:"movies"`
	Reviews int64 `db:"reviews"`
}
