package config

import "time"

// Default values for configuration
const (
	// Log defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	// Database defaults
	DefaultDBPath = "kinoteka.db"

	// Conversation defaults
	DefaultSessionTTL = 30 * time.Minute
)

// Default user-facing messages
var DefaultMessages = MessagesConfig{
	Welcome:       "👋 Hi! I keep notes about the movies you watched and your reviews of them.",
	Help:          "Use the menu buttons: add a movie, review it, list your movies, or open more options to delete a movie or edit a review. /start shows the menu again.",
	ChooseAction:  "Choose an action:",
	MoreOptions:   "More options:",
	NotAuthorized: "🚫 Access denied. Please contact the administrator.",
	GeneralError:  "❌ An error occurred. Please try again later.",
	Stats:         "Users: %d\nMovies: %d\nReviews: %d",

	AskTitle:       "Enter the movie title:",
	AskDescription: "Enter the movie description:",
	MovieAdded:     "Movie '%s' added! 🎬",
	MovieAddFailed: "Something went wrong while adding the movie. Please try again.",

	AskMovieQuery:      "Enter the movie title to search for:",
	CandidatesFound:    "Found these movies:\n%s\nPlease pick one from the list:",
	NoCandidates:       "No matching movies found.",
	SelectionNotInList: "That movie is not in the list shown. The flow was cancelled.",
	AskRating:          "Enter your rating (1-5):",
	InvalidRating:      "That is not a valid rating (1-5). The flow was cancelled.",
	AskComment:         "Enter your comment:",
	ReviewAdded:        "Your review has been saved! 🎉",
	ReviewConflict:     "This movie already has a review.",
	MovieNotFound:      "Movie not found.",

	AskDeleteConfirm: "Delete '%s' along with its review? (yes/no)",
	ConfirmRetry:     "Please answer yes or no.",
	MovieDeleted:     "Movie '%s' deleted.",
	DeleteCancelled:  "Deletion cancelled.",

	CurrentReview:  "Current rating: %d\nCurrent comment: %s",
	AskNewRating:   "Enter the new rating (1-5):",
	AskNewComment:  "Enter the new comment:",
	ReviewUpdated:  "Your review has been updated. ✅",
	ReviewNotFound: "This movie has no review. Use 'add review' to write one.",

	ListEmpty:    "You have no movies yet.",
	ListEntry:    "Movie: %s",
	ListReview:   "Rating: %d\nComment: %s",
	ListNoReview: "No review yet.",
}
