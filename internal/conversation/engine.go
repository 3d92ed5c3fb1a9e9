// Package conversation implements the per-user finite-state machine that
// drives the guided flows: add movie, add review, list movies, delete movie,
// and edit review. The engine consumes classified events, updates the user's
// session, calls into the store at the defined transition points, and
// returns the prompts to send back.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"kinoteka/internal/config"
	"kinoteka/internal/database"
	"kinoteka/internal/search"
)

// Accepted confirmation tokens, compared case-insensitively.
var (
	affirmativeTokens = map[string]struct{}{"yes": {}, "y": {}, "да": {}}
	negativeTokens    = map[string]struct{}{"no": {}, "n": {}, "нет": {}}
)

// Engine dispatches events against per-user sessions. Storage failures are
// never propagated to the caller; every outcome is expressed as prompts.
type Engine struct {
	store    database.Store
	sessions *Sessions
	messages config.MessagesConfig
	logger   *slog.Logger
}

// NewEngine creates a conversation engine over the given store and session
// table, using the configured message texts.
func NewEngine(store database.Store, sessions *Sessions, messages config.MessagesConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:    store,
		sessions: sessions,
		messages: messages,
		logger:   logger.With("component", "conversation"),
	}
}

// HandleEvent processes one event for one user and returns the outbound
// prompts. Events for the same user are processed strictly one at a time in
// arrival order; events for different users run concurrently.
func (e *Engine) HandleEvent(ctx context.Context, user *database.User, ev Event) []Prompt {
	sess := e.sessions.get(user.TelegramID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastActive = time.Now()

	e.logger.DebugContext(ctx, "Handling conversation event",
		"user_id", user.TelegramID, "state", sess.state, "event_kind", ev.Kind)

	// Menu selections and commands pre-empt any in-progress flow.
	if ev.Kind == EventMenu || ev.Kind == EventCommand {
		return e.startFlow(ctx, user, sess, ev)
	}

	switch sess.state {
	case StateIdle:
		return []Prompt{{Text: e.messages.ChooseAction, Menu: MainMenu}}

	case StateAddMovieTitle:
		return e.addMovieTitle(sess, ev.Text)
	case StateAddMovieDescription:
		return e.addMovieDescription(ctx, user, sess, ev.Text)

	case StateAddReviewQuery:
		return e.addReviewQuery(ctx, user, sess, ev.Text)
	case StateAddReviewSelection:
		return e.addReviewSelection(sess, ev.Text)
	case StateAddReviewRating:
		return e.addReviewRating(sess, ev.Text)
	case StateAddReviewComment:
		return e.addReviewComment(ctx, user, sess, ev.Text)

	case StateDeleteQuery:
		return e.deleteQuery(ctx, user, sess, ev.Text)
	case StateDeleteSelection:
		return e.deleteSelection(sess, ev.Text)
	case StateDeleteConfirm:
		return e.deleteConfirm(ctx, sess, ev.Text)

	case StateEditQuery:
		return e.editQuery(ctx, user, sess, ev.Text)
	case StateEditSelection:
		return e.editSelection(ctx, sess, ev.Text)
	case StateEditRating:
		return e.editRating(sess, ev.Text)
	case StateEditComment:
		return e.editComment(ctx, sess, ev.Text)
	}

	e.logger.Warn("Unknown session state, resetting", "user_id", user.TelegramID, "state", sess.state)
	sess.reset()
	return []Prompt{{Text: e.messages.ChooseAction, Menu: MainMenu}}
}

// startFlow begins a new flow from a menu label or command, discarding any
// in-progress flow state.
func (e *Engine) startFlow(ctx context.Context, user *database.User, sess *session, ev Event) []Prompt {
	sess.reset()

	switch ev.Text {
	case "start":
		return []Prompt{{Text: e.messages.Welcome, Menu: MainMenu}}

	case MenuAddMovie:
		sess.state = StateAddMovieTitle
		return []Prompt{{Text: e.messages.AskTitle}}

	case MenuAddReview:
		sess.state = StateAddReviewQuery
		return []Prompt{{Text: e.messages.AskMovieQuery}}

	case MenuListMovies:
		return e.listMovies(ctx, user)

	case MenuDeleteMovie:
		sess.state = StateDeleteQuery
		return []Prompt{{Text: e.messages.AskMovieQuery}}

	case MenuEditReview:
		sess.state = StateEditQuery
		return []Prompt{{Text: e.messages.AskMovieQuery}}

	case MenuMore:
		return []Prompt{{Text: e.messages.MoreOptions, Menu: MoreMenu}}

	case MenuBack:
		return []Prompt{{Text: e.messages.ChooseAction, Menu: MainMenu}}
	}

	return []Prompt{{Text: e.messages.ChooseAction, Menu: MainMenu}}
}

// --- Add Movie flow ---

func (e *Engine) addMovieTitle(sess *session, text string) []Prompt {
	sess.title = text
	sess.state = StateAddMovieDescription
	return []Prompt{{Text: e.messages.AskDescription}}
}

func (e *Engine) addMovieDescription(ctx context.Context, user *database.User, sess *session, text string) []Prompt {
	title := sess.title
	sess.reset()

	if _, err := e.store.AddMovie(ctx, user.ID, title, text); err != nil {
		e.logger.ErrorContext(ctx, "Failed to add movie", "user_id", user.TelegramID, "title", title, "error", err)
		return []Prompt{{Text: e.messages.MovieAddFailed, Menu: MainMenu}}
	}

	return []Prompt{{Text: fmt.Sprintf(e.messages.MovieAdded, title), Menu: MainMenu}}
}

// --- Add Review flow ---

func (e *Engine) addReviewQuery(ctx context.Context, user *database.User, sess *session, text string) []Prompt {
	// Only movies without a review are offered, so a movie can never
	// collect a second one through this flow.
	corpus, err := e.store.ListMoviesWithReviews(ctx, user.ID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load movie corpus", "user_id", user.TelegramID, "error", err)
		sess.reset()
		return []Prompt{{Text: e.messages.GeneralError, Menu: MainMenu}}
	}

	matches := search.FindCandidates(text, search.WithoutReview(corpus))
	if len(matches) == 0 {
		sess.reset()
		return []Prompt{{Text: e.messages.NoCandidates, Menu: MainMenu}}
	}

	sess.candidates = toCandidates(matches)
	sess.state = StateAddReviewSelection
	return []Prompt{e.candidatesPrompt(sess.candidates)}
}

func (e *Engine) addReviewSelection(sess *session, text string) []Prompt {
	cand, ok := pickCandidate(sess.candidates, text)
	if !ok {
		sess.reset()
		return []Prompt{{Text: e.messages.SelectionNotInList, Menu: MainMenu}}
	}

	sess.selected = cand
	sess.state = StateAddReviewRating
	return []Prompt{{Text: e.messages.AskRating}}
}

func (e *Engine) addReviewRating(sess *session, text string) []Prompt {
	rating, ok := parseRating(text)
	if !ok {
		sess.reset()
		return []Prompt{{Text: e.messages.InvalidRating, Menu: MainMenu}}
	}

	sess.rating = rating
	sess.state = StateAddReviewComment
	return []Prompt{{Text: e.messages.AskComment}}
}

func (e *Engine) addReviewComment(ctx context.Context, user *database.User, sess *session, text string) []Prompt {
	movieID := sess.selected.movieID
	rating := sess.rating
	sess.reset()

	_, err := e.store.AddReview(ctx, user.ID, movieID, rating, text)
	switch {
	case errors.Is(err, database.ErrConflict):
		return []Prompt{{Text: e.messages.ReviewConflict, Menu: MainMenu}}
	case errors.Is(err, database.ErrNotFound):
		return []Prompt{{Text: e.messages.MovieNotFound, Menu: MainMenu}}
	case err != nil:
		e.logger.ErrorContext(ctx, "Failed to add review",
			"user_id", user.TelegramID, "movie_id", movieID, "error", err)
		return []Prompt{{Text: e.messages.GeneralError, Menu: MainMenu}}
	}

	return []Prompt{{Text: e.messages.ReviewAdded, Menu: MainMenu}}
}

// --- Delete Movie flow ---

func (e *Engine) deleteQuery(ctx context.Context, user *database.User, sess *session, text string) []Prompt {
	corpus, err := e.store.ListMoviesWithReviews(ctx, user.ID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load movie corpus", "user_id", user.TelegramID, "error", err)
		sess.reset()
		return []Prompt{{Text: e.messages.GeneralError, Menu: MainMenu}}
	}

	matches := search.FindCandidates(text, corpus)
	if len(matches) == 0 {
		sess.reset()
		return []Prompt{{Text: e.messages.NoCandidates, Menu: MainMenu}}
	}

	sess.candidates = toCandidates(matches)
	sess.state = StateDeleteSelection
	return []Prompt{e.candidatesPrompt(sess.candidates)}
}

func (e *Engine) deleteSelection(sess *session, text string) []Prompt {
	cand, ok := pickCandidate(sess.candidates, text)
	if !ok {
		sess.reset()
		return []Prompt{{Text: e.messages.SelectionNotInList, Menu: MainMenu}}
	}

	sess.selected = cand
	sess.state = StateDeleteConfirm
	return []Prompt{{
		Text: fmt.Sprintf(e.messages.AskDeleteConfirm, cand.title),
		Menu: []string{"yes", "no"},
	}}
}

func (e *Engine) deleteConfirm(ctx context.Context, sess *session, text string) []Prompt {
	token := strings.ToLower(strings.TrimSpace(text))

	if _, ok := negativeTokens[token]; ok {
		sess.reset()
		return []Prompt{{Text: e.messages.DeleteCancelled, Menu: MainMenu}}
	}

	if _, ok := affirmativeTokens[token]; !ok {
		// The one step with a retry loop: anything but yes/no re-prompts
		// without losing the selection.
		return []Prompt{{Text: e.messages.ConfirmRetry, Menu: []string{"yes", "no"}}}
	}

	selected := sess.selected
	sess.reset()

	err := e.store.DeleteMovie(ctx, selected.movieID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return []Prompt{{Text: e.messages.MovieNotFound, Menu: MainMenu}}
	case err != nil:
		e.logger.ErrorContext(ctx, "Failed to delete movie", "movie_id", selected.movieID, "error", err)
		return []Prompt{{Text: e.messages.GeneralError, Menu: MainMenu}}
	}

	return []Prompt{{Text: fmt.Sprintf(e.messages.MovieDeleted, selected.title), Menu: MainMenu}}
}

// --- Edit Review flow ---

func (e *Engine) editQuery(ctx context.Context, user *database.User, sess *session, text string) []Prompt {
	corpus, err := e.store.ListMoviesWithReviews(ctx, user.ID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load movie corpus", "user_id", user.TelegramID, "error", err)
		sess.reset()
		return []Prompt{{Text: e.messages.GeneralError, Menu: MainMenu}}
	}

	matches := search.FindCandidates(text, search.WithReview(corpus))
	if len(matches) == 0 {
		sess.reset()
		return []Prompt{{Text: e.messages.NoCandidates, Menu: MainMenu}}
	}

	sess.candidates = toCandidates(matches)
	sess.state = StateEditSelection
	return []Prompt{e.candidatesPrompt(sess.candidates)}
}

func (e *Engine) editSelection(ctx context.Context, sess *session, text string) []Prompt {
	cand, ok := pickCandidate(sess.candidates, text)
	if !ok {
		sess.reset()
		return []Prompt{{Text: e.messages.SelectionNotInList, Menu: MainMenu}}
	}

	review, err := e.store.GetReviewForMovie(ctx, cand.movieID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		// The candidate list is pre-filtered to reviewed movies, so the
		// review can only be missing if it vanished since then.
		sess.reset()
		return []Prompt{{Text: e.messages.ReviewNotFound, Menu: MainMenu}}
	case err != nil:
		e.logger.ErrorContext(ctx, "Failed to load review", "movie_id", cand.movieID, "error", err)
		sess.reset()
		return []Prompt{{Text: e.messages.GeneralError, Menu: MainMenu}}
	}

	sess.selected = cand
	sess.reviewID = review.ID
	sess.state = StateEditRating
	return []Prompt{
		{Text: fmt.Sprintf(e.messages.CurrentReview, review.Rating, review.Comment)},
		{Text: e.messages.AskNewRating},
	}
}

func (e *Engine) editRating(sess *session, text string) []Prompt {
	rating, ok := parseRating(text)
	if !ok {
		sess.reset()
		return []Prompt{{Text: e.messages.InvalidRating, Menu: MainMenu}}
	}

	sess.rating = rating
	sess.state = StateEditComment
	return []Prompt{{Text: e.messages.AskNewComment}}
}

func (e *Engine) editComment(ctx context.Context, sess *session, text string) []Prompt {
	reviewID := sess.reviewID
	rating := sess.rating
	sess.reset()

	_, err := e.store.UpdateReview(ctx, reviewID, rating, text)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return []Prompt{{Text: e.messages.ReviewNotFound, Menu: MainMenu}}
	case err != nil:
		e.logger.ErrorContext(ctx, "Failed to update review", "review_id", reviewID, "error", err)
		return []Prompt{{Text: e.messages.GeneralError, Menu: MainMenu}}
	}

	return []Prompt{{Text: e.messages.ReviewUpdated, Menu: MainMenu}}
}

// --- List flow ---

func (e *Engine) listMovies(ctx context.Context, user *database.User) []Prompt {
	entries, err := e.store.ListMoviesWithReviews(ctx, user.ID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to list movies", "user_id", user.TelegramID, "error", err)
		return []Prompt{{Text: e.messages.GeneralError, Menu: MainMenu}}
	}

	if len(entries) == 0 {
		return []Prompt{{Text: e.messages.ListEmpty, Menu: MainMenu}}
	}

	blocks := make([]string, 0, len(entries))
	for _, entry := range entries {
		block := fmt.Sprintf(e.messages.ListEntry, entry.Movie.Title)
		if entry.Review != nil {
			block += "\n" + fmt.Sprintf(e.messages.ListReview, entry.Review.Rating, entry.Review.Comment)
		} else {
			block += "\n" + e.messages.ListNoReview
		}
		blocks = append(blocks, block)
	}

	return []Prompt{{Text: strings.Join(blocks, "\n\n"), Menu: MainMenu}}
}

// --- helpers ---

func (e *Engine) candidatesPrompt(cands []candidate) Prompt {
	titles := make([]string, 0, len(cands))
	for _, c := range cands {
		titles = append(titles, c.title)
	}
	return Prompt{
		Text: fmt.Sprintf(e.messages.CandidatesFound, strings.Join(titles, "\n")),
		Menu: titles,
	}
}

func toCandidates(matches []database.MovieWithReview) []candidate {
	cands := make([]candidate, 0, len(matches))
	for _, m := range matches {
		cands = append(cands, candidate{movieID: m.Movie.ID, title: m.Movie.Title})
	}
	return cands
}

// pickCandidate requires an exact title match against the most recently
// presented list.
func pickCandidate(cands []candidate, text string) (candidate, bool) {
	for _, c := range cands {
		if c.title == text {
			return c, true
		}
	}
	return candidate{}, false
}

func parseRating(text string) (int, bool) {
	rating, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	if rating < database.MinRating || rating > database.MaxRating {
		return 0, false
	}
	return rating, true
}
