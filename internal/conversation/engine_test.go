package conversation_test

import (
	"context"
	"fmt"
	"testing"

	"kinoteka/internal/config"
	"kinoteka/internal/conversation"
	"kinoteka/internal/database"
)

// fakeStore is an in-memory Store for driving the engine without a database.
// Calls that mutate state are recorded so tests can assert what was persisted.
type fakeStore struct {
	corpus  []database.MovieWithReview
	listErr error

	addedMovies []database.Movie
	addMovieErr error

	addedReviews []database.Review
	addReviewErr error

	updatedReviews []database.Review
	updateErr      error

	deletedMovies []int64
	deleteErr     error

	getReviewErr error
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) EnsureUser(ctx context.Context, telegramID int64, username, fullName string) (*database.User, error) {
	return &database.User{ID: 1, TelegramID: telegramID, Username: username, FullName: fullName}, nil
}

func (f *fakeStore) AddMovie(ctx context.Context, userID int64, title, description string) (*database.Movie, error) {
	if f.addMovieErr != nil {
		return nil, f.addMovieErr
	}
	movie := database.Movie{ID: int64(len(f.addedMovies) + 1), UserID: userID, Title: title, Description: description}
	f.addedMovies = append(f.addedMovies, movie)
	return &movie, nil
}

func (f *fakeStore) FindMoviesByTitle(ctx context.Context, fragment string) ([]database.Movie, error) {
	return nil, nil
}

func (f *fakeStore) ListMoviesWithReviews(ctx context.Context, userID int64) ([]database.MovieWithReview, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.corpus, nil
}

func (f *fakeStore) AddReview(ctx context.Context, userID, movieID int64, rating int, comment string) (*database.Review, error) {
	if f.addReviewErr != nil {
		return nil, f.addReviewErr
	}
	review := database.Review{ID: int64(len(f.addedReviews) + 1), MovieID: movieID, Rating: rating, Comment: comment}
	f.addedReviews = append(f.addedReviews, review)
	return &review, nil
}

func (f *fakeStore) GetReviewForMovie(ctx context.Context, movieID int64) (*database.Review, error) {
	if f.getReviewErr != nil {
		return nil, f.getReviewErr
	}
	for i := range f.corpus {
		if f.corpus[i].Movie.ID == movieID && f.corpus[i].Review != nil {
			return f.corpus[i].Review, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) UpdateReview(ctx context.Context, reviewID int64, rating int, comment string) (*database.Review, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	review := database.Review{ID: reviewID, Rating: rating, Comment: comment}
	f.updatedReviews = append(f.updatedReviews, review)
	return &review, nil
}

func (f *fakeStore) DeleteMovie(ctx context.Context, movieID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedMovies = append(f.deletedMovies, movieID)
	return nil
}

func (f *fakeStore) CountStats(ctx context.Context) (database.Stats, error) {
	return database.Stats{}, nil
}

func (f *fakeStore) RunSQLMaintenance(ctx context.Context) error { return nil }

var msgs = config.DefaultMessages

func newEngine(store database.Store) *conversation.Engine {
	return conversation.NewEngine(store, conversation.NewSessions(), msgs, nil)
}

func testUser() *database.User {
	return &database.User{ID: 1, TelegramID: 100}
}

func menu(label string) conversation.Event {
	return conversation.Event{Kind: conversation.EventMenu, Text: label}
}

func text(s string) conversation.Event {
	return conversation.Event{Kind: conversation.EventText, Text: s}
}

// send feeds one event and asserts exactly one prompt came back.
func send(t *testing.T, e *conversation.Engine, user *database.User, ev conversation.Event) conversation.Prompt {
	t.Helper()
	prompts := e.HandleEvent(context.Background(), user, ev)
	if len(prompts) != 1 {
		t.Fatalf("expected exactly one prompt, got %d: %+v", len(prompts), prompts)
	}
	return prompts[0]
}

func expectText(t *testing.T, p conversation.Prompt, want string) {
	t.Helper()
	if p.Text != want {
		t.Errorf("prompt text = %q, expected %q", p.Text, want)
	}
}

func expectMenu(t *testing.T, p conversation.Prompt, want []string) {
	t.Helper()
	if len(p.Menu) != len(want) {
		t.Fatalf("prompt menu = %v, expected %v", p.Menu, want)
	}
	for i := range want {
		if p.Menu[i] != want[i] {
			t.Errorf("prompt menu[%d] = %q, expected %q", i, p.Menu[i], want[i])
		}
	}
}

func unreviewed(id int64, title string) database.MovieWithReview {
	return database.MovieWithReview{Movie: database.Movie{ID: id, UserID: 1, Title: title}}
}

func reviewed(id int64, title string, reviewID int64, rating int, comment string) database.MovieWithReview {
	return database.MovieWithReview{
		Movie:  database.Movie{ID: id, UserID: 1, Title: title},
		Review: &database.Review{ID: reviewID, MovieID: id, Rating: rating, Comment: comment},
	}
}

func TestStartCommand(t *testing.T) {
	t.Parallel()
	e := newEngine(&fakeStore{})

	p := send(t, e, testUser(), conversation.Event{Kind: conversation.EventCommand, Text: "start"})
	expectText(t, p, msgs.Welcome)
	expectMenu(t, p, conversation.MainMenu)
}

func TestIdleFreeText(t *testing.T) {
	t.Parallel()
	e := newEngine(&fakeStore{})

	p := send(t, e, testUser(), text("hello there"))
	expectText(t, p, msgs.ChooseAction)
	expectMenu(t, p, conversation.MainMenu)
}

func TestAddMovieFlow(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	e := newEngine(store)
	user := testUser()

	p := send(t, e, user, menu(conversation.MenuAddMovie))
	expectText(t, p, msgs.AskTitle)

	p = send(t, e, user, text("Dune"))
	expectText(t, p, msgs.AskDescription)

	p = send(t, e, user, text("Sci-fi epic"))
	expectText(t, p, fmt.Sprintf(msgs.MovieAdded, "Dune"))
	expectMenu(t, p, conversation.MainMenu)

	if len(store.addedMovies) != 1 {
		t.Fatalf("expected 1 movie persisted, got %d", len(store.addedMovies))
	}
	got := store.addedMovies[0]
	if got.UserID != user.ID || got.Title != "Dune" || got.Description != "Sci-fi epic" {
		t.Errorf("persisted movie = %+v", got)
	}
}

func TestAddMovieStoreFailure(t *testing.T) {
	t.Parallel()
	store := &fakeStore{addMovieErr: fmt.Errorf("disk full")}
	e := newEngine(store)
	user := testUser()

	send(t, e, user, menu(conversation.MenuAddMovie))
	send(t, e, user, text("Dune"))
	p := send(t, e, user, text("Sci-fi epic"))
	expectText(t, p, msgs.MovieAddFailed)
	expectMenu(t, p, conversation.MainMenu)

	// Session is back to idle, not stuck in the failed flow.
	p = send(t, e, user, text("anything"))
	expectText(t, p, msgs.ChooseAction)
}

func TestAddReviewFlow(t *testing.T) {
	t.Parallel()
	store := &fakeStore{corpus: []database.MovieWithReview{
		unreviewed(1, "Inception"),
		reviewed(2, "Interstellar", 10, 4, "solid"),
		unreviewed(3, "Dune"),
	}}
	e := newEngine(store)
	user := testUser()

	p := send(t, e, user, menu(conversation.MenuAddReview))
	expectText(t, p, msgs.AskMovieQuery)

	// Interstellar already has a review, so only Dune can match "du".
	p = send(t, e, user, text("du"))
	expectText(t, p, fmt.Sprintf(msgs.CandidatesFound, "Dune"))
	expectMenu(t, p, []string{"Dune"})

	p = send(t, e, user, text("Dune"))
	expectText(t, p, msgs.AskRating)

	p = send(t, e, user, text("5"))
	expectText(t, p, msgs.AskComment)

	p = send(t, e, user, text("Great visuals"))
	expectText(t, p, msgs.ReviewAdded)
	expectMenu(t, p, conversation.MainMenu)

	if len(store.addedReviews) != 1 {
		t.Fatalf("expected 1 review persisted, got %d", len(store.addedReviews))
	}
	got := store.addedReviews[0]
	if got.MovieID != 3 || got.Rating != 5 || got.Comment != "Great visuals" {
		t.Errorf("persisted review = %+v", got)
	}
}

func TestAddReviewSelectionNotInList(t *testing.T) {
	t.Parallel()
	store := &fakeStore{corpus: []database.MovieWithReview{
		unreviewed(1, "Inception"),
		unreviewed(2, "Interstellar"),
	}}
	e := newEngine(store)
	user := testUser()

	send(t, e, user, menu(conversation.MenuAddReview))
	send(t, e, user, text("in"))

	p := send(t, e, user, text("Tenet"))
	expectText(t, p, msgs.SelectionNotInList)
	expectMenu(t, p, conversation.MainMenu)

	if len(store.addedReviews) != 0 {
		t.Errorf("expected no review persisted after aborted selection, got %d", len(store.addedReviews))
	}

	// Flow was cancelled, not paused.
	p = send(t, e, user, text("Inception"))
	expectText(t, p, msgs.ChooseAction)
}

func TestAddReviewInvalidRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rating string
	}{
		{name: "not a number", rating: "five"},
		{name: "below range", rating: "0"},
		{name: "above range", rating: "6"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := &fakeStore{corpus: []database.MovieWithReview{unreviewed(1, "Dune")}}
			e := newEngine(store)
			user := testUser()

			send(t, e, user, menu(conversation.MenuAddReview))
			send(t, e, user, text("Dune"))
			send(t, e, user, text("Dune"))

			p := send(t, e, user, text(tc.rating))
			expectText(t, p, msgs.InvalidRating)
			expectMenu(t, p, conversation.MainMenu)

			if len(store.addedReviews) != 0 {
				t.Errorf("expected no review persisted after invalid rating, got %d", len(store.addedReviews))
			}
		})
	}
}

func TestAddReviewNoCandidates(t *testing.T) {
	t.Parallel()
	store := &fakeStore{corpus: []database.MovieWithReview{
		reviewed(1, "Dune", 10, 5, "great"),
	}}
	e := newEngine(store)
	user := testUser()

	send(t, e, user, menu(conversation.MenuAddReview))

	// The only match already has a review, so nothing is offered.
	p := send(t, e, user, text("Dune"))
	expectText(t, p, msgs.NoCandidates)
	expectMenu(t, p, conversation.MainMenu)
}

func TestDeleteFlowCancelled(t *testing.T) {
	t.Parallel()
	store := &fakeStore{corpus: []database.MovieWithReview{
		reviewed(1, "Dune", 10, 5, "great"),
	}}
	e := newEngine(store)
	user := testUser()

	send(t, e, user, menu(conversation.MenuDeleteMovie))
	send(t, e, user, text("Dune"))

	p := send(t, e, user, text("Dune"))
	expectText(t, p, fmt.Sprintf(msgs.AskDeleteConfirm, "Dune"))
	expectMenu(t, p, []string{"yes", "no"})

	p = send(t, e, user, text("Нет"))
	expectText(t, p, msgs.DeleteCancelled)
	expectMenu(t, p, conversation.MainMenu)

	if len(store.deletedMovies) != 0 {
		t.Errorf("expected no deletion after cancel, got %v", store.deletedMovies)
	}
}

func TestDeleteConfirmRetry(t *testing.T) {
	t.Parallel()
	store := &fakeStore{corpus: []database.MovieWithReview{
		unreviewed(1, "Dune"),
	}}
	e := newEngine(store)
	user := testUser()

	send(t, e, user, menu(conversation.MenuDeleteMovie))
	send(t, e, user, text("Dune"))
	send(t, e, user, text("Dune"))

	// Anything but a yes/no token re-prompts without losing the selection.
	p := send(t, e, user, text("maybe"))
	expectText(t, p, msgs.ConfirmRetry)
	expectMenu(t, p, []string{"yes", "no"})

	if len(store.deletedMovies) != 0 {
		t.Fatalf("expected no deletion yet, got %v", store.deletedMovies)
	}

	p = send(t, e, user, text("YES"))
	expectText(t, p, fmt.Sprintf(msgs.MovieDeleted, "Dune"))
	expectMenu(t, p, conversation.MainMenu)

	if len(store.deletedMovies) != 1 || store.deletedMovies[0] != 1 {
		t.Errorf("deleted movies = %v, expected [1]", store.deletedMovies)
	}
}

func TestMenuPreemptsFlow(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	e := newEngine(store)
	user := testUser()

	send(t, e, user, menu(conversation.MenuAddMovie))
	send(t, e, user, text("Dune"))

	// Picking a menu label mid-flow abandons the flow entirely.
	p := send(t, e, user, menu(conversation.MenuMore))
	expectText(t, p, msgs.MoreOptions)
	expectMenu(t, p, conversation.MoreMenu)

	// The abandoned title was not persisted as a movie.
	if len(store.addedMovies) != 0 {
		t.Errorf("expected no movie persisted, got %+v", store.addedMovies)
	}

	// And the old flow state is gone: free text now falls through to idle.
	p = send(t, e, user, text("a description"))
	expectText(t, p, msgs.ChooseAction)
}

func TestEditReviewFlow(t *testing.T) {
	t.Parallel()
	store := &fakeStore{corpus: []database.MovieWithReview{
		unreviewed(1, "Inception"),
		reviewed(2, "Dune", 10, 3, "decent"),
	}}
	e := newEngine(store)
	user := testUser()

	send(t, e, user, menu(conversation.MenuEditReview))

	// Only reviewed movies are offered.
	p := send(t, e, user, text(""))
	expectText(t, p, fmt.Sprintf(msgs.CandidatesFound, "Dune"))
	expectMenu(t, p, []string{"Dune"})

	prompts := e.HandleEvent(context.Background(), user, text("Dune"))
	if len(prompts) != 2 {
		t.Fatalf("expected current review plus rating prompt, got %d prompts", len(prompts))
	}
	expectText(t, prompts[0], fmt.Sprintf(msgs.CurrentReview, 3, "decent"))
	expectText(t, prompts[1], msgs.AskNewRating)

	p = send(t, e, user, text("5"))
	expectText(t, p, msgs.AskNewComment)

	p = send(t, e, user, text("rewatched, loved it"))
	expectText(t, p, msgs.ReviewUpdated)
	expectMenu(t, p, conversation.MainMenu)

	if len(store.updatedReviews) != 1 {
		t.Fatalf("expected 1 review update, got %d", len(store.updatedReviews))
	}
	got := store.updatedReviews[0]
	if got.ID != 10 || got.Rating != 5 || got.Comment != "rewatched, loved it" {
		t.Errorf("updated review = %+v", got)
	}
}

func TestEditReviewVanished(t *testing.T) {
	t.Parallel()
	store := &fakeStore{
		corpus:       []database.MovieWithReview{reviewed(1, "Dune", 10, 3, "decent")},
		getReviewErr: database.ErrNotFound,
	}
	e := newEngine(store)
	user := testUser()

	send(t, e, user, menu(conversation.MenuEditReview))
	send(t, e, user, text("Dune"))

	p := send(t, e, user, text("Dune"))
	expectText(t, p, msgs.ReviewNotFound)
	expectMenu(t, p, conversation.MainMenu)
}

func TestListMovies(t *testing.T) {
	t.Parallel()
	store := &fakeStore{corpus: []database.MovieWithReview{
		reviewed(1, "Dune", 10, 5, "great visuals"),
		unreviewed(2, "Inception"),
	}}
	e := newEngine(store)

	p := send(t, e, testUser(), menu(conversation.MenuListMovies))
	want := fmt.Sprintf(msgs.ListEntry, "Dune") + "\n" +
		fmt.Sprintf(msgs.ListReview, 5, "great visuals") + "\n\n" +
		fmt.Sprintf(msgs.ListEntry, "Inception") + "\n" +
		msgs.ListNoReview
	expectText(t, p, want)
	expectMenu(t, p, conversation.MainMenu)
}

func TestListMoviesEmpty(t *testing.T) {
	t.Parallel()
	e := newEngine(&fakeStore{})

	p := send(t, e, testUser(), menu(conversation.MenuListMovies))
	expectText(t, p, msgs.ListEmpty)
	expectMenu(t, p, conversation.MainMenu)
}

func TestBackReturnsToMainMenu(t *testing.T) {
	t.Parallel()
	e := newEngine(&fakeStore{})
	user := testUser()

	send(t, e, user, menu(conversation.MenuMore))
	p := send(t, e, user, menu(conversation.MenuBack))
	expectText(t, p, msgs.ChooseAction)
	expectMenu(t, p, conversation.MainMenu)
}
