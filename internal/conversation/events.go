package conversation

// EventKind classifies an inbound user message.
type EventKind int

const (
	// EventCommand is a transport command such as /start.
	EventCommand EventKind = iota
	// EventMenu is a selection of one of the contractual menu labels.
	EventMenu
	// EventText is free text.
	EventText
)

// Event is one classified inbound message from a user.
type Event struct {
	Kind EventKind
	Text string
}

// Prompt is one outbound message. A non-empty Menu is rendered by the
// presentation adapter as a set of selectable options.
type Prompt struct {
	Text string
	Menu []string
}

// Menu labels. These values are contractual: the presentation adapter
// classifies a message matching one of them as a menu selection, and menu
// selections pre-empt any in-progress flow.
const (
	MenuAddMovie   = "add movie"
	MenuAddReview  = "add review"
	MenuListMovies = "list my movies"
	MenuDeleteMovie = "delete movie"
	MenuEditReview  = "edit review"
	MenuMore        = "more options"
	MenuBack        = "back"
)

// MainMenu is the top-level action keyboard.
var MainMenu = []string{MenuAddMovie, MenuAddReview, MenuListMovies, MenuMore}

// MoreMenu holds the destructive and editing actions behind "more options".
var MoreMenu = []string{MenuDeleteMovie, MenuEditReview, MenuBack}

var menuLabels = map[string]struct{}{
	MenuAddMovie:    {},
	MenuAddReview:   {},
	MenuListMovies:  {},
	MenuDeleteMovie: {},
	MenuEditReview:  {},
	MenuMore:        {},
	MenuBack:        {},
}

// IsMenuLabel reports whether text is one of the contractual menu labels.
func IsMenuLabel(text string) bool {
	_, ok := menuLabels[text]
	return ok
}
