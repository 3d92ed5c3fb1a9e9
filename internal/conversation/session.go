package conversation

import (
	"sync"
	"time"
)

// State is the current node of a user's conversation state machine.
type State int

const (
	StateIdle State = iota

	// Add Movie flow
	StateAddMovieTitle
	StateAddMovieDescription

	// Add Review flow
	StateAddReviewQuery
	StateAddReviewSelection
	StateAddReviewRating
	StateAddReviewComment

	// Delete Movie flow
	StateDeleteQuery
	StateDeleteSelection
	StateDeleteConfirm

	// Edit Review flow
	StateEditQuery
	StateEditSelection
	StateEditRating
	StateEditComment
)

// candidate is one movie from the list most recently presented to the user
// for selection. Selection steps only accept titles from this list.
type candidate struct {
	movieID int64
	title   string
}

// session is the per-user volatile conversation state. The mutex is held for
// the whole of one event, so events for the same user are strictly
// sequential while different users proceed concurrently.
type session struct {
	mu sync.Mutex

	state      State
	title      string
	candidates []candidate
	selected   candidate
	rating     int
	reviewID   int64
	lastActive time.Time
}

// reset returns the session to idle and drops all accumulated fields.
func (s *session) reset() {
	s.state = StateIdle
	s.title = ""
	s.candidates = nil
	s.selected = candidate{}
	s.rating = 0
	s.reviewID = 0
}

// Sessions tracks per-user conversation state in memory, keyed by the
// stable Telegram user ID. State does not survive a process restart.
type Sessions struct {
	mu     sync.Mutex
	byUser map[int64]*session
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{byUser: make(map[int64]*session)}
}

// get returns the session for userID, creating an idle one if absent.
func (s *Sessions) get(userID int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byUser[userID]
	if !ok {
		sess = &session{lastActive: time.Now()}
		s.byUser[userID] = sess
	}
	return sess
}

// Len returns the number of tracked sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}

// Expire removes sessions idle for longer than ttl and returns how many were
// dropped. Sessions currently processing an event are left alone.
func (s *Sessions) Expire(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	expired := 0
	for userID, sess := range s.byUser {
		if !sess.mu.TryLock() {
			continue
		}
		idle := sess.lastActive.Before(cutoff)
		sess.mu.Unlock()

		if idle {
			delete(s.byUser, userID)
			expired++
		}
	}
	return expired
}
