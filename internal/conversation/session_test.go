package conversation

import (
	"testing"
	"time"
)

func TestSessionsExpire(t *testing.T) {
	t.Parallel()
	sessions := NewSessions()

	stale := sessions.get(1)
	stale.lastActive = time.Now().Add(-time.Hour)
	fresh := sessions.get(2)
	fresh.lastActive = time.Now()

	expired := sessions.Expire(30 * time.Minute)
	if expired != 1 {
		t.Errorf("Expire returned %d, expected 1", expired)
	}
	if sessions.Len() != 1 {
		t.Errorf("expected 1 session remaining, got %d", sessions.Len())
	}
}

func TestExpireSkipsBusySessions(t *testing.T) {
	t.Parallel()
	sessions := NewSessions()

	busy := sessions.get(1)
	busy.lastActive = time.Now().Add(-time.Hour)
	busy.mu.Lock()
	defer busy.mu.Unlock()

	if expired := sessions.Expire(30 * time.Minute); expired != 0 {
		t.Errorf("Expire removed %d busy sessions, expected 0", expired)
	}
	if sessions.Len() != 1 {
		t.Errorf("expected busy session to survive, got %d sessions", sessions.Len())
	}
}

func TestSessionReset(t *testing.T) {
	t.Parallel()

	sess := &session{
		state:      StateDeleteConfirm,
		title:      "Dune",
		candidates: []candidate{{movieID: 1, title: "Dune"}},
		selected:   candidate{movieID: 1, title: "Dune"},
		rating:     5,
		reviewID:   10,
	}
	sess.reset()

	if sess.state != StateIdle {
		t.Errorf("state = %v after reset, expected idle", sess.state)
	}
	if sess.title != "" || sess.candidates != nil || sess.rating != 0 || sess.reviewID != 0 {
		t.Errorf("session fields not cleared: %+v", sess)
	}
}
