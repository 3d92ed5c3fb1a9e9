package tasks

import (
	"context"
)

// newSessionSweepTask creates the scheduled task that clears conversation
// sessions abandoned mid-flow. A user who walks away from a half-finished
// flow otherwise keeps its state until they start a new one.
func newSessionSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "session_sweep")
	ttl := deps.Config.Conversation.SessionTTL

	return func(ctx context.Context) error {
		expired := deps.Sessions.Expire(ttl)
		if expired > 0 {
			log.InfoContext(ctx, "Expired idle conversation sessions",
				"expired", expired, "remaining", deps.Sessions.Len(), "ttl", ttl)
		} else {
			log.DebugContext(ctx, "No idle conversation sessions to expire", "tracked", deps.Sessions.Len())
		}
		return nil
	}
}
