// Package tasks implements scheduled tasks for the bot: database
// maintenance and idle conversation session cleanup.
package tasks

import (
	"log/slog"

	"kinoteka/internal/config"
	"kinoteka/internal/conversation"
	"kinoteka/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Sessions *conversation.Sessions
}
