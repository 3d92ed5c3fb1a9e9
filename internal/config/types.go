// Package config manages application configuration from environment variables,
// config files, and default values.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrConfiguration indicates a configuration loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration. Values can be set via
// environment variables prefixed with BOT_ (e.g., BOT_TELEGRAM_TOKEN) or
// through config.yaml.
type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Messages     MessagesConfig     `mapstructure:"messages"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram transport settings.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"omitempty,gt=0"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ConversationConfig holds conversation engine settings.
type ConversationConfig struct {
	// SessionTTL is how long an abandoned session may stay idle before the
	// session sweep task clears it.
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"required,min=1m,max=24h"`
}

// SchedulerConfig holds the scheduled task table.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds every user-facing text the bot emits. All of them can
// be overridden in config.yaml; messages containing fmt verbs are used as
// format templates.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	Help          string `mapstructure:"help"           validate:"required"`
	ChooseAction  string `mapstructure:"choose_action"  validate:"required"`
	MoreOptions   string `mapstructure:"more_options"   validate:"required"`
	NotAuthorized string `mapstructure:"not_authorized" validate:"required"`
	GeneralError  string `mapstructure:"general_error"  validate:"required"`
	Stats         string `mapstructure:"stats"          validate:"required"`

	AskTitle       string `mapstructure:"ask_title"        validate:"required"`
	AskDescription string `mapstructure:"ask_description"  validate:"required"`
	MovieAdded     string `mapstructure:"movie_added"      validate:"required"`
	MovieAddFailed string `mapstructure:"movie_add_failed" validate:"required"`

	AskMovieQuery      string `mapstructure:"ask_movie_query"       validate:"required"`
	CandidatesFound    string `mapstructure:"candidates_found"      validate:"required"`
	NoCandidates       string `mapstructure:"no_candidates"         validate:"required"`
	SelectionNotInList string `mapstructure:"selection_not_in_list" validate:"required"`
	AskRating          string `mapstructure:"ask_rating"            validate:"required"`
	InvalidRating      string `mapstructure:"invalid_rating"        validate:"required"`
	AskComment         string `mapstructure:"ask_comment"           validate:"required"`
	ReviewAdded        string `mapstructure:"review_added"          validate:"required"`
	ReviewConflict     string `mapstructure:"review_conflict"       validate:"required"`
	MovieNotFound      string `mapstructure:"movie_not_found"       validate:"required"`

	AskDeleteConfirm string `mapstructure:"ask_delete_confirm" validate:"required"`
	ConfirmRetry     string `mapstructure:"confirm_retry"      validate:"required"`
	MovieDeleted     string `mapstructure:"movie_deleted"      validate:"required"`
	DeleteCancelled  string `mapstructure:"delete_cancelled"   validate:"required"`

	CurrentReview  string `mapstructure:"current_review"  validate:"required"`
	AskNewRating   string `mapstructure:"ask_new_rating"  validate:"required"`
	AskNewComment  string `mapstructure:"ask_new_comment" validate:"required"`
	ReviewUpdated  string `mapstructure:"review_updated"   validate:"required"`
	ReviewNotFound string `mapstructure:"review_not_found" validate:"required"`

	ListEmpty    string `mapstructure:"list_empty"     validate:"required"`
	ListEntry    string `mapstructure:"list_entry"     validate:"required"`
	ListReview   string `mapstructure:"list_review"    validate:"required"`
	ListNoReview string `mapstructure:"list_no_review" validate:"required"`
}

// Validate checks the complete configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
