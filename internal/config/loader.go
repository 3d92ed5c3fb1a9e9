package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. A config.yaml file (optional)
// 3. BOT_* environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow a missing config file; defaults plus env vars may be enough.
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// setDefaults sets default values for optional configuration parameters.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	// Registering the keys lets AutomaticEnv feed them into Unmarshal even
	// when no config file is present. Validation still rejects empty tokens.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("conversation.session_ttl", DefaultSessionTTL)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.choose_action", DefaultMessages.ChooseAction)
	v.SetDefault("messages.more_options", DefaultMessages.MoreOptions)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.stats", DefaultMessages.Stats)

	v.SetDefault("messages.ask_title", DefaultMessages.AskTitle)
	v.SetDefault("messages.ask_description", DefaultMessages.AskDescription)
	v.SetDefault("messages.movie_added", DefaultMessages.MovieAdded)
	v.SetDefault("messages.movie_add_failed", DefaultMessages.MovieAddFailed)

	v.SetDefault("messages.ask_movie_query", DefaultMessages.AskMovieQuery)
	v.SetDefault("messages.candidates_found", DefaultMessages.CandidatesFound)
	v.SetDefault("messages.no_candidates", DefaultMessages.NoCandidates)
	v.SetDefault("messages.selection_not_in_list", DefaultMessages.SelectionNotInList)
	v.SetDefault("messages.ask_rating", DefaultMessages.AskRating)
	v.SetDefault("messages.invalid_rating", DefaultMessages.InvalidRating)
	v.SetDefault("messages.ask_comment", DefaultMessages.AskComment)
	v.SetDefault("messages.review_added", DefaultMessages.ReviewAdded)
	v.SetDefault("messages.review_conflict", DefaultMessages.ReviewConflict)
	v.SetDefault("messages.movie_not_found", DefaultMessages.MovieNotFound)

	v.SetDefault("messages.ask_delete_confirm", DefaultMessages.AskDeleteConfirm)
	v.SetDefault("messages.confirm_retry", DefaultMessages.ConfirmRetry)
	v.SetDefault("messages.movie_deleted", DefaultMessages.MovieDeleted)
	v.SetDefault("messages.delete_cancelled", DefaultMessages.DeleteCancelled)

	v.SetDefault("messages.current_review", DefaultMessages.CurrentReview)
	v.SetDefault("messages.ask_new_rating", DefaultMessages.AskNewRating)
	v.SetDefault("messages.ask_new_comment", DefaultMessages.AskNewComment)
	v.SetDefault("messages.review_updated", DefaultMessages.ReviewUpdated)
	v.SetDefault("messages.review_not_found", DefaultMessages.ReviewNotFound)

	v.SetDefault("messages.list_empty", DefaultMessages.ListEmpty)
	v.SetDefault("messages.list_entry", DefaultMessages.ListEntry)
	v.SetDefault("messages.list_review", DefaultMessages.ListReview)
	v.SetDefault("messages.list_no_review", DefaultMessages.ListNoReview)

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 4 * * *")
	v.SetDefault("scheduler.tasks.session_sweep.enabled", true)
	v.SetDefault("scheduler.tasks.session_sweep.schedule", "*/10 * * * *")
}
