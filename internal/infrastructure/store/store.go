// Package store keeps each user's latest prediction batch alive between
// requests, evicting entries that have gone without a heartbeat for too long.
package store

import (
	"context"
	"time"

	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/pkg/errors"
)

// Preferences are the plot settings the user last selected. They ride along
// with the predictions so a page reload renders the same view.
type Preferences struct {
	ATCCode   string `json:"atc_code"`
	XProperty string `json:"x_property"`
	YProperty string `json:"y_property"`
}

// Entry is one user's stored batch plus display preferences.
type Entry struct {
	Table       *admet.Table `json:"table"`
	Preferences Preferences  `json:"preferences"`
	LastSeen    time.Time    `json:"last_seen"`
}

// Store is the per-user prediction cache. Implementations must treat Touch
// as refresh-only: touching a user with no entry never creates one.
type Store interface {
	// Set replaces the user's entry with a fresh table and resets the clock.
	Set(ctx context.Context, userID string, table *admet.Table, prefs Preferences) error

	// Get returns the user's entry, or ErrCodePredictionsNotFound.
	Get(ctx context.Context, userID string) (*Entry, error)

	// Touch refreshes the expiry clock for an existing entry. Unknown users
	// are a no-op.
	Touch(ctx context.Context, userID string) error

	// SetPreferences updates the stored plot preferences without replacing
	// the table. Returns ErrCodePredictionsNotFound when no entry exists.
	SetPreferences(ctx context.Context, userID string, prefs Preferences) error

	// Close releases background resources.
	Close() error
}

// ErrNotFound is the sentinel returned when a user has no stored batch.
func ErrNotFound(userID string) error {
	return errors.New(errors.ErrCodePredictionsNotFound, "no predictions stored for user").
		WithDetail("user_id=" + userID)
}
