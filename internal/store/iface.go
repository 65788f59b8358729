package store

import (
	"context"
	"errors"

	"github.com/ankittk/osboard/pkg/models"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("store: not found")

// Store persists the local state of the board daemon: the last filter selection per
// user and the activity journal. Implementations: SQLite (this package),
// *postgres.Store and *mongo.Store.
type Store interface {
	// Filters
	SaveFilters(ctx context.Context, key string, value []byte) error
	LoadFilters(ctx context.Context, key string) ([]byte, error)

	// Activity
	RecordActivity(ctx context.Context, a models.Activity) error
	ListActivity(ctx context.Context, q ActivityQuery) ([]models.Activity, error)

	// Lifecycle
	Close() error
}

// ActivityQuery selects journal entries, newest first.
type ActivityQuery struct {
	OrderID string
	Limit   int
}

// Prepare fills the ID and timestamp of a to-be-recorded activity.
func Prepare(a models.Activity) models.Activity {
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.At.IsZero() {
		a.At = nowFunc()
	}
	a.At = a.At.UTC()
	return a
}

// Limit clamps a requested page size.
func Limit(n int) int {
	if n <= 0 {
		return models.DefaultActivityLimit
	}
	if n > MaxActivityLimit {
		return MaxActivityLimit
	}
	return n
}

// MaxActivityLimit caps ListActivity.
const MaxActivityLimit = 1000
