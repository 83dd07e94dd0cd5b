package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"holdfast/internal/model"
)

// Store is the persistence collaborator the engine writes through. Every
// mutation replaces the owning page's full highlight list in one call; the
// store is expected to make that replace atomic.
type Store interface {
	// Load returns the stored highlight list for a page in insertion order.
	// An unknown page yields an empty list, not an error.
	Load(ctx context.Context, pageKey string) ([]model.Highlight, error)

	// Save atomically replaces the page's full highlight list.
	Save(ctx context.Context, pageKey string, highlights []model.Highlight) error

	// LoadSettings returns the user settings record, or defaults when none
	// has been stored yet.
	LoadSettings(ctx context.Context) (model.Settings, error)

	// SaveSettings replaces the settings record.
	SaveSettings(ctx context.Context, s model.Settings) error
}

// Logger provides structured logging for the engine.
// The args follow slog conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger is a Logger that discards all output. Use in tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

// Clock abstracts time retrieval so highlight timestamps are deterministic
// in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts highlight id generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// TimestampIDGenerator produces ids of the form <epoch-ms-hex>-<random>,
// a creation-time prefix plus a random UUID fragment. Uniqueness is
// best-effort here; the engine additionally checks new ids against the
// current list before use.
type TimestampIDGenerator struct {
	Clock Clock
}

func (g TimestampIDGenerator) New() string {
	clock := g.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return fmt.Sprintf("%x-%s", clock.Now().UnixMilli(), uuid.NewString()[:8])
}
