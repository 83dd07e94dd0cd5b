// Package sync pushes and pulls export archives to remote or local
// targets. A target stores whole archives by name; there is no partial
// update and no locking, matching the last-write-wins model of the
// highlight store itself.
package sync

import (
	"context"
	"io"
)

// ArchiveKey is the object name archives are stored under on a target.
// Encrypted archives get the ".age" suffix appended.
const ArchiveKey = "archive.json"

// Target is one sync destination for export archives.
type Target interface {
	// Name returns the configured display name of the target.
	Name() string

	// Put uploads an archive, replacing any previous object with that key.
	Put(ctx context.Context, key string, r io.Reader) error

	// Get downloads an archive into w.
	Get(ctx context.Context, key string, w io.Writer) error

	// Validate verifies that the target is reachable and configured.
	Validate(ctx context.Context) error
}
