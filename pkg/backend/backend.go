// Package backend provides persistence collaborators for the settings store:
// an in-memory map for tests and examples, a JSON file per option name, and
// a SQLite table. Each stamps audit metadata on save; none interprets the
// blob it stores.
package backend

import "time"

// Meta is storage-owned audit metadata recorded alongside each saved blob.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}
