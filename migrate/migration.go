package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Migration is one named, ordered, reversible unit of schema change.
// Source is the migration file's own text (or any caller-chosen
// canonical representation of its operations), hashed by Checksum so
// Recorder can refuse to silently re-apply a migration whose on-disk
// content drifted from what was recorded as applied.
type Migration struct {
	ID             string
	Operations     []Operation
	Atomic         bool
	IsolationLevel string
	Source         string
}

// Checksum returns the SHA-256 hex digest of m.Source.
func (m *Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.Source))
	return hex.EncodeToString(sum[:])
}

// NewMigrationID returns a timestamp-prefixed identifier for name,
// giving migrations a natural lexicographic apply order the way the
// teacher's CreateMigrationFile generates filenames.
func NewMigrationID(name string, unixTimestamp int64) string {
	return fmt.Sprintf("%d_%s", unixTimestamp, name)
}
