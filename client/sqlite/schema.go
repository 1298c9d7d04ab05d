package sqlite

// Schema version for migration management
const SchemaVersion = 1

// SnapshotTableSQL stores the last known snapshot as a single JSON document.
// The sync core replaces it wholesale on every write (copy-on-write), so a
// one-row table is all the structure it needs.
const SnapshotTableSQL = `
CREATE TABLE IF NOT EXISTS snapshot (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    data TEXT NOT NULL,
    saved_at INTEGER NOT NULL
);
`

// PendingActionsTableSQL stores the ordered queue of not-yet-acknowledged
// actions. seq preserves insertion order; replay during drain walks it
// ascending.
const PendingActionsTableSQL = `
CREATE TABLE IF NOT EXISTS pending_actions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    action_id TEXT NOT NULL UNIQUE,
    kind TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
`

// SchemaVersionTableSQL creates the schema version table for migration tracking
const SchemaVersionTableSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// PendingActionsIndexesSQL creates indexes on pending_actions
const PendingActionsIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_pending_actions_created_at ON pending_actions(created_at);
`

// AllTableSchemas returns all table creation statements in order
func AllTableSchemas() []string {
	return []string{
		SnapshotTableSQL,
		PendingActionsTableSQL,
		SchemaVersionTableSQL,
		PendingActionsIndexesSQL,
	}
}
