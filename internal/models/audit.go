package models

import (
	"fmt"
	"time"
)

// Action classifies an audit entry.
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionRestore Action = "RESTORE"
	ActionLoad    Action = "LOAD"
	ActionStartup Action = "STARTUP"
	ActionPurge   Action = "PURGE"
)

// KindDatabase is the entity kind recorded for whole-database operations
// such as load, startup and save.
const KindDatabase = "database"

// AuditEntry is one row of the audit trail. ID is assigned by the store.
type AuditEntry struct {
	ID        int64
	Timestamp time.Time
	Action    Action
	Kind      string
	EntityID  string
	Detail    string
	Actor     string
}

// Label is the human-readable action shown in exports, e.g. "DELETE vehicles".
func (e AuditEntry) Label() string {
	return fmt.Sprintf("%s %s", e.Action, e.Kind)
}

// Change describes a mutation the caller wants recorded alongside a save.
type Change struct {
	Action   Action
	Kind     string
	EntityID string
	Detail   string
	Actor    string
}

// DefaultChange is recorded by a save that does not describe its change.
func DefaultChange() Change {
	return Change{Action: ActionUpdate, Kind: KindDatabase, EntityID: "N/A", Detail: "snapshot saved"}
}
