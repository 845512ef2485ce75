package common

// TimestampLayout is the textual form of every timestamp persisted by the
// audit log and the trash (YYYY-MM-DD HH:MM:SS, local time).
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultActor is recorded when a caller does not identify itself.
const DefaultActor = "Utilisateur"

// SnapshotKey is the single logical row key of the app_data table.
const SnapshotKey = "app_data"
