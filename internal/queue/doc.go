// Package queue persists upload work items in SQLite.
//
// Each item tracks one asset folder from discovery through upload to a
// terminal state. The store serializes access through database/sql with WAL
// mode enabled, so the daemon and CLI can share one database file.
package queue
