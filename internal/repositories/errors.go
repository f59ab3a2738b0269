// Package repositories provides PostgreSQL-backed persistence for the Surf
// backend. Callers branch on the sentinel errors below; the pg error codes
// that produce them stay internal to this package.
package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write lost to a uniqueness
	// constraint or a compare-and-set guard.
	ErrConflict = errors.New("record conflict")
)
