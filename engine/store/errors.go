// Package store holds sentinel errors shared by the task, run and
// workflow repository interfaces and their backing implementations.
package store

import "errors"

// ErrNotFound is returned by repository Get methods when no row matches.
var ErrNotFound = errors.New("not found")
