// Package repository implements persistence for blocks, waitlist
// entries, bookings and administrative users on top of database/sql.
// This file defines the sentinel errors reused across repositories so
// that handlers and the offer coordinator can distinguish failure
// scenarios without inspecting error strings.
package repository

import "errors"

// ErrNotFound is returned when a referenced block or waitlist entry
// does not exist. Handlers should translate this into an HTTP 404
// response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an optimistic state transition finds
// the row no longer in the expected prior state, for example when two
// requests race to claim the same offer. Handlers should translate
// this into an HTTP 409 response; callers must not retry the same
// transition, only re-read current state.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when a caller presents a token that does
// not match the entry it tries to act on. Handlers should translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")
