// Package repository holds the persistence layer of the engine: the Store
// and Tx contracts the service layer depends on, the MySQL implementation
// of those contracts and the sentinel errors shared by every
// implementation.  Handlers and services compare against these sentinels
// with errors.Is, so implementations must return (or wrap) them verbatim.
package repository

import "errors"

// ErrEventNotFound is returned when an event lookup by id or by remote id
// yields no row.
var ErrEventNotFound = errors.New("event not found")

// ErrSeatNotFound is returned when no mirror seat exists at the requested
// position.  For the sale path this signals a reconciliation gap between
// the authority and the local mirror.
var ErrSeatNotFound = errors.New("seat not found")

// ErrConflict is returned when a write violates a uniqueness constraint,
// such as two local events claiming the same remote id.
var ErrConflict = errors.New("conflict")
