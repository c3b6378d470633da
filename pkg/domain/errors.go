package domain

import "errors"

// ErrNodeExecutionNotFound is returned when no record exists for an id or ambiance.
var ErrNodeExecutionNotFound = errors.New("node execution not found")

// ErrDuplicateKey is returned when saving a record whose id already exists.
var ErrDuplicateKey = errors.New("node execution already exists")

// ErrVersionConflict is returned when an update was based on a stale version.
var ErrVersionConflict = errors.New("node execution version conflict")

// ErrTerminalTransition is returned when a final record is asked to move to a different status.
var ErrTerminalTransition = errors.New("node execution already in a final status")

// ErrEmptyAmbiance is returned when an operation needs a leaf level and the ambiance has none.
var ErrEmptyAmbiance = errors.New("ambiance has no levels")
