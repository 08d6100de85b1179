package domain

import "errors"

// ErrInvalidSessionID is returned by session.ParseID for malformed identifiers.
// Stores never surface it: an invalid ID is replaced by a freshly generated one.
var ErrInvalidSessionID = errors.New("invalid session id")

// ErrBackendUnavailable wraps storage I/O failures on read, write and destroy.
var ErrBackendUnavailable = errors.New("session backend unavailable")

// ErrMalformedPayload is returned when a stored record cannot be decoded.
var ErrMalformedPayload = errors.New("malformed session payload")

// ErrGCBatch wraps failures of a garbage collection sweep.
var ErrGCBatch = errors.New("session gc batch failed")

// ErrRecordNotFound is returned by record stores when a key does not exist.
var ErrRecordNotFound = errors.New("record not found")

// ErrRecordExists is returned by record stores when an insert hits an existing key.
var ErrRecordExists = errors.New("record already exists")
