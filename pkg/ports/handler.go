package ports

import (
	"context"
	"time"
)

// Existence is what a handler learnt about a record during Read.
// Write uses it to pick insert or update without a second lookup.
type Existence int

const (
	// ExistenceUnknown forces Write to look the record up first.
	ExistenceUnknown Existence = iota
	// ExistenceAbsent means no record was stored under the ID.
	ExistenceAbsent
	// ExistencePresent means a record is stored, live or expired.
	ExistencePresent
)

func (e Existence) String() string {
	switch e {
	case ExistenceAbsent:
		return "absent"
	case ExistencePresent:
		return "present"
	default:
		return "unknown"
	}
}

// ReadResult is the outcome of Handler.Read.
type ReadResult struct {
	// Attributes is the stored attribute tree, nil when the record is missing,
	// expired or malformed.
	Attributes map[string]any

	// Exists reports whether a record is physically stored under the ID.
	Exists bool
}

// Existence converts the result into a hint for Handler.Write.
func (r ReadResult) Existence() Existence {
	if r.Exists {
		return ExistencePresent
	}
	return ExistenceAbsent
}

// GCReport summarises one garbage collection sweep.
type GCReport struct {
	Scanned   int `json:"scanned"`
	Deleted   int `json:"deleted"`
	Malformed int `json:"malformed"`
}

// Handler persists session payloads keyed by session ID.
type Handler interface {
	// Open is called once before the handler serves a namespace.
	Open(ctx context.Context, namespace string) error

	// Close releases resources held by the handler.
	Close() error

	// Read fetches the attributes stored for id. Expired and malformed records
	// yield nil attributes rather than an error.
	Read(ctx context.Context, id string) (ReadResult, error)

	// Write upserts attrs for id and stamps the record with the current time.
	Write(ctx context.Context, id string, attrs map[string]any, hint Existence) error

	// Destroy deletes the record for id.
	Destroy(ctx context.Context, id string) error

	// GC deletes records idle for at least lifetime. A single call inspects a
	// bounded batch; repeated calls converge on a full cleanup.
	GC(ctx context.Context, lifetime time.Duration) (GCReport, error)
}
