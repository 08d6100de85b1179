package domain

// Record is the envelope persisted for every session.
// LastActivity is a pointer so that a record missing the timestamp can be told
// apart from one written at the epoch.
type Record struct {
	Payload      map[string]any `json:"payload"`
	LastActivity *int64         `json:"last_activity,omitempty"`
}

// NewRecord builds a record stamped with the given unix time.
func NewRecord(payload map[string]any, lastActivity int64) Record {
	if payload == nil {
		payload = map[string]any{}
	}
	return Record{Payload: payload, LastActivity: &lastActivity}
}

// Stale reports whether the record has been idle for longer than the lifetime
// window ending at now. Records without a timestamp are never stale on read;
// the GC sweep treats them as expired instead.
func (r Record) Stale(now, lifetimeSeconds int64) bool {
	if r.LastActivity == nil || lifetimeSeconds <= 0 {
		return false
	}
	return *r.LastActivity < now-lifetimeSeconds
}

// Collectable reports whether a GC sweep with the given cutoff must delete the record.
func (r Record) Collectable(cutoff int64) bool {
	return r.LastActivity == nil || *r.LastActivity <= cutoff
}
