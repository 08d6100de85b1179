package session

// FlashBag is a minimal flash-message view over a Store.
// Reading a message removes it.
type FlashBag struct {
	store *Store
}

// NewFlashBag wraps s.
func NewFlashBag(s *Store) FlashBag {
	return FlashBag{store: s}
}

// Flash queues a message for the next request.
func (b FlashBag) Flash(name string, data any) {
	b.store.Flash(name, data)
}

// GetFlash returns the message stored under name, or def, and removes it.
func (b FlashBag) GetFlash(name string, def any) any {
	return b.store.Pull(name, def)
}
