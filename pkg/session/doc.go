/*
Package session implements the per-request session store.

A Store binds an attribute tree to a session ID and a ports.Handler. It is
owned by a single request: Start loads the persisted attributes, the caller
reads and mutates them, and Save ages the flash data and writes the result
back.

	s := session.New("app", h, cookieValue)
	if err := s.Start(ctx); err != nil {
		return err
	}
	s.Put("user.name", "Ann")
	s.Flash("status", "saved")
	err := s.Save(ctx)

Flash data survives exactly one more Start/Save cycle than the one that wrote
it. Now writes data visible only until the next Save.
*/
package session
