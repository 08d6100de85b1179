/*
Package attr implements the attribute tree behind a session.

Values form a recursive tree: nil, bool, numbers, strings, map[string]any and
[]any. Paths are dot-delimited ("user.profile.name"); writes create the
intermediate maps, reads return a caller-supplied default on any missing
segment.

	m := attr.New()
	m.Put("user.name", "Ann")
	m.Put("user.age", 30)
	m.Get("user", nil) // map[string]any{"name": "Ann", "age": 30}
*/
package attr
