/*
Package handler provides the default ports.Handler.

It stores every session as a JSON envelope

	{"payload": {...}, "last_activity": 1700000000}

under the key "session:{namespace}:{id}" of a ports.RecordStore, and applies
the idle lifetime on read and during garbage collection. Any RecordStore works:
memory, file, Redis, BuntDB or Badger.
*/
package handler
