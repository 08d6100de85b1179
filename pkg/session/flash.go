package session

import (
	"slices"

	"github.com/aretw0/stash/pkg/attr"
)

// Reserved attribute paths.
const (
	flashNewKey = "_flash.new"
	flashOldKey = "_flash.old"
	oldInputKey = "_old_input"
)

// flashLedger tracks which keys are flash data inside an attribute map.
// Keys in new were flashed this cycle; keys in old are dropped on the next age.
type flashLedger struct {
	attrs *attr.Map
}

func (l flashLedger) list(path string) []string {
	return attr.Strings(l.attrs.Get(path, nil))
}

func (l flashLedger) set(path string, keys []string) {
	seq := make([]any, len(keys))
	for i, k := range keys {
		seq[i] = k
	}
	l.attrs.Put(path, seq)
}

func (l flashLedger) flash(key string, value any) {
	l.attrs.Put(key, value)
	l.mergeNew(key)
	l.removeOld(key)
}

func (l flashLedger) now(key string, value any) {
	l.attrs.Put(key, value)
	l.set(flashOldKey, append(l.list(flashOldKey), key))
}

func (l flashLedger) reflash() {
	l.mergeNew(l.list(flashOldKey)...)
	l.set(flashOldKey, nil)
}

func (l flashLedger) keep(keys ...string) {
	l.mergeNew(keys...)
	l.removeOld(keys...)
}

// age drops the old keys and rotates new into old. Must run once per save.
func (l flashLedger) age() {
	l.attrs.Forget(l.list(flashOldKey)...)
	l.set(flashOldKey, l.list(flashNewKey))
	l.set(flashNewKey, nil)
}

func (l flashLedger) mergeNew(keys ...string) {
	merged := l.list(flashNewKey)
	for _, k := range keys {
		if !slices.Contains(merged, k) {
			merged = append(merged, k)
		}
	}
	l.set(flashNewKey, merged)
}

func (l flashLedger) removeOld(keys ...string) {
	old := slices.DeleteFunc(l.list(flashOldKey), func(k string) bool {
		return slices.Contains(keys, k)
	})
	l.set(flashOldKey, old)
}
