package attr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotNumeric is returned when incrementing a value that is not a number.
var ErrNotNumeric = errors.New("attribute is not numeric")

// Increment adds amount to the number at path, treating an absent or nil
// value as zero, and returns the new value. Integers stay int64, floats stay
// float64. Not atomic: the map has a single owner.
func (m *Map) Increment(path string, amount int64) (any, error) {
	current, _ := m.Lookup(path)

	var next any
	switch v := current.(type) {
	case nil:
		next = amount
	case int:
		next = int64(v) + amount
	case int8:
		next = int64(v) + amount
	case int16:
		next = int64(v) + amount
	case int32:
		next = int64(v) + amount
	case int64:
		next = v + amount
	case uint:
		next = int64(v) + amount
	case uint8:
		next = int64(v) + amount
	case uint16:
		next = int64(v) + amount
	case uint32:
		next = int64(v) + amount
	case uint64:
		next = int64(v) + amount
	case float32:
		next = float64(v) + float64(amount)
	case float64:
		next = v + float64(amount)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			next = i + amount
		} else if f, err := v.Float64(); err == nil {
			next = f + float64(amount)
		} else {
			return nil, fmt.Errorf("%w: %q", ErrNotNumeric, path)
		}
	default:
		return nil, fmt.Errorf("%w: %q holds %T", ErrNotNumeric, path, current)
	}

	m.Put(path, next)
	return next, nil
}

// Decrement subtracts amount from the number at path.
func (m *Map) Decrement(path string, amount int64) (any, error) {
	return m.Increment(path, -amount)
}
