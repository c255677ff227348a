package utils

import "encoding/json"

// An OrderedMap keeps the insertion order of its entries while still allowing
// O(1) lookup by key, unlike a plain Go map whose iteration order is randomized.
// Several stages of the compiler need this: the lowering phase must visit classes
// and subroutines in a stable order so that generated label names (and thus the
// generated code itself) are reproducible across runs.
type OrderedMap[K comparable, V any] struct {
	keys    []K
	values  map[K]V
	present map[K]bool
}

// A single key/value pair, used to seed an OrderedMap with a specific order.
type MapEntry[K comparable, V any] struct {
	Key   K
	Value V
}

// Builds a new, empty OrderedMap.
func NewOrderedMap[K comparable, V any]() OrderedMap[K, V] {
	return OrderedMap[K, V]{values: map[K]V{}, present: map[K]bool{}}
}

// Builds an OrderedMap from a list of entries, preserving the list's order.
// Later entries with a duplicate key overwrite earlier ones but keep their
// original position in the order.
func NewOrderedMapFromList[K comparable, V any](entries []MapEntry[K, V]) OrderedMap[K, V] {
	om := NewOrderedMap[K, V]()
	for _, entry := range entries {
		om.Set(entry.Key, entry.Value)
	}
	return om
}

// Inserts or updates the value associated with 'key'. Preserves the existing
// position in the order if the key is already present.
func (om *OrderedMap[K, V]) Set(key K, value V) {
	if om.values == nil {
		om.values, om.present = map[K]V{}, map[K]bool{}
	}
	if !om.present[key] {
		om.keys = append(om.keys, key)
		om.present[key] = true
	}
	om.values[key] = value
}

// Looks up the value associated with 'key', the second return value reports whether it was found.
func (om *OrderedMap[K, V]) Get(key K) (V, bool) {
	v, ok := om.values[key]
	return v, ok
}

// Returns the number of entries currently stored.
func (om *OrderedMap[K, V]) Size() int { return len(om.keys) }

// Returns the stored values in insertion order. The key is discarded since
// callers so far always have the key embedded in the value (e.g. Class.Name).
func (om *OrderedMap[K, V]) Entries() []V {
	values := make([]V, 0, len(om.keys))
	for _, key := range om.keys {
		values = append(values, om.values[key])
	}
	return values
}

// Returns the keys in insertion order.
func (om *OrderedMap[K, V]) Keys() []K {
	keys := make([]K, len(om.keys))
	copy(keys, om.keys)
	return keys
}

// MarshalJSON encodes the map as an ordered array of entries rather than a JSON object, since a
// JSON object's key order isn't guaranteed to survive a round trip through every decoder.
func (om OrderedMap[K, V]) MarshalJSON() ([]byte, error) {
	entries := make([]MapEntry[K, V], 0, len(om.keys))
	for _, key := range om.keys {
		entries = append(entries, MapEntry[K, V]{Key: key, Value: om.values[key]})
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes an array of entries (as produced by MarshalJSON) back into an OrderedMap,
// preserving the array's order.
func (om *OrderedMap[K, V]) UnmarshalJSON(data []byte) error {
	var entries []MapEntry[K, V]
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*om = NewOrderedMapFromList(entries)
	return nil
}
