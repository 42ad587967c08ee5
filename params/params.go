// Package params provides the ordered key/value collection sent with every action goal.
//
// Keys may repeat on the wire. Lookups always resolve to the first pair with a
// matching key, so earlier pairs shadow later ones.
package params

import (
	"slices"
	"strings"
)

// KeyValue is a single parameter pair.
type KeyValue struct {
	Key   string `json:"key"   yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Params is an ordered collection of key/value pairs.
// The zero value is an empty collection ready to use.
type Params struct {
	pairs []KeyValue
}

// New creates a collection from the given pairs, preserving their order.
func New(pairs ...KeyValue) Params {
	return Params{pairs: slices.Clone(pairs)}
}

// FromMap creates a collection from a map. Since maps are unordered the keys
// are sorted to keep the wire order deterministic.
func FromMap(m map[string]string) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	p := Params{pairs: make([]KeyValue, 0, len(keys))}
	for _, k := range keys {
		p.pairs = append(p.pairs, KeyValue{Key: k, Value: m[k]})
	}

	return p
}

// Get returns the value of the first pair whose key matches.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p.pairs {
		if kv.Key == key {
			return kv.Value, true
		}
	}

	return "", false
}

// GetFirst scans the keys in order and returns the first one present.
// The returned key tells the caller which alias matched.
func (p Params) GetFirst(keys ...string) (key string, value string, ok bool) {
	for _, k := range keys {
		if v, found := p.Get(k); found {
			return k, v, true
		}
	}

	return "", "", false
}

// Has reports whether any pair has the given key.
func (p Params) Has(key string) bool {
	_, ok := p.Get(key)

	return ok
}

// Add appends a pair, even if the key is already present.
func (p *Params) Add(key, value string) {
	p.pairs = append(p.pairs, KeyValue{Key: key, Value: value})
}

// Set replaces the value of the first pair with the given key, or appends a new
// pair if the key is absent. Shadowed duplicates are left untouched.
func (p *Params) Set(key, value string) {
	for i := range p.pairs {
		if p.pairs[i].Key == key {
			p.pairs[i].Value = value

			return
		}
	}

	p.Add(key, value)
}

// Delete removes every pair with the given key.
func (p *Params) Delete(key string) {
	p.pairs = slices.DeleteFunc(p.pairs, func(kv KeyValue) bool {
		return kv.Key == key
	})
}

// Merge sets every visible pair of other into p. Only the first occurrence of a
// key in other is used, matching what Get on other would return.
func (p *Params) Merge(other Params) {
	for _, kv := range other.Unique().pairs {
		p.Set(kv.Key, kv.Value)
	}
}

// Len returns the number of pairs, duplicates included.
func (p Params) Len() int {
	return len(p.pairs)
}

// Pairs returns a copy of the pairs in wire order.
func (p Params) Pairs() []KeyValue {
	return slices.Clone(p.pairs)
}

// Keys returns the distinct keys in order of first appearance.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p.pairs))

	for _, kv := range p.pairs {
		if !slices.Contains(keys, kv.Key) {
			keys = append(keys, kv.Key)
		}
	}

	return keys
}

// Unique returns a collection holding only the visible (first) pair of each key.
func (p Params) Unique() Params {
	out := Params{pairs: make([]KeyValue, 0, len(p.pairs))}

	for _, kv := range p.pairs {
		if !out.Has(kv.Key) {
			out.pairs = append(out.pairs, kv)
		}
	}

	return out
}

// Map returns the visible pairs as a map.
func (p Params) Map() map[string]string {
	out := make(map[string]string, len(p.pairs))

	for _, kv := range p.pairs {
		if _, ok := out[kv.Key]; !ok {
			out[kv.Key] = kv.Value
		}
	}

	return out
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	return Params{pairs: slices.Clone(p.pairs)}
}

// Equal reports whether both collections hold the same pairs in the same order.
func (p Params) Equal(other Params) bool {
	return slices.Equal(p.pairs, other.pairs)
}

// String renders the pairs as "k=v, k=v" for logs.
func (p Params) String() string {
	parts := make([]string, 0, len(p.pairs))
	for _, kv := range p.pairs {
		parts = append(parts, kv.Key+"="+kv.Value)
	}

	return strings.Join(parts, ", ")
}

// GetValueOf returns the value of the first pair in pairs whose key matches.
// It works directly on wire-level slices, such as a decoded goal body.
func GetValueOf(pairs []KeyValue, key string) (string, bool) {
	return Params{pairs: pairs}.Get(key)
}
