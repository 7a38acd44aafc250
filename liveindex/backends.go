// Copyright 2017 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package liveindex

import (
	"github.com/google/btree"
	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

// degree is the google/btree fanout used by the OrderedMap backend.
const degree = 32

// fifo tracks insertion order for Oldest(), independent of the backend's
// own lookup structure: every backend shares this helper rather than
// reimplementing victim selection three times.
type fifo struct {
	order []temporal.Key
}

func (f *fifo) push(id temporal.Key) { f.order = append(f.order, id) }

func (f *fifo) remove(id temporal.Key) {
	for i, k := range f.order {
		if k == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			return
		}
	}
}

func (f *fifo) oldest() (temporal.Key, bool) {
	if len(f.order) == 0 {
		return 0, false
	}
	return f.order[0], true
}

// --- OrderedMap --------------------------------------------------------

// OrderedMap backs the Live Index with a google/btree ordered map keyed by
// record id: range scans walk the tree in key order, point operations are
// O(log n) (spec §4.3, backend 1).
type OrderedMap struct {
	tree *btree.BTreeG[entry]
	fifo fifo
}

type entry struct {
	id temporal.Key
	o  Open
}

// NewOrderedMap returns an empty OrderedMap-backed buffer.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{
		tree: btree.NewG(degree, func(a, b entry) bool { return a.id < b.id }),
	}
}

func (m *OrderedMap) Insert(o Open) {
	m.tree.ReplaceOrInsert(entry{id: o.ID, o: o})
	m.fifo.push(o.ID)
}

func (m *OrderedMap) Remove(id temporal.Key) (Open, bool) {
	e, ok := m.tree.Delete(entry{id: id})
	if !ok {
		return Open{}, false
	}
	m.fifo.remove(id)
	return e.o, true
}

func (m *OrderedMap) Range(lo, hi temporal.Key) []Open {
	var out []Open
	m.tree.AscendRange(entry{id: lo}, entry{id: hi + 1}, func(e entry) bool {
		out = append(out, e.o)
		return true
	})
	return out
}

func (m *OrderedMap) All() []Open {
	out := make([]Open, 0, m.tree.Len())
	m.tree.Ascend(func(e entry) bool {
		out = append(out, e.o)
		return true
	})
	return out
}

func (m *OrderedMap) Len() int { return m.tree.Len() }

func (m *OrderedMap) Oldest() (Open, bool) {
	id, ok := m.fifo.oldest()
	if !ok {
		return Open{}, false
	}
	e, ok := m.tree.Get(entry{id: id})
	return e.o, ok
}

func (m *OrderedMap) Backend() string { return "ordered-map" }

// --- Vector --------------------------------------------------------

// Vector backs the Live Index with a flat, append-only slice: inserts are
// O(1), lookups and removal are O(n) linear scans (spec §4.3, backend 2).
// It favors small buffers and simplicity over scan cost.
type Vector struct {
	items []Open
}

// NewVector returns an empty Vector-backed buffer.
func NewVector() *Vector { return &Vector{} }

func (v *Vector) Insert(o Open) { v.items = append(v.items, o) }

func (v *Vector) Remove(id temporal.Key) (Open, bool) {
	for i, o := range v.items {
		if o.ID == id {
			v.items = append(v.items[:i], v.items[i+1:]...)
			return o, true
		}
	}
	return Open{}, false
}

func (v *Vector) Range(lo, hi temporal.Key) []Open {
	var out []Open
	for _, o := range v.items {
		if o.ID >= lo && o.ID <= hi {
			out = append(out, o)
		}
	}
	return out
}

func (v *Vector) All() []Open {
	out := make([]Open, len(v.items))
	copy(out, v.items)
	return out
}

func (v *Vector) Len() int { return len(v.items) }

func (v *Vector) Oldest() (Open, bool) {
	if len(v.items) == 0 {
		return Open{}, false
	}
	return v.items[0], true
}

func (v *Vector) Backend() string { return "vector" }

// --- HashMap --------------------------------------------------------

// hashBuckets is the fixed bucket count for the HashMap backend's table;
// records whose id hashes into the same bucket chain onto that bucket's
// overflow list, mirroring the fixed-size hash table with chaining the
// original source uses instead of a language-native growable map (spec
// §4.3, backend 3, "enhanced hashmap with overflow").
const hashBuckets = 1024

// HashMap backs the Live Index with a fixed-size bucket table and
// per-bucket overflow chaining: O(1) average point operations, O(n) range
// scans (it has no ordering to exploit).
type HashMap struct {
	buckets [hashBuckets][]Open
	fifo    fifo
	size    int
}

// NewHashMap returns an empty HashMap-backed buffer.
func NewHashMap() *HashMap { return &HashMap{} }

func bucketFor(id temporal.Key) int {
	h := uint64(id)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return int(h % hashBuckets)
}

func (h *HashMap) Insert(o Open) {
	b := bucketFor(o.ID)
	h.buckets[b] = append(h.buckets[b], o)
	h.fifo.push(o.ID)
	h.size++
}

func (h *HashMap) Remove(id temporal.Key) (Open, bool) {
	b := bucketFor(id)
	chain := h.buckets[b]
	for i, o := range chain {
		if o.ID == id {
			h.buckets[b] = append(chain[:i], chain[i+1:]...)
			h.fifo.remove(id)
			h.size--
			return o, true
		}
	}
	return Open{}, false
}

func (h *HashMap) Range(lo, hi temporal.Key) []Open {
	var out []Open
	for _, chain := range h.buckets {
		for _, o := range chain {
			if o.ID >= lo && o.ID <= hi {
				out = append(out, o)
			}
		}
	}
	return out
}

func (h *HashMap) All() []Open {
	out := make([]Open, 0, h.size)
	for _, chain := range h.buckets {
		out = append(out, chain...)
	}
	return out
}

func (h *HashMap) Len() int { return h.size }

func (h *HashMap) Oldest() (Open, bool) {
	id, ok := h.fifo.oldest()
	if !ok {
		return Open{}, false
	}
	return h.Get(id)
}

// Get looks up id without removing it.
func (h *HashMap) Get(id temporal.Key) (Open, bool) {
	for _, o := range h.buckets[bucketFor(id)] {
		if o.ID == id {
			return o, true
		}
	}
	return Open{}, false
}

func (h *HashMap) Backend() string { return "hashmap" }
