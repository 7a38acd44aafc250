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

// Package liveindex holds records whose end timestamp is not yet known:
// the write buffer that absorbs inserts until a bound (a capacity or a
// duration) forces it to flush the oldest open records into a durable
// backing index (an mvbt.Tree or a spatialindex.Index).
package liveindex

import "github.com/sigmod24lit/Sigmod24lit/temporal"

// Open is one not-yet-closed record: a key whose End is still unknown.
type Open struct {
	ID        temporal.Key
	Start     temporal.Timestamp
	Secondary temporal.Attr
	HasSec    bool
}

// Buffer is the Live Index's storage contract. Every backend satisfies it
// with different space/time tradeoffs (spec §4.3): OrderedMap backs range
// scans with a balanced tree, Vector trades scan cost for insert/remove
// simplicity, and HashMap trades O(1) point operations for an overflow
// list on removal collisions.
type Buffer interface {
	// Insert adds a newly opened record.
	Insert(o Open)
	// Remove closes and evicts the record with id, if present, reporting
	// whether it was found.
	Remove(id temporal.Key) (Open, bool)
	// Range reports every currently-open record whose id falls in
	// [lo, hi].
	Range(lo, hi temporal.Key) []Open
	// All reports every currently-open record, in no particular order.
	// Used to answer a time-travel query against the buffer itself (spec
	// §4.3 execute_pureTimeTravel/execute_rangeTimeTravel): an open
	// record's relevance is governed by its Start timestamp, not its id,
	// so Range's id-keyed pruning cannot serve that lookup.
	All() []Open
	// Len reports the number of currently-open records.
	Len() int
	// Oldest returns the earliest-inserted open record still buffered,
	// used by the bound policies to pick a flush victim.
	Oldest() (Open, bool)
	// Backend names the concrete implementation, for metrics labels.
	Backend() string
}

// Sink receives records evicted from the Live Index once their end
// timestamp becomes known, writing them into a durable temporal index.
type Sink interface {
	InsertRecord(v temporal.Version, r temporal.Record)
}

// Bound decides when the buffer must shed records before an Insert is
// allowed to proceed (spec §4.3: capacity-constrained or duration-
// constrained).
type Bound interface {
	// Admit reports whether buf may accept one more open record without
	// first evicting, given the record about to be inserted.
	Admit(buf Buffer, incoming Open) bool
}

// CapacityBound evicts the oldest open record whenever the buffer is at
// or above Capacity.
type CapacityBound struct {
	Capacity int
}

// Admit implements Bound.
func (b CapacityBound) Admit(buf Buffer, _ Open) bool {
	return buf.Len() < b.Capacity
}

// DurationBound evicts open records in insertion order for as long as the
// earliest-inserted one's age (incoming.Start minus its own Start) exceeds
// Window; a later-inserted record with an older Start is not examined
// until it becomes the earliest-inserted one.
type DurationBound struct {
	Window temporal.Timestamp
}

// Admit implements Bound.
func (b DurationBound) Admit(buf Buffer, incoming Open) bool {
	oldest, ok := buf.Oldest()
	if !ok {
		return true
	}
	return incoming.Start-oldest.Start <= b.Window
}
