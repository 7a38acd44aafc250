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

// Package temporal holds the value types shared by every index in this
// module: timestamps, versions, records, lifespans, and range queries.
package temporal

import "fmt"

// Timestamp is a point in the domain's wall-clock-like time, the "start"
// and "end" endpoints records and queries are expressed in.
type Timestamp int64

// Version identifies a point in the MVBT's logical time. Versions are
// monotone non-decreasing across all public operations.
type Version int64

// MaxVersion denotes "alive / open-ended": a Lifespan whose EndVersion is
// MaxVersion has not been closed.
const MaxVersion Version = 1<<63 - 1

// MaxTimestamp denotes an open-ended record end.
const MaxTimestamp Timestamp = 1<<63 - 1

// Key is a record identifier, used as the MVBT's indexed key.
type Key int64

// Attr is the optional secondary attribute records and queries may carry.
type Attr float64

// Record is a completed interval: a record id with a known start and end,
// and an optional secondary attribute.
type Record struct {
	ID           Key
	Start        Timestamp
	End          Timestamp
	Secondary    Attr
	HasSecondary bool
}

func (r Record) String() string {
	if r.HasSecondary {
		return fmt.Sprintf("Record{id=%d, [%d,%d), sec=%v}", r.ID, r.Start, r.End, r.Secondary)
	}
	return fmt.Sprintf("Record{id=%d, [%d,%d)}", r.ID, r.Start, r.End)
}

// RangeQuery asks which records' lifespans overlap [Lo, Hi], optionally
// restricted to a secondary-attribute window [AttrLo, AttrHi].
type RangeQuery struct {
	Lo, Hi         Timestamp
	HasAttr        bool
	AttrLo, AttrHi Attr
}

// MatchesAttr reports whether a (optional) record secondary attribute
// satisfies the query's secondary-attribute predicate. A query without an
// attribute window matches everything; a record without a secondary value
// matches only attribute-less queries.
func (q RangeQuery) MatchesAttr(r Record) bool {
	if !q.HasAttr {
		return true
	}
	if !r.HasSecondary {
		return false
	}
	return r.Secondary >= q.AttrLo && r.Secondary <= q.AttrHi
}

// Lifespan is the half-open version interval [StartVersion, EndVersion)
// during which an entry or node is alive.
type Lifespan struct {
	StartVersion Version
	EndVersion   Version
}

// NewLifespan returns an open (alive) lifespan starting at v.
func NewLifespan(v Version) Lifespan {
	return Lifespan{StartVersion: v, EndVersion: MaxVersion}
}

// IsAlive reports whether the lifespan is still open.
func (l Lifespan) IsAlive() bool { return l.EndVersion == MaxVersion }

// ContainsVersion reports whether v falls within [StartVersion, EndVersion).
func (l Lifespan) ContainsVersion(v Version) bool {
	return v >= l.StartVersion && v < l.EndVersion
}

// IntersectsVersionRange reports whether the lifespan intersects
// [lo, hi] (spec's query_range_lifespan: lifespan intersects [v_lo,v_hi]).
func (l Lifespan) IntersectsVersionRange(lo, hi Version) bool {
	return l.StartVersion <= hi && hi >= lo && l.EndVersion > lo
}

// End closes an alive lifespan at v. It panics if the lifespan is already
// closed: a dead entity is never ended again (spec invariant 2).
func (l *Lifespan) End(v Version) {
	if !l.IsAlive() {
		panic("temporal: cannot end an already-dead lifespan")
	}
	l.EndVersion = v
}

func (l Lifespan) String() string {
	if l.IsAlive() {
		return fmt.Sprintf("[%d, *)", l.StartVersion)
	}
	return fmt.Sprintf("[%d, %d)", l.StartVersion, l.EndVersion)
}

// KeyRange is the half-open key interval [MinKey, MaxKey) a node or entry
// covers.
type KeyRange struct {
	MinKey Key
	MaxKey Key
}

// Contains reports whether k falls within [MinKey, MaxKey).
func (kr KeyRange) Contains(k Key) bool {
	return k >= kr.MinKey && k < kr.MaxKey
}

// Intersects reports whether kr intersects the closed range [lo, hi].
func (kr KeyRange) Intersects(lo, hi Key) bool {
	return kr.MinKey <= hi && kr.MaxKey > lo
}

// ReduceMode selects how a set of matched record ids is folded into the
// single value the report prints (spec §6: "[COUNT]" or "[XOR]").
type ReduceMode int

const (
	// ReduceXOR XOR-combines every matched id. This is the default.
	ReduceXOR ReduceMode = iota
	// ReduceCount counts the matched ids instead of combining them.
	ReduceCount
)

func (m ReduceMode) String() string {
	if m == ReduceCount {
		return "[COUNT]"
	}
	return "[XOR]"
}

// Reduce folds ids according to mode.
func Reduce(ids []Key, mode ReduceMode) int64 {
	if mode == ReduceCount {
		return int64(len(ids))
	}
	var x int64
	for _, id := range ids {
		x ^= int64(id)
	}
	return x
}
