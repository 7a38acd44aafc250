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

import "github.com/sigmod24lit/Sigmod24lit/temporal"

// Manager drives one Buffer against a Bound policy, flushing the oldest
// open records into a Sink whenever the bound refuses to admit an
// incoming insert (spec §4.3's capacity- and duration-constrained write
// buffer).
type Manager struct {
	buf     Buffer
	bound   Bound
	sink    Sink
	version temporal.Version
	flushed int
	peak    int
}

// NewManager returns a Manager over buf, bounded by bound, flushing
// evicted records into sink.
func NewManager(buf Buffer, bound Bound, sink Sink) *Manager {
	return &Manager{buf: buf, bound: bound, sink: sink}
}

// Insert opens a new record, first flushing oldest entries to the sink
// until the bound admits it.
func (m *Manager) Insert(v temporal.Version, o Open) {
	m.version = v
	for !m.bound.Admit(m.buf, o) {
		if !m.flushOldest(o.Start) {
			break // nothing left to evict; admit anyway
		}
	}
	m.buf.Insert(o)
	if m.buf.Len() > m.peak {
		m.peak = m.buf.Len()
	}
}

// Close closes the open record with id at end, flushing it directly into
// the sink as a completed Record (spec: a Live Index entry's lifetime ends
// when its end timestamp becomes known, not when it is evicted).
func (m *Manager) Close(v temporal.Version, id temporal.Key, end temporal.Timestamp) bool {
	o, ok := m.buf.Remove(id)
	if !ok {
		return false
	}
	m.version = v
	m.sink.InsertRecord(v, temporal.Record{
		ID: o.ID, Start: o.Start, End: end,
		Secondary: o.Secondary, HasSecondary: o.HasSec,
	})
	m.flushed++
	return true
}

// flushOldest evicts the single oldest buffered record, closing it at
// asOf (the incoming record's start: the oldest open record's true end is
// unknown, so eviction treats "still open when flushed" as ending at the
// triggering insert's timestamp, matching the original's "evict-at-
// pressure" buffer semantics rather than leaving it open forever).
func (m *Manager) flushOldest(asOf temporal.Timestamp) bool {
	o, ok := m.buf.Oldest()
	if !ok {
		return false
	}
	m.buf.Remove(o.ID)
	m.sink.InsertRecord(m.version, temporal.Record{
		ID: o.ID, Start: o.Start, End: asOf,
		Secondary: o.Secondary, HasSecondary: o.HasSec,
	})
	m.flushed++
	return true
}

// Range reports every open record whose id falls in [lo, hi].
func (m *Manager) Range(lo, hi temporal.Key) []Open { return m.buf.Range(lo, hi) }

// ExecutePureTimeTravel reports every open record alive at instant t: one
// whose Start is at or before t (its end is unknown, so it is presumed
// alive through any later instant) (spec §4.3 execute_pureTimeTravel). It
// takes no secondary-attribute window and applies no attribute filter.
func (m *Manager) ExecutePureTimeTravel(t temporal.Timestamp) []temporal.Key {
	return m.ExecuteRangeTimeTravel(temporal.RangeQuery{Lo: t, Hi: t})
}

// ExecuteRangeTimeTravel reports the id of every open record whose
// lifespan (so far unbounded on the right) overlaps [q.Lo, q.Hi] — that
// is, every Start <= q.Hi — and whose secondary attribute matches q, if
// q constrains one (spec §4.3 execute_rangeTimeTravel; spec §2 "live
// records still in the buffer whose start <= Q.hi").
func (m *Manager) ExecuteRangeTimeTravel(q temporal.RangeQuery) []temporal.Key {
	var out []temporal.Key
	for _, o := range m.buf.All() {
		if o.Start > q.Hi {
			continue
		}
		rec := temporal.Record{ID: o.ID, Start: o.Start, End: temporal.MaxTimestamp, Secondary: o.Secondary, HasSecondary: o.HasSec}
		if q.MatchesAttr(rec) {
			out = append(out, o.ID)
		}
	}
	return out
}

// Size is the number of currently-open (buffered, not yet flushed)
// records.
func (m *Manager) Size() int { return m.buf.Len() }

// PeakSize is the largest Size ever observed, used for reporting (spec
// §6 "max buffer population").
func (m *Manager) PeakSize() int { return m.peak }

// Flushed is the number of records ever evicted or closed out of the
// buffer.
func (m *Manager) Flushed() int { return m.flushed }

// Backend names the underlying Buffer implementation.
func (m *Manager) Backend() string { return m.buf.Backend() }

// GetNumBuffers reports the number of internal buffer partitions this
// Manager stripes across. This implementation uses a single, unstriped
// buffer (NUM_BUFFERS=1 in the original source's terms); striping across
// multiple partitions to parallelize inserts is the Open Question the
// original source leaves unresolved for its own HashMap backend; it is
// out of scope for this single-goroutine Manager.
func (m *Manager) GetNumBuffers() int { return 1 }
