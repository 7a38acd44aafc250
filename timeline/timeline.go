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

// Package timeline implements the Timeline Index: an append-only log of
// start/end events plus periodic bitmap checkpoints, purpose-built for
// pure time-travel range queries (spec §4.2) without the version-routing
// machinery the MVBT needs for point updates.
package timeline

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/sigmod24lit/Sigmod24lit/endpointindex"
	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

// checkpoint is a snapshot of which record ids (bit index = record id) are
// alive immediately after event #spot was applied, taken every
// checkpointFrequency events so a query can seek to the nearest preceding
// checkpoint instead of replaying from the beginning of the log.
type checkpoint struct {
	spot  int
	alive *bitset.BitSet
}

// Index is the Timeline Index: a fixed, append-only endpoint-event log
// built once from a relation's records, with periodic alive-set
// checkpoints.
type Index struct {
	events      []endpointindex.Endpoint
	records     map[temporal.Key]temporal.Record
	checkpoints []checkpoint
	frequency   int
}

// defaultCheckpointFrequency mirrors the original source's checkpoint
// cadence constant: one bitmap snapshot every 1000 events.
const defaultCheckpointFrequency = 1000

// Build constructs a Timeline Index over rs, checkpointing the alive-set
// every frequency events (frequency <= 0 uses the default cadence).
func Build(rs []temporal.Record, frequency int) *Index {
	if frequency <= 0 {
		frequency = defaultCheckpointFrequency
	}
	idx := &Index{
		events:    endpointindex.Build(rs),
		records:   make(map[temporal.Key]temporal.Record, len(rs)),
		frequency: frequency,
	}
	for _, r := range rs {
		idx.records[r.ID] = r
	}
	idx.buildCheckpoints()
	return idx
}

func (idx *Index) buildCheckpoints() {
	aliveIDs := make(map[temporal.Key]bool)
	for i, e := range idx.events {
		if e.IsStart {
			aliveIDs[e.ID] = true
		} else {
			delete(aliveIDs, e.ID)
		}
		if (i+1)%idx.frequency == 0 {
			snap := bitset.New(uint(len(idx.events)))
			for id := range aliveIDs {
				snap.Set(uint(id))
			}
			idx.checkpoints = append(idx.checkpoints, checkpoint{spot: i, alive: snap})
		}
	}
}

// nearestCheckpointBefore returns the last checkpoint whose spot is < at,
// or (-1, nil) if none precedes it.
func (idx *Index) nearestCheckpointBefore(at int) (int, *bitset.BitSet) {
	i := sort.Search(len(idx.checkpoints), func(i int) bool {
		return idx.checkpoints[i].spot >= at
	})
	if i == 0 {
		return -1, nil
	}
	cp := idx.checkpoints[i-1]
	return cp.spot, cp.alive.Clone()
}

// QueryRange returns every record id alive at any point during [lo, hi]:
// the record's [Start, End) interval intersects [lo, hi] (spec §4.2
// query_range_lifespan algorithm: seek the nearest checkpoint at or
// before lo, replay forward to lo to reconstruct the alive set, then scan
// forward, adding newly started ids, until passing hi).
func (idx *Index) QueryRange(lo, hi temporal.Timestamp) []temporal.Key {
	startPos := sort.Search(len(idx.events), func(i int) bool {
		return idx.events[i].Timestamp > lo
	})

	cpSpot, alive := idx.nearestCheckpointBefore(startPos)
	if alive == nil {
		alive = bitset.New(uint(len(idx.events)))
	}
	for i := cpSpot + 1; i < startPos; i++ {
		e := idx.events[i]
		if e.IsStart {
			alive.Set(uint(e.ID))
		} else {
			alive.Clear(uint(e.ID))
		}
	}

	seen := make(map[temporal.Key]bool)
	var out []temporal.Key
	for id, ok := alive.NextSet(0); ok; id, ok = alive.NextSet(id + 1) {
		k := temporal.Key(id)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}

	for i := startPos; i < len(idx.events) && idx.events[i].Timestamp <= hi; i++ {
		e := idx.events[i]
		if e.IsStart && !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e.ID)
		}
	}
	return out
}

// AliveAt returns every record id alive at instant t (a pure point-in-time
// query, the single-timestamp specialization of QueryRange).
func (idx *Index) AliveAt(t temporal.Timestamp) []temporal.Key {
	return idx.QueryRange(t, t)
}

// Len reports the number of endpoint events in the log (2x the number of
// records it was built from).
func (idx *Index) Len() int { return len(idx.events) }

// Record looks up a record by id, for callers resolving query results
// back into full records.
func (idx *Index) Record(id temporal.Key) (temporal.Record, bool) {
	r, ok := idx.records[id]
	return r, ok
}
