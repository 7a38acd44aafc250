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

package mvbt

import "github.com/sigmod24lit/Sigmod24lit/temporal"

// QueryKeyAtVersion is the MVBT's query_key_timestamp: does key have an
// alive entry as of version v, and if so, what record id does it map to.
// (The query argument is a Version, the tree's own logical clock; the
// spec's "timestamp" naming refers to this argument, not to temporal.Timestamp
// which belongs to the Timeline Index's wall-clock domain.)
func (t *Tree) QueryKeyAtVersion(v temporal.Version, key temporal.Key) (temporal.Key, bool) {
	box, ok := t.roots.At(v)
	if !ok {
		return 0, false
	}
	cur := box.Root
	for {
		n := t.node(cur)
		if n.IsLeaf() {
			for _, e := range n.Entries {
				if e.MinKey == key && e.Lifespan.ContainsVersion(v) {
					return e.RecordID, true
				}
			}
			return 0, false
		}
		best := -1
		for i, e := range n.Entries {
			if !e.Lifespan.ContainsVersion(v) {
				continue
			}
			if key >= e.MinKey && key < e.MaxKey {
				if best == -1 || e.MinKey > n.Entries[best].MinKey {
					best = i
				}
			}
		}
		if best == -1 {
			return 0, false
		}
		cur = n.Entries[best].Child
	}
}

// QueryRangeAtVersion is query_range_timestamp: every record id alive at
// version v whose key falls in [lo, hi].
func (t *Tree) QueryRangeAtVersion(v temporal.Version, lo, hi temporal.Key) []temporal.Key {
	box, ok := t.roots.At(v)
	if !ok {
		return nil
	}
	var out []temporal.Key
	t.collectRange(box.Root, v, lo, hi, &out)
	return out
}

func (t *Tree) collectRange(id NodeID, v temporal.Version, lo, hi temporal.Key, out *[]temporal.Key) {
	n := t.node(id)
	if n.IsLeaf() {
		for _, e := range n.Entries {
			if e.Lifespan.ContainsVersion(v) && e.MinKey >= lo && e.MinKey <= hi {
				*out = append(*out, e.RecordID)
			}
		}
		return
	}
	for _, e := range n.Entries {
		if !e.Lifespan.ContainsVersion(v) {
			continue
		}
		if e.MaxKey <= lo || e.MinKey > hi {
			continue
		}
		t.collectRange(e.Child, v, lo, hi, out)
	}
}

// QueryRangeLifespan is query_range_lifespan / execute_rangeTimeTravel: every
// record id whose key falls in [lo, hi] and whose entry lifespan
// intersects the queried version range [vlo, vhi]. Because an entry can be
// reachable through more than one historical RootBox, results are
// deduplicated by the entry's owning node and position before being
// returned; and because a split forwards alive entries as Negative copies,
// a copy is reported only when its node already held it at vlo, so each
// logical entry is reported once (spec invariant: a time-travel range
// query never double-counts a single entry).
func (t *Tree) QueryRangeLifespan(vlo, vhi temporal.Version, lo, hi temporal.Key) []temporal.Key {
	boxes := t.roots.Intersecting(vlo, vhi)
	seen := make(map[entryKey]bool)
	var out []temporal.Key
	for _, box := range boxes {
		t.collectRangeLifespan(box.Root, vlo, vhi, lo, hi, seen, &out)
	}
	return out
}

// entryKey identifies one physical entry slot, used to dedup matches
// reachable via multiple historical roots.
type entryKey struct {
	node NodeID
	idx  int
}

func (t *Tree) collectRangeLifespan(id NodeID, vlo, vhi temporal.Version, lo, hi temporal.Key, seen map[entryKey]bool, out *[]temporal.Key) {
	n := t.node(id)
	if n.IsLeaf() {
		for i, e := range n.Entries {
			// An entry is only live in this node while the node itself is:
			// clip its lifespan to the node's before testing it.
			eff := e.Lifespan
			if n.Lifespan.StartVersion > eff.StartVersion {
				eff.StartVersion = n.Lifespan.StartVersion
			}
			if n.Lifespan.EndVersion < eff.EndVersion {
				eff.EndVersion = n.Lifespan.EndVersion
			}
			if !eff.IntersectsVersionRange(vlo, vhi) {
				continue
			}
			if e.Type == Negative && eff.StartVersion > vlo {
				continue // continuation of an entry already reported from a predecessor node
			}
			if e.MinKey < lo || e.MinKey > hi {
				continue
			}
			k := entryKey{node: id, idx: i}
			if seen[k] {
				continue
			}
			seen[k] = true
			*out = append(*out, e.RecordID)
		}
		return
	}
	for _, e := range n.Entries {
		if !e.Lifespan.IntersectsVersionRange(vlo, vhi) {
			continue
		}
		if e.MaxKey <= lo || e.MinKey > hi {
			continue
		}
		t.collectRangeLifespan(e.Child, vlo, vhi, lo, hi, seen, out)
	}
}
