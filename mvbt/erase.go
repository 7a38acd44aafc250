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

// EraseKey ends the lifespan of the alive leaf entry under key as of
// version v (spec operation erase). It reports whether a matching alive
// entry was found. Ending a lifespan never frees a physical slot, so in
// the common case this touches exactly one entry and propagates nothing
// upward; a resulting weak-underflow can trigger a merge with a living
// sibling, which does propagate (spec §4.1 deletion algorithm).
func (t *Tree) EraseKey(v temporal.Version, key temporal.Key) bool {
	return t.erase(v, key, func(e Entry) bool { return e.MinKey == key })
}

// EraseID is erase_id(v, key, id): like EraseKey, but disambiguates among
// multiple alive entries sharing key by also matching the record id,
// needed when the tree holds duplicate keys (spec §4.1 "erase(v, key) /
// erase_id(v, key, id)").
func (t *Tree) EraseID(v temporal.Version, key, id temporal.Key) bool {
	return t.erase(v, key, func(e Entry) bool { return e.MinKey == key && e.RecordID == id })
}

func (t *Tree) erase(v temporal.Version, key temporal.Key, match func(Entry) bool) bool {
	if v < t.version {
		panic("mvbt: version must be monotone non-decreasing")
	}
	t.version = v

	path := t.descend(key)
	leaf := t.node(path[len(path)-1].nodeID)
	found := -1
	for i, e := range leaf.Entries {
		if match(e) && e.isAliveNow() {
			found = i
			break
		}
	}
	if found == -1 {
		return false
	}
	leaf.Entries[found].Lifespan.End(v)
	leaf.Alive--

	t.resolveUnderflow(path, len(path)-1, v)
	return true
}

// findLivingSibling looks in parent, adjacent to childIdx, for another
// alive child-pointer entry to merge with.
func findLivingSibling(parent *Node, childIdx int) (int, bool) {
	for _, cand := range []int{childIdx - 1, childIdx + 1} {
		if cand < 0 || cand >= len(parent.Entries) {
			continue
		}
		if parent.Entries[cand].isAliveNow() {
			return cand, true
		}
	}
	return -1, false
}

// resolveUnderflow checks whether the node at path[level] has weak-
// underflowed (Alive below the D-derived floor) and, if so and a living
// sibling exists, merges the two into a fresh node, propagating the
// structural change upward exactly like an overflow-driven version split.
// The root (level 0) is exempt: spec's deletion algorithm never shrinks
// the tree's height, it only ever grows it via key split.
func (t *Tree) resolveUnderflow(path []pathEntry, level int, v temporal.Version) {
	if level == 0 {
		return // root has no parent to merge with
	}
	n := t.node(path[level].nodeID)
	if n.Alive >= t.c.minAlive() {
		return
	}
	parent := t.node(path[level-1].nodeID)
	childIdx := path[level-1].childIdx
	sibIdx, ok := findLivingSibling(parent, childIdx)
	if !ok {
		return // no sibling to merge with; tolerate the low occupancy
	}
	sibling := t.node(parent.Entries[sibIdx].Child)

	merged := t.mergeNodes(n, sibling, v)

	lo, hi := childIdx, sibIdx
	if lo > hi {
		lo, hi = hi, lo
	}
	parent.Entries[lo].Lifespan.End(v)
	parent.Alive--
	parent.Entries[hi].Lifespan.End(v)
	parent.Alive--

	var add []Entry
	if merged.Alive > t.c.strongMaxAlive() && merged.Alive > 1 {
		add = t.splitKeyRangeEntries(merged.Level, merged.Entries, v)
	} else {
		add = []Entry{{
			MinKey: merged.KeyRange.MinKey, MaxKey: merged.KeyRange.MaxKey,
			Child: merged.id, Type: Negative, Lifespan: temporal.NewLifespan(v),
		}}
	}
	for _, e := range add {
		parent.Entries = append(parent.Entries, e)
		parent.Alive++
	}

	if len(parent.Entries) <= t.c.MaxSlots {
		// Parent absorbed the merge without itself changing identity;
		// it may now have underflowed in turn.
		t.resolveUnderflow(path, level-1, v)
		return
	}
	prop := t.versionSplitOverflow(parent, v)
	newPath := path[:level]
	t.propagateUp(newPath, &prop, v)
}

// mergeNodes compacts the alive entries of a and b into one fresh node at
// their (shared) level, forwarding every surviving entry as a Negative
// copy at v (spec's merge-or-split-after-merge: a merge result above the
// strongMaxAlive threshold used on overflow is key-split at once by the
// caller).
func (t *Tree) mergeNodes(a, b *Node, v temporal.Version) *Node {
	m := t.allocNode(a.Level)
	lo := minKey(a.KeyRange.MinKey, b.KeyRange.MinKey)
	hi := maxKey(a.KeyRange.MaxKey, b.KeyRange.MaxKey)
	m.KeyRange = temporal.KeyRange{MinKey: lo, MaxKey: hi}
	m.Lifespan = temporal.NewLifespan(v)
	for _, src := range [2]*Node{a, b} {
		for _, e := range src.Entries {
			if !e.isAliveNow() {
				continue
			}
			fwd := e
			fwd.Type = Negative
			fwd.Lifespan = temporal.NewLifespan(v)
			m.Entries = append(m.Entries, fwd)
		}
	}
	m.Alive = len(m.Entries)
	a.Lifespan.End(v)
	b.Lifespan.End(v)
	return m
}
