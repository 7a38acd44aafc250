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

import (
	"math"

	"github.com/sigmod24lit/Sigmod24lit/roots"
	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

// Constants are the MVBT's tunable parameters (spec §4.1 "Overflow/underflow
// thresholds"). MaxSlots is the physical per-node entry capacity
// (MVB_MAX_SIZE in the original source, default 4096*2); D is the minimum
// fraction of alive entries a node must retain before it weak-underflows
// (minAlive = ⌊MaxSlots·D⌋); E shapes the strong thresholds applied to a
// split's successor: strongMaxAlive = ⌊MaxSlots·(1−D·E)⌋, above which it
// key-splits, and strongMinAlive = ⌈MaxSlots·D·(1+E)⌉. D=0, E=1 is the
// original's degenerate configuration: it
// disables the merge-on-underflow path entirely and only version-splits on
// physical overflow, i.e. a plain versioned B+-tree (spec §9, Open
// Question (b)).
type Constants struct {
	MaxSlots int
	D, E     float64
	// CopyEntryWithSegment mirrors the original's COPY_ENTRY_WITH_SEGMENT
	// flag (default true): when set, entries forwarded across a key split
	// keep their original MinKey/MaxKey "segment"; when unset, they are
	// narrowed to their half's side of the split key. A version split
	// never narrows entries either way.
	CopyEntryWithSegment bool
}

// DefaultConstants returns the original source's default parameterization:
// MVB_MAX_SIZE=4096*2, D=0, E=1, COPY_ENTRY_WITH_SEGMENT=true.
func DefaultConstants() Constants {
	return Constants{MaxSlots: 4096 * 2, D: 0, E: 1, CopyEntryWithSegment: true}
}

func (c Constants) minAlive() int {
	return int(math.Floor(c.D * float64(c.MaxSlots)))
}

func (c Constants) strongMinAlive() int {
	return int(math.Ceil(c.D * (1 + c.E) * float64(c.MaxSlots)))
}

func (c Constants) strongMaxAlive() int {
	v := int(math.Floor((1 - c.D*c.E) * float64(c.MaxSlots)))
	if v < 1 {
		v = 1
	}
	return v
}

// Tree is one Multiversion B+-tree: an arena of Nodes plus the root forest
// resolving which node was the root at any past version.
type Tree struct {
	c       Constants
	nodes   []*Node
	roots   *roots.Forest[NodeID]
	version temporal.Version
}

// NewTree returns an empty tree, alive as of version 0: a single empty leaf
// root covering the entire key space.
func NewTree(c Constants) *Tree {
	t := &Tree{c: c, roots: roots.New[NodeID]()}
	root := t.allocNode(0)
	root.KeyRange = temporal.KeyRange{MinKey: KeyNegInfinity, MaxKey: KeyInfinity}
	root.Lifespan = temporal.NewLifespan(0)
	t.roots.SetLive(roots.Box[NodeID]{
		Lifespan: temporal.NewLifespan(0),
		KeyRange: root.KeyRange,
		Root:     root.id,
	})
	return t
}

func (t *Tree) allocNode(level int) *Node {
	n := &Node{id: NodeID(len(t.nodes)), Level: level}
	t.nodes = append(t.nodes, n)
	return n
}

func (t *Tree) node(id NodeID) *Node { return t.nodes[id] }

// Version returns the most recent version passed to Insert or Erase.
func (t *Tree) Version() temporal.Version { return t.version }

// NodeCount returns the number of physical nodes ever allocated (alive and
// frozen/historical); exposed for tests asserting on tree growth.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// Close releases the tree's entire node arena and historical root forest
// in one bulk step, for a caller that is done with the tree and wants its
// retained history (every version-split leaves its old nodes reachable
// forever, spec §3 Lifecycles) reclaimed promptly rather than waiting on a
// process exit. The tree must not be used again afterward.
func (t *Tree) Close() {
	t.nodes = nil
	t.roots = nil
}

// pathEntry records, for one level of a root-to-leaf descent, the node at
// that level and (for every level but the last) the index within that
// node's Entries of the child entry leading to the next level down.
type pathEntry struct {
	nodeID   NodeID
	childIdx int // -1 at the leaf
}

// descend walks from the live root to the leaf whose keyrange covers key,
// following only alive child entries (spec §4.1 descent: "pick the alive
// entry whose [min_key,max_key) contains the search key").
func (t *Tree) descend(key temporal.Key) []pathEntry {
	box, ok := t.roots.Live()
	if !ok {
		panic("mvbt: tree has no live root")
	}
	path := []pathEntry{{nodeID: box.Root, childIdx: -1}}
	for {
		n := t.node(path[len(path)-1].nodeID)
		if n.IsLeaf() {
			return path
		}
		best := -1
		for i, e := range n.Entries {
			if !e.isAliveNow() {
				continue
			}
			if key >= e.MinKey && key < e.MaxKey {
				if best == -1 || e.MinKey > n.Entries[best].MinKey {
					best = i
				}
			}
		}
		if best == -1 {
			panic("mvbt: descent found no covering alive child entry")
		}
		path[len(path)-1].childIdx = best
		path = append(path, pathEntry{nodeID: n.Entries[best].Child, childIdx: -1})
	}
}

// propagated describes a structural change one level must reflect upward:
// the entry (or pair of entries, on a key split) that must replace the
// retiring child-pointer entry in the parent.
type propagated struct {
	entries []Entry // one entry: version split only; two: key split too
}

func (t *Tree) splitKeyRangeEntries(level int, alive []Entry, v temporal.Version) []Entry {
	// Partition alive (already-forwarded) entries by the median MinKey
	// into two halves, each housed in a fresh node, and return the two
	// parent-facing child entries describing them.
	sorted := append([]Entry(nil), alive...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].MinKey < sorted[j-1].MinKey; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	left := t.allocNode(level)
	right := t.allocNode(level)
	left.Lifespan = temporal.NewLifespan(v)
	right.Lifespan = temporal.NewLifespan(v)
	left.Entries = append(left.Entries, sorted[:mid]...)
	right.Entries = append(right.Entries, sorted[mid:]...)
	left.Alive = len(left.Entries)
	right.Alive = len(right.Entries)

	splitKey := sorted[mid].MinKey
	left.KeyRange = temporal.KeyRange{MinKey: KeyNegInfinity, MaxKey: splitKey}
	right.KeyRange = temporal.KeyRange{MinKey: splitKey, MaxKey: KeyInfinity}
	if !t.c.CopyEntryWithSegment {
		for i := range left.Entries {
			left.Entries[i].MaxKey = minKey(left.Entries[i].MaxKey, splitKey)
		}
		for i := range right.Entries {
			right.Entries[i].MinKey = maxKey(right.Entries[i].MinKey, splitKey)
		}
	}
	return []Entry{
		{MinKey: left.KeyRange.MinKey, MaxKey: left.KeyRange.MaxKey, Child: left.id, Type: Negative, Lifespan: temporal.NewLifespan(v)},
		{MinKey: right.KeyRange.MinKey, MaxKey: right.KeyRange.MaxKey, Child: right.id, Type: Negative, Lifespan: temporal.NewLifespan(v)},
	}
}

func minKey(a, b temporal.Key) temporal.Key {
	if a < b {
		return a
	}
	return b
}

func maxKey(a, b temporal.Key) temporal.Key {
	if a > b {
		return a
	}
	return b
}

// versionSplitOverflow compacts n's alive entries into a fresh node at the
// same level (forwarding each as a Negative copy at v), freezes n, and —
// if the fresh node's alive count still exceeds the strong-overflow
// threshold — key-splits it. It returns the entries the parent must adopt
// in n's place.
func (t *Tree) versionSplitOverflow(n *Node, v temporal.Version) propagated {
	n2 := t.allocNode(n.Level)
	n2.KeyRange = n.KeyRange
	n2.Lifespan = temporal.NewLifespan(v)
	for _, e := range n.Entries {
		if !e.isAliveNow() {
			continue
		}
		fwd := e
		fwd.Type = Negative
		fwd.Lifespan = temporal.NewLifespan(v)
		n2.Entries = append(n2.Entries, fwd)
	}
	n2.Alive = len(n2.Entries)
	n.Lifespan.End(v)

	if n2.Alive > t.c.strongMaxAlive() && n2.Alive > 1 {
		return propagated{entries: t.splitKeyRangeEntries(n.Level, n2.Entries, v)}
	}
	return propagated{entries: []Entry{
		{MinKey: n2.KeyRange.MinKey, MaxKey: n2.KeyRange.MaxKey, Child: n2.id, Type: Negative, Lifespan: temporal.NewLifespan(v)},
	}}
}

// applyUp reflects a child-level change into its parent: ends the parent's
// retiring child-pointer entry, appends the new ones, and — if that pushes
// the parent over physical capacity — version-splits (and possibly
// key-splits) the parent in turn. Returns the propagation the grandparent
// must apply, or nil if the parent absorbed the change without itself
// changing identity.
func (t *Tree) applyUp(parent *Node, retireIdx int, add []Entry, v temporal.Version) *propagated {
	parent.Entries[retireIdx].Lifespan.End(v)
	parent.Alive--
	for _, e := range add {
		parent.Entries = append(parent.Entries, e)
		parent.Alive++
	}
	if len(parent.Entries) <= t.c.MaxSlots {
		return nil
	}
	p := t.versionSplitOverflow(parent, v)
	return &p
}

// Insert adds record id under key, alive as of version v (spec operation
// insert). Versions must be monotone non-decreasing across all public
// operations on the tree.
func (t *Tree) Insert(v temporal.Version, key temporal.Key, id temporal.Key) {
	if v < t.version {
		panic("mvbt: version must be monotone non-decreasing")
	}
	t.version = v

	path := t.descend(key)
	leaf := t.node(path[len(path)-1].nodeID)
	leaf.Entries = append(leaf.Entries, Entry{
		MinKey:   key,
		RecordID: id,
		Type:     Positive,
		Lifespan: temporal.NewLifespan(v),
	})
	leaf.Alive++

	var prop *propagated
	if len(leaf.Entries) > t.c.MaxSlots {
		p := t.versionSplitOverflow(leaf, v)
		prop = &p
	}
	t.propagateUp(path, prop, v)
}

// propagateUp walks path from the leaf's parent up to the root applying
// prop at each level, growing the root if the change reaches the top.
func (t *Tree) propagateUp(path []pathEntry, prop *propagated, v temporal.Version) {
	for level := len(path) - 2; level >= 0 && prop != nil; level-- {
		parent := t.node(path[level].nodeID)
		prop = t.applyUp(parent, path[level].childIdx, prop.entries, v)
	}
	if prop != nil {
		t.growRoot(prop.entries, v)
	}
}

// growRoot installs the result of a root-level change as the tree's new
// live root. A single propagated entry is a pure version split: the tree's
// height is unchanged, and that entry's child becomes the new root
// directly. Two propagated entries are a key split: height grows by one,
// wrapping both halves under a freshly allocated top node (spec testable
// property: "root growth creates exactly one historical RootBox").
func (t *Tree) growRoot(entries []Entry, v temporal.Version) {
	t.roots.Archive(v)

	if len(entries) == 1 {
		newRoot := t.node(entries[0].Child)
		t.roots.SetLive(roots.Box[NodeID]{
			Lifespan: temporal.NewLifespan(v),
			KeyRange: newRoot.KeyRange,
			Root:     newRoot.id,
		})
		return
	}

	topNode := t.allocNode(t.node(entries[0].Child).Level + 1)
	topNode.KeyRange = temporal.KeyRange{MinKey: KeyNegInfinity, MaxKey: KeyInfinity}
	topNode.Lifespan = temporal.NewLifespan(v)
	for _, e := range entries {
		e.Type = Positive
		e.Lifespan = temporal.NewLifespan(v)
		topNode.Entries = append(topNode.Entries, e)
		topNode.Alive++
	}
	t.roots.SetLive(roots.Box[NodeID]{
		Lifespan: temporal.NewLifespan(v),
		KeyRange: topNode.KeyRange,
		Root:     topNode.id,
	})
}
