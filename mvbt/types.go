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

// Package mvbt implements the Multiversion B+-tree: a versioned B+-tree
// variant in which every entry carries a lifespan [start_version,
// end_version) and every node split/merge produces a version split, a key
// split, or both.
package mvbt

import "github.com/sigmod24lit/Sigmod24lit/temporal"

// KeyInfinity and KeyNegInfinity are the sentinel bounds the original
// source stores as a KeyRange's default max_key
// (std::numeric_limits<key_type>::max()); entries/nodes that cover "the
// rest of the key space" in one direction use these rather than needing
// cascading keyrange-extension updates on every insert of a new extreme
// key.
const (
	KeyInfinity    temporal.Key = 1<<63 - 1
	KeyNegInfinity temporal.Key = -(1<<63 - 1)
)

// NodeID is an arena index: the Go analogue of the original's raw
// child_pointer/parent-less-descent design (spec §9 "Cyclic / back
// pointers"). Nodes are never physically freed while the tree is in use,
// so a NodeID remains valid once allocated until Tree.Close releases the
// arena.
type NodeID int

// EntryType distinguishes entries created fresh at their start_version
// (Positive) from copies forwarded across a version or key split to
// preserve visibility for earlier versions (Negative).
type EntryType int

const (
	// Positive entries are newly inserted at their start_version.
	Positive EntryType = iota
	// Negative entries are copies produced by a version or key split.
	Negative
)

func (t EntryType) String() string {
	if t == Negative {
		return "negative"
	}
	return "positive"
}

// Entry is the MVBT's single entry representation, serving both leaf
// entries (spec §3 "Entry (leaf)": key, lifespan, id) and inner entries
// (spec §3 "Entry (inner)": min_key, max_key, lifespan, child_pointer,
// entry_type) — the original keeps these as two C++ templates, but since a
// Node here only ever holds entries of one kind (determined by its Level),
// one struct with the union of fields keeps split/merge/threshold code
// shared between leaf and inner levels instead of duplicated.
type Entry struct {
	// MinKey is the leaf entry's key, or an inner entry's minimum key.
	MinKey temporal.Key
	// MaxKey is the inner entry's exclusive maximum key. Unused at leaf
	// level (a leaf entry matches by MinKey equality only).
	MaxKey temporal.Key
	// Lifespan is this entry's version interval.
	Lifespan temporal.Lifespan
	// Type is Positive or Negative (spec Entry Type, glossary).
	Type EntryType
	// Child is the pointed-to node, valid only when the owning node's
	// Level > 0.
	Child NodeID
	// RecordID is the leaf payload (the record id), valid only when the
	// owning node's Level == 0.
	RecordID temporal.Key
}

func (e Entry) isAliveNow() bool { return e.Lifespan.IsAlive() }

// Node is the MVBT's node: spec §3 "{id, level, used_slots, alive_slots,
// keyrange, lifespan, entries[]}". used_slots is len(Entries); Alive is
// tracked incrementally rather than recomputed on every read, matching
// spec invariant 3's "at all times" accounting requirement without an
// O(n) rescan per operation (Recount recomputes it for comparison).
type Node struct {
	id       NodeID
	Level    int
	Lifespan temporal.Lifespan
	KeyRange temporal.KeyRange
	Entries  []Entry
	Alive    int
}

// ID returns the node's arena identity.
func (n *Node) ID() NodeID { return n.id }

// UsedSlots is the node's used_slots: the number of entry slots occupied,
// alive or dead.
func (n *Node) UsedSlots() int { return len(n.Entries) }

// Recount recomputes Alive from scratch by scanning Entries, so invariant
// 3 can be checked independently of incremental bookkeeping. No test in
// this module calls it.
func (n *Node) Recount() int {
	c := 0
	for _, e := range n.Entries {
		if e.isAliveNow() {
			c++
		}
	}
	return c
}

// IsLeaf reports whether this is a leaf node (Level == 0).
func (n *Node) IsLeaf() bool { return n.Level == 0 }
