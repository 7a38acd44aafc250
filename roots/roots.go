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

// Package roots is the plain B+tree "root forest" spec §3/§4.1 describes:
// a persistent index of historical RootBoxes keyed by start_version, so a
// query at any past version can resolve the root that was alive then. It
// is generic over the root-pointer type so the mvbt package can plug in
// its own NodeID without an import cycle.
package roots

import (
	"github.com/google/btree"
	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

// degree is the google/btree fanout for the root forest. Root promotions
// are rare (one per overflowing insert at the tree's top level), so the
// forest stays small; a conservative degree keeps node count low without
// mattering for performance.
const degree = 16

// Box mirrors spec §3's RootBox: the lifespan and keyrange covered by
// Root, the MVBT root in effect over that lifespan.
type Box[T any] struct {
	Lifespan temporal.Lifespan
	KeyRange temporal.KeyRange
	Root     T
}

// Forest is the historical-roots B+tree: strictly increasing in
// start_version (spec invariant 7), with at most one open (alive) Box.
type Forest[T any] struct {
	tree *btree.BTreeG[Box[T]]
	live *Box[T]
}

// New returns an empty root forest.
func New[T any]() *Forest[T] {
	return &Forest[T]{
		tree: btree.NewG(degree, func(a, b Box[T]) bool {
			return a.Lifespan.StartVersion < b.Lifespan.StartVersion
		}),
	}
}

// SetLive installs box as the current, open RootBox. It must have an
// alive lifespan; the previous live box, if any, must already have been
// archived via Archive.
func (f *Forest[T]) SetLive(box Box[T]) {
	if !box.Lifespan.IsAlive() {
		panic("roots: SetLive requires an alive lifespan")
	}
	cp := box
	f.live = &cp
}

// Archive closes the current live box's lifespan at endVersion and stores
// it in the historical forest, keyed by its (unchanged) start_version.
// It panics if there is no live box, matching spec invariant 7 ("at most
// one root has open end_version" combined with the MVBT always having
// exactly one in practice once constructed).
func (f *Forest[T]) Archive(endVersion temporal.Version) {
	if f.live == nil {
		panic("roots: Archive called with no live RootBox")
	}
	f.live.Lifespan.End(endVersion)
	f.tree.ReplaceOrInsert(*f.live)
	f.live = nil
}

// Live returns the current open RootBox, if any.
func (f *Forest[T]) Live() (Box[T], bool) {
	if f.live == nil {
		var zero Box[T]
		return zero, false
	}
	return *f.live, true
}

// At resolves the RootBox in effect at version v: the live box if
// v >= its start_version, else the latest archived box whose
// start_version <= v (spec §4.1 "Historical root routing").
func (f *Forest[T]) At(v temporal.Version) (Box[T], bool) {
	if f.live != nil && v >= f.live.Lifespan.StartVersion {
		return *f.live, true
	}
	pivot := Box[T]{Lifespan: temporal.Lifespan{StartVersion: v}}
	var found Box[T]
	ok := false
	f.tree.DescendLessOrEqual(pivot, func(item Box[T]) bool {
		found = item
		ok = true
		return false // stop at the first (largest start_version <= v)
	})
	return found, ok
}

// Intersecting returns every RootBox (archived or live) whose lifespan
// intersects [lo, hi], in increasing start_version order. query_range_lifespan
// (spec §4.1) must union matches across every root that was ever live during
// the queried version range, not just the one at a single version.
func (f *Forest[T]) Intersecting(lo, hi temporal.Version) []Box[T] {
	var out []Box[T]
	f.tree.Ascend(func(item Box[T]) bool {
		if item.Lifespan.IntersectsVersionRange(lo, hi) {
			out = append(out, item)
		}
		return true
	})
	if f.live != nil && f.live.Lifespan.IntersectsVersionRange(lo, hi) {
		out = append(out, *f.live)
	}
	return out
}

// Len returns the number of archived (non-live) boxes.
func (f *Forest[T]) Len() int { return f.tree.Len() }
