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

package timeline

import (
	"sort"
	"testing"

	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

func keysEqual(t *testing.T, got []temporal.Key, want []temporal.Key) {
	t.Helper()
	gs := append([]temporal.Key(nil), got...)
	ws := append([]temporal.Key(nil), want...)
	sort.Slice(gs, func(i, j int) bool { return gs[i] < gs[j] })
	sort.Slice(ws, func(i, j int) bool { return ws[i] < ws[j] })
	if len(gs) != len(ws) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range gs {
		if gs[i] != ws[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestQueryRangeBasicOverlap(t *testing.T) {
	rs := []temporal.Record{
		{ID: 1, Start: 0, End: 10},
		{ID: 2, Start: 5, End: 15},
		{ID: 3, Start: 20, End: 30},
	}
	idx := Build(rs, 2)

	keysEqual(t, idx.QueryRange(4, 6), []temporal.Key{1, 2})
	keysEqual(t, idx.QueryRange(12, 18), []temporal.Key{2})
	keysEqual(t, idx.QueryRange(100, 200), nil)
}

func TestQueryRangeHalfOpenBoundary(t *testing.T) {
	rs := []temporal.Record{{ID: 1, Start: 0, End: 10}}
	idx := Build(rs, 1)

	keysEqual(t, idx.QueryRange(10, 10), nil) // End is exclusive: not alive at 10
	keysEqual(t, idx.QueryRange(9, 9), []temporal.Key{1})
	keysEqual(t, idx.QueryRange(0, 0), []temporal.Key{1}) // start is inclusive
}

func TestAliveAt(t *testing.T) {
	rs := []temporal.Record{
		{ID: 1, Start: 0, End: 10},
		{ID: 2, Start: 10, End: 20},
	}
	idx := Build(rs, 1)

	keysEqual(t, idx.AliveAt(5), []temporal.Key{1})
	keysEqual(t, idx.AliveAt(10), []temporal.Key{2})
}

func TestCheckpointsDoNotChangeResults(t *testing.T) {
	var rs []temporal.Record
	for i := 0; i < 500; i++ {
		rs = append(rs, temporal.Record{
			ID:    temporal.Key(i),
			Start: temporal.Timestamp(i),
			End:   temporal.Timestamp(i + 50),
		})
	}
	fine := Build(rs, 5)
	coarse := Build(rs, 1000)

	keysEqual(t, fine.QueryRange(100, 110), coarse.QueryRange(100, 110))
}

func TestRecordLookup(t *testing.T) {
	rs := []temporal.Record{{ID: 7, Start: 1, End: 2}}
	idx := Build(rs, 10)
	r, ok := idx.Record(7)
	if !ok || r.Start != 1 {
		t.Fatalf("Record(7) = (%v,%v), want found with Start=1", r, ok)
	}
	if _, ok := idx.Record(999); ok {
		t.Fatalf("Record(999) unexpectedly found")
	}
}
