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

import (
	"testing"

	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

type fakeSink struct {
	got []temporal.Record
}

func (s *fakeSink) InsertRecord(v temporal.Version, r temporal.Record) {
	s.got = append(s.got, r)
}

func newBackend(t *testing.T, name string) Buffer {
	t.Helper()
	switch name {
	case "ordered-map":
		return NewOrderedMap()
	case "vector":
		return NewVector()
	case "hashmap":
		return NewHashMap()
	}
	t.Fatalf("unknown backend %q", name)
	return nil
}

func TestBackendsInsertRemoveRange(t *testing.T) {
	for _, name := range []string{"ordered-map", "vector", "hashmap"} {
		t.Run(name, func(t *testing.T) {
			b := newBackend(t, name)
			b.Insert(Open{ID: 1, Start: 10})
			b.Insert(Open{ID: 5, Start: 20})
			b.Insert(Open{ID: 3, Start: 30})

			if got := b.Len(); got != 3 {
				t.Fatalf("Len() = %d, want 3", got)
			}
			got := b.Range(2, 5)
			if len(got) != 2 {
				t.Fatalf("Range(2,5) = %v, want 2 entries", got)
			}
			if o, ok := b.Remove(5); !ok || o.Start != 20 {
				t.Fatalf("Remove(5) = (%v,%v), want (Start=20,true)", o, ok)
			}
			if b.Len() != 2 {
				t.Fatalf("Len() after remove = %d, want 2", b.Len())
			}
			if _, ok := b.Remove(999); ok {
				t.Fatalf("Remove(999) found a non-existent id")
			}
		})
	}
}

func TestBackendsOldestTracksInsertionOrder(t *testing.T) {
	for _, name := range []string{"ordered-map", "vector", "hashmap"} {
		t.Run(name, func(t *testing.T) {
			b := newBackend(t, name)
			b.Insert(Open{ID: 9, Start: 1})
			b.Insert(Open{ID: 1, Start: 2})
			if o, ok := b.Oldest(); !ok || o.ID != 9 {
				t.Fatalf("Oldest() = (%v,%v), want (ID=9,true)", o, ok)
			}
			b.Remove(9)
			if o, ok := b.Oldest(); !ok || o.ID != 1 {
				t.Fatalf("Oldest() after removing the oldest = (%v,%v), want (ID=1,true)", o, ok)
			}
		})
	}
}

func TestCapacityBoundFlushesOldest(t *testing.T) {
	sink := &fakeSink{}
	m := NewManager(NewVector(), CapacityBound{Capacity: 2}, sink)
	m.Insert(1, Open{ID: 1, Start: 10})
	m.Insert(2, Open{ID: 2, Start: 20})
	m.Insert(3, Open{ID: 3, Start: 30})

	if m.Size() != 2 {
		t.Fatalf("Size() = %d, want 2 (capacity bound of 2)", m.Size())
	}
	if len(sink.got) != 1 || sink.got[0].ID != 1 {
		t.Fatalf("sink.got = %v, want one flushed record with ID=1", sink.got)
	}
	if m.PeakSize() < 2 {
		t.Fatalf("PeakSize() = %d, want >= 2", m.PeakSize())
	}
}

func TestDurationBoundFlushesAged(t *testing.T) {
	sink := &fakeSink{}
	m := NewManager(NewOrderedMap(), DurationBound{Window: 100}, sink)
	m.Insert(1, Open{ID: 1, Start: 0})
	m.Insert(2, Open{ID: 2, Start: 50})
	m.Insert(3, Open{ID: 3, Start: 150}) // age of id=1 (150-0=150) exceeds window

	if m.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", m.Size())
	}
	if len(sink.got) != 1 || sink.got[0].ID != 1 {
		t.Fatalf("sink.got = %v, want one flushed record with ID=1", sink.got)
	}
}

func TestCloseFlushesWithKnownEnd(t *testing.T) {
	sink := &fakeSink{}
	m := NewManager(NewHashMap(), CapacityBound{Capacity: 10}, sink)
	m.Insert(1, Open{ID: 7, Start: 5})
	if ok := m.Close(2, 7, 42); !ok {
		t.Fatalf("Close(2,7,42) = false, want true")
	}
	if m.Size() != 0 {
		t.Fatalf("Size() after Close = %d, want 0", m.Size())
	}
	if len(sink.got) != 1 || sink.got[0].End != 42 {
		t.Fatalf("sink.got = %v, want one record with End=42", sink.got)
	}
	if ok := m.Close(3, 999, 1); ok {
		t.Fatalf("Close on unknown id reported success")
	}
}

func TestBackendsAllReportsEveryOpenRecord(t *testing.T) {
	for _, name := range []string{"ordered-map", "vector", "hashmap"} {
		t.Run(name, func(t *testing.T) {
			b := newBackend(t, name)
			b.Insert(Open{ID: 1, Start: 10})
			b.Insert(Open{ID: 2, Start: 20})
			b.Remove(1)
			got := b.All()
			if len(got) != 1 || got[0].ID != 2 {
				t.Fatalf("All() = %v, want exactly the surviving id=2 record", got)
			}
		})
	}
}

// TestExecutePureTimeTravelFindsOpenRecord checks a still-open record
// (one with no matching Remove/Close) is reported alive at any instant at
// or after its start, regardless of its id.
func TestExecutePureTimeTravelFindsOpenRecord(t *testing.T) {
	m := NewManager(NewVector(), CapacityBound{Capacity: 10}, &fakeSink{})
	m.Insert(1, Open{ID: 42, Start: 100})

	if got := m.ExecutePureTimeTravel(50); len(got) != 0 {
		t.Errorf("ExecutePureTimeTravel(50) = %v, want empty (before the record started)", got)
	}
	got := m.ExecutePureTimeTravel(150)
	if len(got) != 1 || got[0] != 42 {
		t.Errorf("ExecutePureTimeTravel(150) = %v, want [42]", got)
	}
}

// TestExecuteRangeTimeTravelFiltersBySecondaryAttribute checks a query
// carrying a secondary-attribute window only matches open records whose
// attribute falls inside it.
func TestExecuteRangeTimeTravelFiltersBySecondaryAttribute(t *testing.T) {
	m := NewManager(NewOrderedMap(), CapacityBound{Capacity: 10}, &fakeSink{})
	m.Insert(1, Open{ID: 1, Start: 10, Secondary: 5, HasSec: true})
	m.Insert(2, Open{ID: 2, Start: 10, Secondary: 99, HasSec: true})

	got := m.ExecuteRangeTimeTravel(temporal.RangeQuery{
		Lo: 0, Hi: 1000, HasAttr: true, AttrLo: 0, AttrHi: 10,
	})
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("ExecuteRangeTimeTravel(attr in [0,10]) = %v, want [1]", got)
	}
}

// TestExecuteRangeTimeTravelExcludesLaterStarts checks an open record
// that starts after the query's hi bound is never reported.
func TestExecuteRangeTimeTravelExcludesLaterStarts(t *testing.T) {
	m := NewManager(NewHashMap(), CapacityBound{Capacity: 10}, &fakeSink{})
	m.Insert(1, Open{ID: 1, Start: 500})

	got := m.ExecuteRangeTimeTravel(temporal.RangeQuery{Lo: 0, Hi: 100})
	if len(got) != 0 {
		t.Errorf("ExecuteRangeTimeTravel(lo=0,hi=100) = %v, want empty (record starts at 500)", got)
	}
}

func TestGetNumBuffers(t *testing.T) {
	m := NewManager(NewVector(), CapacityBound{Capacity: 1}, &fakeSink{})
	if got := m.GetNumBuffers(); got != 1 {
		t.Errorf("GetNumBuffers() = %d, want 1", got)
	}
}
