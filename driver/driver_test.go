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

package driver

import (
	"strings"
	"testing"

	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

// TestScenarioMVBTCapacityBound drives a short stream of starts, ends,
// and one range query against the MVBT backend with a capacity-bounded
// Live Index, and checks the update and query counts.
func TestScenarioMVBTCapacityBound(t *testing.T) {
	stream := strings.Join([]string{
		"S 1 10",
		"S 2 20",
		"E 1 30",
		"Q 0 100",
	}, "\n")

	rep, err := Run(strings.NewReader(stream), Config{
		Backend:          MVBT,
		LiveIndexBackend: Map,
		Capacity:         10,
		ReduceMode:       temporal.ReduceCount,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Updates != 3 {
		t.Errorf("Updates = %d, want 3", rep.Updates)
	}
	if rep.Queries != 1 {
		t.Errorf("Queries = %d, want 1", rep.Queries)
	}
}

// TestScenarioDurationBoundFlushesIntoMVBT exercises the duration-bound
// Live Index path, and confirms a record flushed into the MVBT is
// queryable afterward.
func TestScenarioDurationBoundFlushesIntoMVBT(t *testing.T) {
	stream := strings.Join([]string{
		"S 1 0",
		"S 2 5",
		"S 3 200", // ages id=1 and id=2 out of the duration window
		"Q 0 300",
	}, "\n")

	rep, err := Run(strings.NewReader(stream), Config{
		Backend:          MVBT,
		LiveIndexBackend: Vector,
		Duration:         50,
		ReduceMode:       temporal.ReduceCount,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Reduced == 0 {
		t.Errorf("Reduced = 0, want at least the flushed records to be counted")
	}
}

// TestScenarioRTree2D exercises the 2-D spatial collaborator backend.
func TestScenarioRTree2D(t *testing.T) {
	stream := strings.Join([]string{
		"S 1 0",
		"E 1 10",
		"S 2 100",
		"E 2 110",
		"Q 0 50",
	}, "\n")

	rep, err := Run(strings.NewReader(stream), Config{
		Backend:          RTree2D,
		LiveIndexBackend: EnhancedHashMap,
		Capacity:         4,
		ReduceMode:       temporal.ReduceXOR,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Queries != 1 {
		t.Errorf("Queries = %d, want 1", rep.Queries)
	}
}

// TestScenarioTimelineBatch exercises the Timeline backend's two-pass
// batch query semantics.
func TestScenarioTimelineBatch(t *testing.T) {
	stream := strings.Join([]string{
		"S 1 0",
		"E 1 10",
		"S 2 20",
		"E 2 30",
		"Q 5 25",
	}, "\n")

	rep, err := Run(strings.NewReader(stream), Config{
		Backend:    Timeline,
		Capacity:   4,
		ReduceMode: temporal.ReduceCount,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Reduced != 2 {
		t.Errorf("Reduced = %d, want 2 (both records overlap [5,25])", rep.Reduced)
	}
}

// TestLiteralScenario1SQueryCovering reproduces spec scenario 1: a record
// still open in the Live Index when the query runs must still be found,
// since its end is unknown and therefore presumed alive.
func TestLiteralScenario1SQueryCovering(t *testing.T) {
	stream := "S 7 100 0 0\nQ 50 150 0 0"
	rep, err := Run(strings.NewReader(stream), Config{
		Backend: MVBT, LiveIndexBackend: Map, Capacity: 10, ReduceMode: temporal.ReduceXOR,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Reduced != 7 {
		t.Errorf("Reduced = %d, want 7", rep.Reduced)
	}
}

// TestLiteralScenario2SEQueryCovering reproduces spec scenario 2: once
// closed, a record is flushed into the MVBT keyed by its own real
// [start,end) lifespan, so a query window that falls inside it still
// matches.
func TestLiteralScenario2SEQueryCovering(t *testing.T) {
	stream := "S 7 100 0 0\nE 7 200 0 0\nQ 150 250 0 0"
	rep, err := Run(strings.NewReader(stream), Config{
		Backend: MVBT, LiveIndexBackend: Map, Capacity: 10, ReduceMode: temporal.ReduceXOR,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Reduced != 7 {
		t.Errorf("Reduced = %d, want 7", rep.Reduced)
	}
}

// TestLiteralScenario3SEQueryDisjoint reproduces spec scenario 3: a query
// window disjoint from a closed record's real lifespan must not match it,
// the case that a naive processing-order version counter gets wrong.
func TestLiteralScenario3SEQueryDisjoint(t *testing.T) {
	stream := "S 7 100 0 0\nE 7 200 0 0\nQ 300 400 0 0"
	rep, err := Run(strings.NewReader(stream), Config{
		Backend: MVBT, LiveIndexBackend: Map, Capacity: 10, ReduceMode: temporal.ReduceXOR,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Reduced != 0 {
		t.Errorf("Reduced = %d, want 0", rep.Reduced)
	}
}

// TestLiteralScenario4TwoOverlappingIntervals reproduces spec scenario 4:
// two overlapping intervals (5 starts at 10, before 3 closes at 20, so its
// start version is clamped up to 20 on insert) must both still be found by
// a query covering both.
func TestLiteralScenario4TwoOverlappingIntervals(t *testing.T) {
	stream := "S 3 0\nS 5 10\nE 3 20\nE 5 30\nQ 5 25"
	rep, err := Run(strings.NewReader(stream), Config{
		Backend: MVBT, LiveIndexBackend: Map, Capacity: 10, ReduceMode: temporal.ReduceXOR,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Reduced != 6 {
		t.Errorf("Reduced = %d, want 6 (3 XOR 5)", rep.Reduced)
	}
}

// TestLiteralScenario5TimelineCheckpointBoundary reproduces spec scenario
// 5 against the Timeline backend.
func TestLiteralScenario5TimelineCheckpointBoundary(t *testing.T) {
	stream := "S 1 5\nE 1 15\nS 2 15\nQ 10 12"
	rep, err := Run(strings.NewReader(stream), Config{
		Backend: Timeline, ReduceMode: temporal.ReduceXOR,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Reduced != 1 {
		t.Errorf("Reduced = %d, want 1 (record 1 alive at [10,12], record 2 starts at 15)", rep.Reduced)
	}
}

func TestRunRejectsMalformedLine(t *testing.T) {
	_, err := Run(strings.NewReader("X 1 2"), Config{Backend: MVBT, Capacity: 4})
	if err == nil {
		t.Fatalf("Run() with unknown op = nil error, want usage error")
	}
}

func TestBoundRejectsBothCapacityAndDuration(t *testing.T) {
	_, err := bound(Config{Capacity: 5, Duration: 5})
	if err == nil {
		t.Fatalf("bound() with both set = nil error, want usage error")
	}
}

func TestBoundRejectsNeitherCapacityNorDuration(t *testing.T) {
	_, err := bound(Config{})
	if err == nil {
		t.Fatalf("bound() with neither set = nil error, want usage error")
	}
}

func TestParseLiveIndexBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    LiveIndexBackend
		wantErr bool
	}{
		{"MAP", Map, false},
		{"vector", Vector, false},
		{"ENHANCEDHASHMAP", EnhancedHashMap, false},
		{"bogus", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseLiveIndexBackend(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLiveIndexBackend(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("ParseLiveIndexBackend(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
