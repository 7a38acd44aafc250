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

package spatialindex

import "testing"

func TestQueryFindsIntersecting(t *testing.T) {
	idx := New(2)
	idx.Insert(1, 10, Box{Lo: [3]float64{0, 0}, Hi: [3]float64{5, 5}})
	idx.Insert(1, 20, Box{Lo: [3]float64{10, 10}, Hi: [3]float64{15, 15}})

	got := idx.Query(1, Box{Lo: [3]float64{1, 1}, Hi: [3]float64{2, 2}})
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("Query = %v, want [10]", got)
	}
}

func TestEraseRemovesFromFutureQueries(t *testing.T) {
	idx := New(3)
	idx.Insert(1, 1, Box{Lo: [3]float64{0, 0, 0}, Hi: [3]float64{1, 1, 1}})
	if !idx.Erase(2, 1) {
		t.Fatalf("Erase(2,1) = false, want true")
	}
	if got := idx.Query(2, Box{Lo: [3]float64{0, 0, 0}, Hi: [3]float64{1, 1, 1}}); len(got) != 0 {
		t.Fatalf("Query after erase = %v, want empty", got)
	}
	if got := idx.Query(1, Box{Lo: [3]float64{0, 0, 0}, Hi: [3]float64{1, 1, 1}}); len(got) != 1 {
		t.Fatalf("Query before erase = %v, want 1 match", got)
	}
}

func TestQueryLifespanSeesHistoricalBoxes(t *testing.T) {
	idx := New(2)
	idx.Insert(1, 1, Box{Lo: [3]float64{0, 0}, Hi: [3]float64{1, 1}})
	idx.Erase(5, 1)

	got := idx.QueryLifespan(0, 10, Box{Lo: [3]float64{0, 0}, Hi: [3]float64{1, 1}})
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("QueryLifespan = %v, want [1]", got)
	}
	got2 := idx.QueryLifespan(6, 10, Box{Lo: [3]float64{0, 0}, Hi: [3]float64{1, 1}})
	if len(got2) != 0 {
		t.Fatalf("QueryLifespan(6,10) = %v, want empty (erased at v5)", got2)
	}
}

func TestBoxIntersectsRespectsDim(t *testing.T) {
	a := Box{Lo: [3]float64{0, 0, 100}, Hi: [3]float64{1, 1, 100}, Dim: 2}
	b := Box{Lo: [3]float64{0.5, 0.5, -999}, Hi: [3]float64{2, 2, -999}, Dim: 2}
	if !a.Intersects(b) {
		t.Fatalf("Intersects = false, want true (3rd dim should be ignored for Dim=2)")
	}
}
