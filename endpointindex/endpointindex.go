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

// Package endpointindex builds the sorted endpoint-event view of a
// relation of records: for each record, a start event and an end event,
// ordered by timestamp with starts preceding ends at equal timestamps
// (spec §4.2/§4.4's strict-less comparator).
package endpointindex

import (
	"sort"

	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

// Endpoint is one (timestamp, isStart, rid) event derived from a record.
type Endpoint struct {
	Timestamp temporal.Timestamp
	IsStart   bool
	ID        temporal.Key
}

// Less implements the ordering spec §4.2 specifies: primary by timestamp
// ascending, secondary by isStart=true before isStart=false.
func Less(a, b Endpoint) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.IsStart && !b.IsStart
}

// Build emits the sorted endpoint-event list for every record in rs.
func Build(rs []temporal.Record) []Endpoint {
	return BuildStride(rs, 0, 1)
}

// BuildStride emits the sorted endpoint-event list for the subset of rs
// at indices from, from+by, from+2*by, ... allowing a caller to index
// disjoint subsets of one relation independently (spec §4.4).
func BuildStride(rs []temporal.Record, from, by int) []Endpoint {
	if by <= 0 {
		by = 1
	}
	out := make([]Endpoint, 0, 2*((len(rs)-from+by-1)/by))
	for i := from; i < len(rs); i += by {
		r := rs[i]
		out = append(out, Endpoint{Timestamp: r.Start, IsStart: true, ID: r.ID})
		out = append(out, Endpoint{Timestamp: r.End, IsStart: false, ID: r.ID})
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}
