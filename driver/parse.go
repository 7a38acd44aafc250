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
	"strconv"
	"strings"

	moduleerrors "github.com/sigmod24lit/Sigmod24lit/errors"
	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

type op int

const (
	opStart op = iota
	opEnd
	opQuery
)

// event is one parsed line of the spec §6 stream format: "op a b c d",
// with c and d optional.
type event struct {
	op         op
	a, b       int64
	c, d       float64
	hasC, hasD bool
}

// parseLine parses one stream line. A blank or whitespace-only line
// returns (nil, nil) and is skipped.
func parseLine(line string) (*event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) < 3 {
		return nil, moduleerrors.Usagef("malformed event line %q: want at least \"op a b\"", line)
	}

	var o op
	switch strings.ToUpper(fields[0]) {
	case "S":
		o = opStart
	case "E":
		o = opEnd
	case "Q":
		o = opQuery
	default:
		return nil, moduleerrors.Usagef("unknown event op %q", fields[0])
	}

	a, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, moduleerrors.Usagef("malformed event line %q: field a: %v", line, err)
	}
	b, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, moduleerrors.Usagef("malformed event line %q: field b: %v", line, err)
	}

	ev := &event{op: o, a: a, b: b}
	if len(fields) > 3 {
		c, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, moduleerrors.Usagef("malformed event line %q: field c: %v", line, err)
		}
		ev.c, ev.hasC = c, true
	}
	if len(fields) > 4 {
		d, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, moduleerrors.Usagef("malformed event line %q: field d: %v", line, err)
		}
		ev.d, ev.hasD = d, true
	}
	return ev, nil
}

func (e event) recordID() temporal.Key               { return temporal.Key(e.a) }
func (e event) timestamp() temporal.Timestamp        { return temporal.Timestamp(e.b) }
func (e event) secondary() temporal.Attr             { return temporal.Attr(e.c) }
func (e event) queryLo() temporal.Version            { return temporal.Version(e.a) }
func (e event) queryHi() temporal.Version            { return temporal.Version(e.b) }
func (e event) queryLoTimestamp() temporal.Timestamp { return temporal.Timestamp(e.a) }
func (e event) queryHiTimestamp() temporal.Timestamp { return temporal.Timestamp(e.b) }
