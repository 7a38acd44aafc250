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

// Package driver reads the whitespace-delimited S/E/Q event stream and
// drives it against the Live Index and a chosen persistent backend,
// producing the end-of-stream Report spec §6 describes.
package driver

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"k8s.io/klog/v2"

	moduleerrors "github.com/sigmod24lit/Sigmod24lit/errors"
	"github.com/sigmod24lit/Sigmod24lit/liveindex"
	"github.com/sigmod24lit/Sigmod24lit/monitoring"
	"github.com/sigmod24lit/Sigmod24lit/mvbt"
	"github.com/sigmod24lit/Sigmod24lit/spatialindex"
	"github.com/sigmod24lit/Sigmod24lit/temporal"
	"github.com/sigmod24lit/Sigmod24lit/timeline"
)

const backendLabel = "backend"

// driverMetrics holds the handful of counters/gauges/histograms the driver
// exposes through a monitoring.MetricFactory, following the teacher's
// createMetrics/observe pattern (see storage/mysql's log_storage.go).
type driverMetrics struct {
	updates      monitoring.Counter
	queries      monitoring.Counter
	bufferPeak   monitoring.Gauge
	queryLatency monitoring.Histogram
}

func createMetrics(mf monitoring.MetricFactory) driverMetrics {
	return driverMetrics{
		updates:      mf.NewCounter("updates_total", "Number of S/E events processed", backendLabel),
		queries:      mf.NewCounter("queries_total", "Number of Q events processed", backendLabel),
		bufferPeak:   mf.NewGauge("live_index_peak_population", "Largest Live Index population observed", backendLabel),
		queryLatency: mf.NewHistogram("query_latency_seconds", "Latency of a single Q event in seconds", backendLabel),
	}
}

// Backend selects the persistent index the Live Index flushes into.
// original_source ships three separate binaries (main_2drtree_LIT.cpp,
// main_3drtree_LIT.cpp, main_timelineindex.cpp), each wiring the Live
// Index to a different backend; Backend lets one driver reproduce all
// three plus the MVBT path.
type Backend int

const (
	MVBT Backend = iota
	Timeline
	RTree2D
	RTree3D
)

func (b Backend) String() string {
	switch b {
	case MVBT:
		return "MVBT"
	case Timeline:
		return "TIMELINE"
	case RTree2D:
		return "RTREE2D"
	case RTree3D:
		return "RTREE3D"
	}
	return "UNKNOWN"
}

// LiveIndexBackend selects the Live Index's in-memory Buffer
// implementation (spec §6 "-b").
type LiveIndexBackend int

const (
	Map LiveIndexBackend = iota
	Vector
	EnhancedHashMap
)

// ParseLiveIndexBackend parses the spec §6 "-b" flag values.
func ParseLiveIndexBackend(s string) (LiveIndexBackend, error) {
	switch strings.ToUpper(s) {
	case "MAP":
		return Map, nil
	case "VECTOR":
		return Vector, nil
	case "ENHANCEDHASHMAP":
		return EnhancedHashMap, nil
	}
	return 0, moduleerrors.Usagef("unknown live index backend %q", s)
}

func newBuffer(b LiveIndexBackend) liveindex.Buffer {
	switch b {
	case Vector:
		return liveindex.NewVector()
	case EnhancedHashMap:
		return liveindex.NewHashMap()
	default:
		return liveindex.NewOrderedMap()
	}
}

// Config parameterizes one driver run (spec §6 "Driver CLI").
type Config struct {
	Backend          Backend
	LiveIndexBackend LiveIndexBackend
	// Capacity bounds the Live Index by population; mutually exclusive
	// with Duration (setting both is a usage error).
	Capacity int
	Duration temporal.Timestamp
	// Repeats is the number of times each query is executed, for
	// benchmarking; the report's query count and reduced result use only
	// the final pass.
	Repeats int
	// ReduceMode selects [COUNT] or [XOR] result reduction.
	ReduceMode temporal.ReduceMode
	// MetricFactory builds the driver's metrics. A nil factory behaves
	// like monitoring.InertMetricFactory (spec ambient stack: metrics are
	// optional, never load-bearing for correctness).
	MetricFactory monitoring.MetricFactory
}

func (cfg Config) metricFactory() monitoring.MetricFactory {
	if cfg.MetricFactory == nil {
		return monitoring.InertMetricFactory{}
	}
	return cfg.MetricFactory
}

// Report is the end-of-stream summary spec §6 requires the driver to
// print.
type Report struct {
	Updates             int
	Queries             int
	MaxBufferPopulation int
	LiveIndexBackend    string
	Reduced             int64
	ReduceMode          temporal.ReduceMode
	IngestDuration      time.Duration
	QueryDuration       time.Duration
}

func (r Report) String() string {
	return fmt.Sprintf(
		"updates=%d queries=%d max_buffer=%d backend=%s ingest=%s query=%s result=%s%d",
		r.Updates, r.Queries, r.MaxBufferPopulation, r.LiveIndexBackend,
		r.IngestDuration, r.QueryDuration, r.ReduceMode, r.Reduced)
}

// sink adapts a persistent backend to liveindex.Sink.
type sink struct {
	insert func(v temporal.Version, r temporal.Record)
}

func (s sink) InsertRecord(v temporal.Version, r temporal.Record) { s.insert(v, r) }

func boxFromRecord(r temporal.Record, dim int) spatialindex.Box {
	b := spatialindex.Box{Dim: dim}
	b.Lo[0], b.Hi[0] = float64(r.Start), float64(r.Start)
	b.Lo[1], b.Hi[1] = float64(r.End), float64(r.End)
	if dim == 3 {
		b.Lo[2], b.Hi[2] = float64(r.Secondary), float64(r.Secondary)
	}
	return b
}

// Run parses the event stream from r and drives it against the Live
// Index and the configured persistent backend, returning the final
// Report.
func Run(r io.Reader, cfg Config) (Report, error) {
	switch cfg.Backend {
	case Timeline:
		return runTimeline(r, cfg)
	default:
		return runIncremental(r, cfg)
	}
}

// runIncremental drives MVBT/RTree backends, which accept inserts in
// stream order: S/E events flow through the Live Index; Q events are
// answered as the union of the Live Index's still-open records and
// whichever persistent backend the insert/erase path flushes into (spec
// §2 "Data flow").
func runIncremental(r io.Reader, cfg Config) (Report, error) {
	tree := mvbt.NewTree(mvbt.DefaultConstants())
	rtree := spatialindex.New(rtreeDim(cfg.Backend))
	metrics := createMetrics(cfg.metricFactory())
	backendLabelVal := cfg.Backend.String()

	version := temporal.Version(0)
	flushTo := sink{insert: func(_ temporal.Version, rec temporal.Record) {
		switch cfg.Backend {
		case RTree2D, RTree3D:
			rtree.Insert(version, rec.ID, boxFromRecord(rec, rtree.Dim()))
		default:
			insertClosedInterval(tree, rec)
		}
	}}

	bound, err := bound(cfg)
	if err != nil {
		return Report{}, err
	}
	mgr := liveindex.NewManager(newBuffer(cfg.LiveIndexBackend), bound, flushTo)

	rep := Report{LiveIndexBackend: backendName(cfg.LiveIndexBackend), ReduceMode: cfg.ReduceMode}
	var reduceIDs []temporal.Key

	ingestStart := time.Now()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		ev, err := parseLine(sc.Text())
		if err != nil {
			return rep, err
		}
		if ev == nil {
			continue
		}
		version++
		switch ev.op {
		case opStart:
			mgr.Insert(version, liveindex.Open{ID: ev.recordID(), Start: ev.timestamp(), Secondary: ev.secondary(), HasSec: ev.hasC})
			rep.Updates++
			metrics.updates.Inc(backendLabelVal)
		case opEnd:
			if !mgr.Close(version, ev.recordID(), ev.timestamp()) {
				klog.Warningf("driver: end event for unknown open record id=%d", ev.a)
			}
			rep.Updates++
			metrics.updates.Inc(backendLabelVal)
		case opQuery:
			queryStart := time.Now()
			rep.Queries++
			var matched []temporal.Key
			for i := 0; i < max(cfg.Repeats, 1); i++ {
				switch cfg.Backend {
				case RTree2D, RTree3D:
					lo, hi := boxBounds(ev, rtree.Dim())
					matched = rtree.Query(version, spatialindex.Box{Lo: lo, Hi: hi})
				default:
					matched = tree.QueryRangeLifespan(ev.queryLo(), ev.queryHi(), mvbt.KeyNegInfinity, mvbt.KeyInfinity)
				}
			}
			matched = append(matched, mgr.ExecuteRangeTimeTravel(temporal.RangeQuery{
				Lo: ev.queryLoTimestamp(), Hi: ev.queryHiTimestamp(),
				HasAttr: ev.hasC && ev.hasD, AttrLo: temporal.Attr(ev.c), AttrHi: temporal.Attr(ev.d),
			})...)
			reduceIDs = append(reduceIDs, matched...)
			metrics.queries.Inc(backendLabelVal)
			metrics.queryLatency.Observe(time.Since(queryStart).Seconds(), backendLabelVal)
			rep.QueryDuration += time.Since(queryStart)
		}
		if mgr.PeakSize() > rep.MaxBufferPopulation {
			rep.MaxBufferPopulation = mgr.PeakSize()
			metrics.bufferPeak.Set(float64(rep.MaxBufferPopulation), backendLabelVal)
		}
	}
	if err := sc.Err(); err != nil {
		return rep, moduleerrors.Wrap(moduleerrors.Usage, err, "reading event stream")
	}
	rep.IngestDuration = time.Since(ingestStart)
	rep.Reduced = temporal.Reduce(reduceIDs, cfg.ReduceMode)
	return rep, nil
}

// runTimeline drives the Timeline backend. Unlike MVBT/R-tree, a Timeline
// Index is built once over a complete relation (spec §4.2): it has no
// incremental insert. The driver therefore makes two passes: the first
// closes every S/E pair into a temporal.Record (a record never closed by
// the end of the stream is treated as alive through MaxTimestamp, the
// same "still open" convention the other backends use), the second
// answers every Q event, in stream order, against the resulting index.
func runTimeline(r io.Reader, cfg Config) (Report, error) {
	type openRec struct {
		start     temporal.Timestamp
		secondary temporal.Attr
		hasSec    bool
	}
	open := make(map[temporal.Key]openRec)
	var records []temporal.Record
	var queries []*event

	rep := Report{LiveIndexBackend: backendName(cfg.LiveIndexBackend), ReduceMode: cfg.ReduceMode}
	peak := 0
	metrics := createMetrics(cfg.metricFactory())
	backendLabelVal := cfg.Backend.String()

	ingestStart := time.Now()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		ev, err := parseLine(sc.Text())
		if err != nil {
			return rep, err
		}
		if ev == nil {
			continue
		}
		switch ev.op {
		case opStart:
			open[ev.recordID()] = openRec{start: ev.timestamp(), secondary: ev.secondary(), hasSec: ev.hasC}
			rep.Updates++
			metrics.updates.Inc(backendLabelVal)
		case opEnd:
			o, ok := open[ev.recordID()]
			if !ok {
				klog.Warningf("driver: end event for unknown open record id=%d", ev.a)
				continue
			}
			records = append(records, temporal.Record{
				ID: ev.recordID(), Start: o.start, End: ev.timestamp(),
				Secondary: o.secondary, HasSecondary: o.hasSec,
			})
			delete(open, ev.recordID())
			rep.Updates++
			metrics.updates.Inc(backendLabelVal)
		case opQuery:
			rep.Queries++
			queries = append(queries, ev)
			metrics.queries.Inc(backendLabelVal)
		}
		if len(open) > peak {
			peak = len(open)
			metrics.bufferPeak.Set(float64(peak), backendLabelVal)
		}
	}
	if err := sc.Err(); err != nil {
		return rep, moduleerrors.Wrap(moduleerrors.Usage, err, "reading event stream")
	}
	for id, o := range open {
		records = append(records, temporal.Record{
			ID: id, Start: o.start, End: temporal.MaxTimestamp,
			Secondary: o.secondary, HasSecondary: o.hasSec,
		})
	}
	rep.MaxBufferPopulation = peak
	rep.IngestDuration = time.Since(ingestStart)

	idx := timeline.Build(records, 0)

	queryStart := time.Now()
	var reduceIDs []temporal.Key
	for _, ev := range queries {
		oneStart := time.Now()
		var matched []temporal.Key
		for i := 0; i < max(cfg.Repeats, 1); i++ {
			matched = idx.QueryRange(ev.queryLoTimestamp(), ev.queryHiTimestamp())
		}
		reduceIDs = append(reduceIDs, matched...)
		metrics.queryLatency.Observe(time.Since(oneStart).Seconds(), backendLabelVal)
	}
	rep.QueryDuration = time.Since(queryStart)
	rep.Reduced = temporal.Reduce(reduceIDs, cfg.ReduceMode)
	return rep, nil
}

// boxBounds builds the geometric query region for a Q event against the
// spatial collaborator. A record's box is the degenerate point
// (start, end[, secondary]) (see boxFromRecord); its lifespan overlaps
// [q.lo, q.hi] iff start <= q.hi and end >= q.lo, the classic "interval
// as a point, query as a quadrant" construction (no upper bound on the
// start axis, no lower bound on the end axis). The secondary-attribute
// dimension, when present, is constrained to [attr_lo, attr_hi].
func boxBounds(ev *event, dim int) (lo, hi [3]float64) {
	lo = [3]float64{math.Inf(-1), float64(ev.queryLoTimestamp()), math.Inf(-1)}
	hi = [3]float64{float64(ev.queryHiTimestamp()), math.Inf(1), math.Inf(1)}
	if dim == 3 && ev.hasC && ev.hasD {
		lo[2], hi[2] = ev.c, ev.d
	}
	return lo, hi
}

// insertClosedInterval inserts rec into tree using its own real
// start/end timestamps as MVBT versions, so that QueryRangeLifespan's
// version-range argument corresponds directly to a query's real
// [lo, hi] window (spec §4.1's lifespan-intersection semantics applied
// to the record's own wall-clock lifetime, rather than to stream
// arrival order). The tree's version clock only moves forward, so both
// endpoints are clamped up to the tree's current version before use:
// records usually close in roughly the order they start, but a shorter
// interval that starts later and closes earlier than one still open
// would otherwise ask the tree to move backward in time, which
// violates the MVBT's monotonicity precondition (spec invariant 1).
func insertClosedInterval(tree *mvbt.Tree, rec temporal.Record) {
	startV := temporal.Version(rec.Start)
	if startV < tree.Version() {
		startV = tree.Version()
	}
	tree.Insert(startV, rec.ID, rec.ID)

	endV := temporal.Version(rec.End)
	if endV < tree.Version() {
		endV = tree.Version()
	}
	tree.EraseKey(endV, rec.ID)
}

func rtreeDim(b Backend) int {
	if b == RTree3D {
		return 3
	}
	return 2
}

func bound(cfg Config) (liveindex.Bound, error) {
	if cfg.Duration > 0 && cfg.Capacity > 0 {
		return nil, moduleerrors.Usagef("capacity and duration bounds are mutually exclusive")
	}
	if cfg.Duration > 0 {
		return liveindex.DurationBound{Window: cfg.Duration}, nil
	}
	if cfg.Capacity <= 0 {
		return nil, moduleerrors.Usagef("exactly one of capacity or duration bound must be set")
	}
	return liveindex.CapacityBound{Capacity: cfg.Capacity}, nil
}

func backendName(b LiveIndexBackend) string {
	switch b {
	case Vector:
		return "VECTOR"
	case EnhancedHashMap:
		return "ENHANCEDHASHMAP"
	default:
		return "MAP"
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
