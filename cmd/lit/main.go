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

// Binary lit drives the Live Index + persistent temporal index (MVBT,
// Timeline, or R-tree) over an event stream file (spec §6 CLI).
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/sigmod24lit/Sigmod24lit/driver"
	"github.com/sigmod24lit/Sigmod24lit/monitoring"
	"github.com/sigmod24lit/Sigmod24lit/temporal"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("lit", pflag.ContinueOnError)
	fs.SortFlags = false

	backendName := fs.StringP("persistent", "p", "MVBT", "persistent backend: MVBT|TIMELINE|RTREE2D|RTREE3D")
	liveBackendName := fs.StringP("live-index", "b", "MAP", "live index backend: MAP|VECTOR|ENHANCEDHASHMAP")
	capacity := fs.IntP("capacity", "c", 0, "Live Index capacity bound")
	duration := fs.Int64P("duration", "d", 0, "Live Index duration bound (mutually exclusive with -c)")
	repeats := fs.IntP("repeats", "r", 1, "number of times each query repeats, for benchmarking")
	count := fs.Bool("count", false, "reduce query results with [COUNT] instead of the default [XOR]")
	metricsAddr := fs.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :8081) while the stream runs")
	help := fs.BoolP("help", "h", false, "print usage")
	fs.BoolVarP(help, "usage", "?", false, "print usage")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *help {
		fmt.Fprintf(os.Stderr, "usage: lit [flags] <stream-file>\n\n%s", fs.FlagUsages())
		return 0
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lit [flags] <stream-file>")
		return 1
	}

	cfg, err := buildConfig(*backendName, *liveBackendName, *capacity, *duration, *repeats, *count)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *metricsAddr != "" {
		cfg.MetricFactory = monitoring.PrometheusMetricFactory{Namespace: "lit"}
		go serveMetrics(*metricsAddr)
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		klog.Errorf("lit: opening stream file: %v", err)
		return 1
	}
	defer f.Close()

	rep, err := driver.Run(f, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(rep.String())
	return 0
}

// serveMetrics runs a Prometheus scrape endpoint until the process exits.
// A failure here (e.g. the address is already in use) is logged, not
// fatal: metrics are an observability aid, never load-bearing for a run's
// correctness.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		klog.Errorf("lit: metrics server on %s: %v", addr, err)
	}
}

func buildConfig(backendName, liveBackendName string, capacity int, duration int64, repeats int, count bool) (driver.Config, error) {
	var backend driver.Backend
	switch backendName {
	case "MVBT", "mvbt":
		backend = driver.MVBT
	case "TIMELINE", "timeline":
		backend = driver.Timeline
	case "RTREE2D", "rtree2d":
		backend = driver.RTree2D
	case "RTREE3D", "rtree3d":
		backend = driver.RTree3D
	default:
		return driver.Config{}, fmt.Errorf("unknown persistent backend %q", backendName)
	}

	liveBackend, err := driver.ParseLiveIndexBackend(liveBackendName)
	if err != nil {
		return driver.Config{}, err
	}

	mode := temporal.ReduceXOR
	if count {
		mode = temporal.ReduceCount
	}

	return driver.Config{
		Backend:          backend,
		LiveIndexBackend: liveBackend,
		Capacity:         capacity,
		Duration:         temporal.Timestamp(duration),
		Repeats:          repeats,
		ReduceMode:       mode,
	}, nil
}
