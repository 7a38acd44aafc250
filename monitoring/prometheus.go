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

package monitoring

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricFactory builds metrics registered against a single
// prometheus.Registerer, prefixing every metric name with Namespace (e.g.
// "lit") so driver and library metrics don't collide with a host
// process's own registry.
type PrometheusMetricFactory struct {
	Namespace  string
	Registerer prometheus.Registerer
}

func (f PrometheusMetricFactory) fqName(name string) string {
	if f.Namespace == "" {
		return name
	}
	return f.Namespace + "_" + name
}

// NewCounter implements MetricFactory.
func (f PrometheusMetricFactory) NewCounter(name, help string, labelNames ...string) Counter {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: f.fqName(name),
		Help: help,
	}, labelNames)
	f.reg().MustRegister(c)
	return prometheusCounter{c}
}

// NewHistogram implements MetricFactory.
func (f PrometheusMetricFactory) NewHistogram(name, help string, labelNames ...string) Histogram {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: f.fqName(name),
		Help: help,
	}, labelNames)
	f.reg().MustRegister(h)
	return prometheusHistogram{h}
}

// NewGauge implements MetricFactory.
func (f PrometheusMetricFactory) NewGauge(name, help string, labelNames ...string) Gauge {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: f.fqName(name),
		Help: help,
	}, labelNames)
	f.reg().MustRegister(g)
	return prometheusGauge{g}
}

func (f PrometheusMetricFactory) reg() prometheus.Registerer {
	if f.Registerer != nil {
		return f.Registerer
	}
	return prometheus.DefaultRegisterer
}

type prometheusCounter struct{ v *prometheus.CounterVec }

func (c prometheusCounter) Inc(labelvals ...string) { c.v.WithLabelValues(labelvals...).Inc() }
func (c prometheusCounter) Add(delta float64, labelvals ...string) {
	c.v.WithLabelValues(labelvals...).Add(delta)
}

type prometheusHistogram struct{ v *prometheus.HistogramVec }

func (h prometheusHistogram) Observe(value float64, labelvals ...string) {
	h.v.WithLabelValues(labelvals...).Observe(value)
}

type prometheusGauge struct{ v *prometheus.GaugeVec }

func (g prometheusGauge) Set(value float64, labelvals ...string) {
	g.v.WithLabelValues(labelvals...).Set(value)
}

// sanitize lower-cases name and replaces '-' with '_', making a dynamic
// string (e.g. a Live Index backend name) prometheus-safe. Nothing in this
// module calls it.
func sanitize(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}
