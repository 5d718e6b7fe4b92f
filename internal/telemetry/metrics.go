// Copyright 2025 Google LLC
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

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricHandle is the facade every component records through. It has two
// implementations: a Prometheus-backed one for production and a no-op one
// for tests and callers that never configured a registry, mirroring
// common/oc_metrics.go's and common/noop_metrics.go's split (with
// go.opencensus.io swapped for github.com/prometheus/client_golang).
type MetricHandle interface {
	BlocksAllocated(count int64)
	BlocksFreed(count int64)
	BytesWritten(count int64)
	BytesRead(count int64)
	WatchEventPosted()
	WatchEventOverflowed()
	OpenChannelsChanged(delta int64)
}

// NewNoopMetrics returns a MetricHandle every method of which is a no-op.
func NewNoopMetrics() MetricHandle { return noopMetrics{} }

type noopMetrics struct{}

func (noopMetrics) BlocksAllocated(int64)     {}
func (noopMetrics) BlocksFreed(int64)         {}
func (noopMetrics) BytesWritten(int64)        {}
func (noopMetrics) BytesRead(int64)           {}
func (noopMetrics) WatchEventPosted()         {}
func (noopMetrics) WatchEventOverflowed()     {}
func (noopMetrics) OpenChannelsChanged(int64) {}

// promMetrics is the Prometheus-backed MetricHandle implementation.
type promMetrics struct {
	blocksAllocated     prometheus.Counter
	blocksFreed         prometheus.Counter
	bytesWritten        prometheus.Counter
	bytesRead           prometheus.Counter
	watchEventsPosted   prometheus.Counter
	watchEventsOverflow prometheus.Counter
	openChannels        prometheus.Gauge
}

// NewPrometheusMetrics registers this module's counters and gauges on reg
// and returns a MetricHandle backed by them. Passing a fresh
// prometheus.NewRegistry() is recommended in tests that call this more
// than once, since the default registry panics on duplicate registration.
func NewPrometheusMetrics(reg prometheus.Registerer) (MetricHandle, error) {
	m := &promMetrics{
		blocksAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "memfs",
			Subsystem: "disk",
			Name:      "blocks_allocated_total",
			Help:      "Blocks allocated from the heap-backed content store.",
		}),
		blocksFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "memfs",
			Subsystem: "disk",
			Name:      "blocks_freed_total",
			Help:      "Blocks returned to the heap-backed content store's cache or released.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "memfs",
			Subsystem: "channel",
			Name:      "bytes_written_total",
			Help:      "Bytes written through file channels.",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "memfs",
			Subsystem: "channel",
			Name:      "bytes_read_total",
			Help:      "Bytes read through file channels.",
		}),
		watchEventsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "memfs",
			Subsystem: "watch",
			Name:      "events_posted_total",
			Help:      "Filesystem change events posted to watch keys.",
		}),
		watchEventsOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "memfs",
			Subsystem: "watch",
			Name:      "events_overflowed_total",
			Help:      "Watch key queues that overflowed and coalesced into an OVERFLOW event.",
		}),
		openChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "memfs",
			Subsystem: "channel",
			Name:      "open_count",
			Help:      "Currently open file channels.",
		}),
	}

	collectors := []prometheus.Collector{
		m.blocksAllocated,
		m.blocksFreed,
		m.bytesWritten,
		m.bytesRead,
		m.watchEventsPosted,
		m.watchEventsOverflow,
		m.openChannels,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *promMetrics) BlocksAllocated(count int64) { m.blocksAllocated.Add(float64(count)) }
func (m *promMetrics) BlocksFreed(count int64)     { m.blocksFreed.Add(float64(count)) }
func (m *promMetrics) BytesWritten(count int64)    { m.bytesWritten.Add(float64(count)) }
func (m *promMetrics) BytesRead(count int64)       { m.bytesRead.Add(float64(count)) }
func (m *promMetrics) WatchEventPosted()           { m.watchEventsPosted.Inc() }
func (m *promMetrics) WatchEventOverflowed()       { m.watchEventsOverflow.Inc() }
func (m *promMetrics) OpenChannelsChanged(delta int64) {
	m.openChannels.Add(float64(delta))
}
