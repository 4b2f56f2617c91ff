// Copyright 2025 Ehab Terra
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


// Package metrics keeps in-process counters and timings for the
// annotation operations. Nothing runs in the background: system gauges are
// sampled when a snapshot is taken.
package metrics

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// MetricType represents the type of metric
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeTimer   MetricType = "timer"
)

// Metric is the aggregate for one name.
type Metric struct {
	Name  string        `json:"name"`
	Type  MetricType    `json:"type"`
	Count int64         `json:"count"`
	Total time.Duration `json:"total_ns,omitempty"`
	Max   time.Duration `json:"max_ns,omitempty"`
}

// Snapshot is a point-in-time copy of the collector.
type Snapshot struct {
	Started    time.Time         `json:"started"`
	Taken      time.Time         `json:"taken"`
	Metrics    []Metric          `json:"metrics"`
	Goroutines int               `json:"goroutines"`
	Memory     map[string]uint64 `json:"memory"`
}

// Timer measures one operation.
type Timer struct {
	c         *Collector
	name      string
	startTime time.Time
}

// Collector aggregates metrics by name. Safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	started time.Time
	metrics map[string]*Metric
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		started: time.Now(),
		metrics: make(map[string]*Metric),
	}
}

// Inc increments a counter.
func (c *Collector) Inc(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.get(name, MetricTypeCounter).Count++
}

// StartTimer starts timing name. Call Stop on the result.
func (c *Collector) StartTimer(name string) *Timer {
	return &Timer{c: c, name: name, startTime: time.Now()}
}

// Stop records the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.startTime)
	t.c.Record(t.name, d)
	return d
}

// Record adds one timing sample.
func (c *Collector) Record(name string, d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.get(name, MetricTypeTimer)
	m.Count++
	m.Total += d
	if d > m.Max {
		m.Max = d
	}
}

// get must be called with mu held.
func (c *Collector) get(name string, typ MetricType) *Metric {
	m, ok := c.metrics[name]
	if !ok {
		m = &Metric{Name: name, Type: typ}
		c.metrics[name] = m
	}
	return m
}

// Snapshot copies the current metrics sorted by name.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	metrics := make([]Metric, 0, len(c.metrics))
	for _, m := range c.metrics {
		metrics = append(metrics, *m)
	}
	started := c.started
	c.mu.Unlock()

	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Name < metrics[j].Name })

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Snapshot{
		Started:    started,
		Taken:      time.Now(),
		Metrics:    metrics,
		Goroutines: runtime.NumGoroutine(),
		Memory: map[string]uint64{
			"alloc":       mem.Alloc,
			"total_alloc": mem.TotalAlloc,
			"sys":         mem.Sys,
			"num_gc":      uint64(mem.NumGC),
		},
	}
}

// Uptime returns how long the collector has existed.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.started)
}
