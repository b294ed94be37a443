/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/zquans/equeue/internal/pkg/log"
)

const (
	namespace = "equeue"

	// Queue service.
	queueService                  = "queueservice"
	qsQueueCountMetric            = "queue_count"
	qsIndexCountMetric            = "index_count"
	qsUnconsumedCountMetric       = "unconsumed_count"
	qsMinMessageOffsetMetric      = "min_message_offset"
	qsReclaimedIndexCounterMetric = "reclaimed_index_total"
	qsEvictedIndexCounterMetric   = "evicted_index_total"
	qsReclaimTimeMetric           = "reclaim_seconds"
	qsEvictTimeMetric             = "evict_seconds"
)

var logger = log.New("metrics")

var (
	createOnce sync.Once //nolint:gochecknoglobals
	instance   *Metrics  //nolint:gochecknoglobals
)

// Metrics manages the queue service metrics.
type Metrics struct {
	qsQueueCount       prometheus.Gauge
	qsIndexCount       prometheus.Gauge
	qsUnconsumedCount  prometheus.Gauge
	qsMinMessageOffset prometheus.Gauge
	qsReclaimedIndexes prometheus.Counter
	qsEvictedIndexes   prometheus.Counter
	qsReclaimTime      prometheus.Histogram
	qsEvictTime        prometheus.Histogram
}

// Get returns the broker metrics provider.
func Get() *Metrics {
	createOnce.Do(func() {
		instance = newMetrics()
	})

	return instance
}

func newMetrics() *Metrics {
	m := &Metrics{
		qsQueueCount:       newQueueCount(),
		qsIndexCount:       newIndexCount(),
		qsUnconsumedCount:  newUnconsumedCount(),
		qsMinMessageOffset: newMinMessageOffset(),
		qsReclaimedIndexes: newReclaimedIndexCount(),
		qsEvictedIndexes:   newEvictedIndexCount(),
		qsReclaimTime:      newReclaimTime(),
		qsEvictTime:        newEvictTime(),
	}

	prometheus.MustRegister(
		m.qsQueueCount, m.qsIndexCount, m.qsUnconsumedCount, m.qsMinMessageOffset,
		m.qsReclaimedIndexes, m.qsEvictedIndexes, m.qsReclaimTime, m.qsEvictTime,
	)

	return m
}

// SetQueueCount sets the number of queues held in memory.
func (m *Metrics) SetQueueCount(value int) {
	m.qsQueueCount.Set(float64(value))
}

// SetQueueIndexCount sets the aggregate number of resident queue index entries.
func (m *Metrics) SetQueueIndexCount(value int64) {
	m.qsIndexCount.Set(float64(value))
}

// SetUnconsumedMessageCount sets the aggregate number of unconsumed messages.
func (m *Metrics) SetUnconsumedMessageCount(value int64) {
	m.qsUnconsumedCount.Set(float64(value))
}

// SetMinMessageOffset sets the minimum queue offset across all queues.
func (m *Metrics) SetMinMessageOffset(value int64) {
	m.qsMinMessageOffset.Set(float64(value))
}

// AddReclaimedIndexCount adds the number of consumed index entries reclaimed in
// a maintenance run.
func (m *Metrics) AddReclaimedIndexCount(value int64) {
	m.qsReclaimedIndexes.Add(float64(value))
}

// AddEvictedIndexCount adds the number of unconsumed index entries evicted in a
// maintenance run.
func (m *Metrics) AddEvictedIndexCount(value int64) {
	m.qsEvictedIndexes.Add(float64(value))
}

// ReclaimTime records the time taken by a consumed-index reclamation run.
func (m *Metrics) ReclaimTime(value time.Duration) {
	m.qsReclaimTime.Observe(value.Seconds())

	logger.Debug("Reclaim time", logfields.WithDuration(value))
}

// EvictTime records the time taken by an exceed-cache eviction run.
func (m *Metrics) EvictTime(value time.Duration) {
	m.qsEvictTime.Observe(value.Seconds())

	logger.Debug("Evict time", logfields.WithDuration(value))
}

func newCounter(subsystem, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func newGauge(subsystem, name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func newHistogram(subsystem, name, help string) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func newQueueCount() prometheus.Gauge {
	return newGauge(
		queueService, qsQueueCountMetric,
		"The number of queues held in memory.",
	)
}

func newIndexCount() prometheus.Gauge {
	return newGauge(
		queueService, qsIndexCountMetric,
		"The aggregate number of resident queue index entries.",
	)
}

func newUnconsumedCount() prometheus.Gauge {
	return newGauge(
		queueService, qsUnconsumedCountMetric,
		"The aggregate number of messages not yet consumed by every subscribed group.",
	)
}

func newMinMessageOffset() prometheus.Gauge {
	return newGauge(
		queueService, qsMinMessageOffsetMetric,
		"The minimum queue offset across all queues (-1 when no queues are held).",
	)
}

func newReclaimedIndexCount() prometheus.Counter {
	return newCounter(
		queueService, qsReclaimedIndexCounterMetric,
		"The total number of consumed queue index entries reclaimed by the maintenance task.",
	)
}

func newEvictedIndexCount() prometheus.Counter {
	return newCounter(
		queueService, qsEvictedIndexCounterMetric,
		"The total number of unconsumed queue index entries evicted under memory pressure.",
	)
}

func newReclaimTime() prometheus.Histogram {
	return newHistogram(
		queueService, qsReclaimTimeMetric,
		"The time (in seconds) that it takes to run a consumed-index reclamation pass.",
	)
}

func newEvictTime() prometheus.Histogram {
	return newHistogram(
		queueService, qsEvictTimeMetric,
		"The time (in seconds) that it takes to run an exceed-cache eviction pass.",
	)
}
