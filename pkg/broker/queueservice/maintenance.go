/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package queueservice

import (
	"sync/atomic"
	"time"

	"github.com/trustbloc/logutil-go/pkg/log"
	"go.uber.org/zap"

	logfields "github.com/zquans/equeue/internal/pkg/log"
	"github.com/zquans/equeue/pkg/broker/queue"
)

// Maintenance task IDs.
const (
	taskConsumedReclaim  = "consumed-queue-index-reclaim"
	taskExceedCacheEvict = "exceed-cache-queue-index-evict"
)

func (s *Service) registerMaintenanceTasks() {
	s.taskMgr.RegisterTask(taskConsumedReclaim,
		s.cfg.RemoveConsumedQueueIndexInterval, s.cfg.RemoveConsumedQueueIndexInterval,
		s.removeConsumedQueueIndexes)

	s.taskMgr.RegisterTask(taskExceedCacheEvict,
		s.cfg.RemoveExceedMaxCacheQueueIndexInterval, s.cfg.RemoveExceedMaxCacheQueueIndexInterval,
		s.removeExceedMaxCacheQueueIndexes)
}

func (s *Service) stopMaintenanceTasks() {
	s.taskMgr.StopTask(taskConsumedReclaim)
	s.taskMgr.StopTask(taskExceedCacheEvict)
}

// removeConsumedQueueIndexes discards, for every queue, the resident index
// entries that every subscribed consumer group has already processed, and
// informs the message log of the consumed offset so that it may compact. The
// operation is idempotent; a run that is aborted part way through is simply
// retried from scratch at the next tick. Overlapping runs are skipped.
func (s *Service) removeConsumedQueueIndexes() {
	if !atomic.CompareAndSwapUint32(&s.reclaimRunning, 0, 1) {
		logger.Debug("A previous consumed-index reclamation run is still in progress. Skipping this run.")

		return
	}

	defer atomic.StoreUint32(&s.reclaimRunning, 0)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic in consumed-index reclamation", zap.Any("panic", r))
		}
	}()

	start := time.Now()

	var removed int64

	for _, q := range s.registry.Values() {
		consumed := s.offsetManager.GetMinOffset(q.Topic(), q.QueueID())

		// Protect against an offset manager that reports offsets past what this
		// queue has written, e.g. stale metadata.
		if currentOffset := q.CurrentOffset(); consumed > currentOffset {
			consumed = currentOffset
		}

		before := q.MessageCount()

		q.RemoveAllPreviousQueueIndex(consumed)

		removed += before - q.MessageCount()

		if err := s.messageStore.UpdateConsumedQueueOffset(q.Topic(), q.QueueID(), consumed); err != nil {
			logger.Error("Error updating consumed queue offset. Aborting the current run.",
				logfields.WithQueueKey(q.Key().String()), logfields.WithConsumedOffset(consumed),
				log.WithError(err))

			return
		}
	}

	if removed > 0 {
		logger.Debug("Reclaimed consumed queue index entries", logfields.WithRemovedCount(removed))
	}

	s.metrics.AddReclaimedIndexCount(removed)
	s.metrics.ReclaimTime(time.Since(start))

	s.refreshMetrics()
}

// removeExceedMaxCacheQueueIndexes evicts resident index entries when the
// aggregate cache exceeds the configured ceiling. Consumed entries are
// reclaimed first; if that is not enough, unconsumed entries are evicted from
// the newest end of each queue, proportionally to the queue's resident count.
// Eviction is only performed when the message store can re-fault index entries
// in from the log. Overlapping runs are skipped.
func (s *Service) removeExceedMaxCacheQueueIndexes() {
	if !atomic.CompareAndSwapUint32(&s.evictRunning, 0, 1) {
		logger.Debug("A previous exceed-cache eviction run is still in progress. Skipping this run.")

		return
	}

	defer atomic.StoreUint32(&s.evictRunning, 0)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic in exceed-cache eviction", zap.Any("panic", r))
		}
	}()

	if !s.messageStore.SupportsBatchLoadQueueIndex() {
		return
	}

	start := time.Now()

	exceed := s.GetAllQueueIndexCount() - s.cfg.QueueIndexMaxCacheSize
	if exceed <= 0 {
		s.refreshMetrics()

		return
	}

	logger.Info("Queue index cache exceeds the configured ceiling",
		logfields.WithExceedCount(exceed), logfields.WithMaxCacheSize(s.cfg.QueueIndexMaxCacheSize))

	// Reclaim already-consumed entries first; they are the cheapest to drop.
	s.removeConsumedQueueIndexes()

	type queueCount struct {
		q     *queue.Queue
		count int64
	}

	var (
		snapshots       []queueCount
		totalUnconsumed int64
	)

	for _, q := range s.registry.Values() {
		count := q.MessageCount()

		snapshots = append(snapshots, queueCount{q: q, count: count})

		totalUnconsumed += count
	}

	unconsumedExceed := totalUnconsumed - s.cfg.QueueIndexMaxCacheSize
	if unconsumedExceed <= 0 {
		s.metrics.EvictTime(time.Since(start))
		s.refreshMetrics()

		return
	}

	var totalRemoved int64

	for _, snapshot := range snapshots {
		requireRemove := unconsumedExceed * snapshot.count / totalUnconsumed

		if requireRemove > 0 {
			totalRemoved += snapshot.q.RemoveRequiredQueueIndexFromLast(requireRemove)
		}
	}

	if totalRemoved > 0 {
		logger.Info("Evicted unconsumed queue index entries to relieve cache pressure",
			logfields.WithRemovedCount(totalRemoved), logfields.WithExceedCount(unconsumedExceed))
	}

	s.metrics.AddEvictedIndexCount(totalRemoved)
	s.metrics.EvictTime(time.Since(start))

	s.refreshMetrics()
}

func (s *Service) refreshMetrics() {
	s.metrics.SetQueueCount(s.GetAllQueueCount())
	s.metrics.SetQueueIndexCount(s.GetAllQueueIndexCount())
	s.metrics.SetUnconsumedMessageCount(s.GetAllQueueUnConsumedMessageCount())
	s.metrics.SetMinMessageOffset(s.GetQueueMinMessageOffset())
}
