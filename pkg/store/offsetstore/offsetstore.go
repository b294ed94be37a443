/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package offsetstore

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/zquans/equeue/internal/pkg/log"
	"github.com/zquans/equeue/pkg/broker/queue"
	orberrors "github.com/zquans/equeue/pkg/errors"
	"github.com/zquans/equeue/pkg/store"
)

var logger = log.New("offset-store")

const (
	storeName = "consume-offset"
	queueTag  = "queueKey"
)

type offsetRecord struct {
	Group   string `json:"group"`
	Topic   string `json:"topic"`
	QueueID int    `json:"queueId"`
	Offset  int64  `json:"offset"`
}

// Store tracks the consumption progress of every consumer group, per queue. It
// holds the offsets in memory, writing each update through to the underlying
// store, and restores them from the store at construction.
type Store struct {
	store storage.Store

	mutex   sync.RWMutex
	offsets map[queue.Key]map[string]int64
}

// New returns a new consumer-group offset store, restored from the given provider.
func New(provider storage.Provider) (*Store, error) {
	s, err := store.Open(provider, storeName, store.NewTagGroup(queueTag))
	if err != nil {
		return nil, fmt.Errorf("open offset store: %w", err)
	}

	os := &Store{
		store:   s,
		offsets: make(map[queue.Key]map[string]int64),
	}

	if err := os.load(); err != nil {
		return nil, err
	}

	return os, nil
}

// UpdateQueueOffset records the consumed offset of the given consumer group for
// the given queue.
func (s *Store) UpdateQueueOffset(group, topic string, queueID int, offset int64) error {
	key := queue.Key{Topic: topic, QueueID: queueID}

	record := &offsetRecord{
		Group:   group,
		Topic:   topic,
		QueueID: queueID,
		Offset:  offset,
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal offset record: %w", err)
	}

	err = s.store.Put(recordKey(group, key), value, storage.Tag{Name: queueTag, Value: key.String()})
	if err != nil {
		return orberrors.NewTransientf("store offset record [%s] for group [%s]: %w", key, group, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	groupOffsets, ok := s.offsets[key]
	if !ok {
		groupOffsets = make(map[string]int64)
		s.offsets[key] = groupOffsets
	}

	groupOffsets[group] = offset

	return nil
}

// GetMinOffset returns the minimum consumed offset for the given queue across
// all consumer groups subscribed to it, or -1 if no group subscribes to it.
func (s *Store) GetMinOffset(topic string, queueID int) int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	groupOffsets, ok := s.offsets[queue.Key{Topic: topic, QueueID: queueID}]
	if !ok || len(groupOffsets) == 0 {
		return -1
	}

	min := int64(-1)

	for _, offset := range groupOffsets {
		if min == -1 || offset < min {
			min = offset
		}
	}

	return min
}

// DeleteQueueOffset deletes the offsets of all consumer groups for the given queue.
func (s *Store) DeleteQueueOffset(topic string, queueID int) error {
	key := queue.Key{Topic: topic, QueueID: queueID}

	s.mutex.Lock()
	groupOffsets := s.offsets[key]

	groups := make([]string, 0, len(groupOffsets))

	for group := range groupOffsets {
		groups = append(groups, group)
	}

	delete(s.offsets, key)
	s.mutex.Unlock()

	if len(groups) == 0 {
		return nil
	}

	operations := make([]storage.Operation, len(groups))

	for i, group := range groups {
		operations[i] = storage.Operation{Key: recordKey(group, key)}
	}

	if err := s.store.Batch(operations); err != nil {
		return orberrors.NewTransientf("delete offset records [%s]: %w", key, err)
	}

	logger.Debug("Deleted consumer group offsets", logfields.WithQueueKey(key.String()),
		logfields.WithTotal(len(groups)))

	return nil
}

// GetConsumerGroupCount returns the number of consumer groups that have recorded
// at least one offset.
func (s *Store) GetConsumerGroupCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	groups := make(map[string]struct{})

	for _, groupOffsets := range s.offsets {
		for group := range groupOffsets {
			groups[group] = struct{}{}
		}
	}

	return len(groups)
}

func (s *Store) load() error {
	iterator, err := s.store.Query(queueTag)
	if err != nil {
		return orberrors.NewTransientf("query offset records: %w", err)
	}

	defer func() {
		if err := iterator.Close(); err != nil {
			logger.Warn("Error closing iterator", log.WithError(err))
		}
	}()

	more, err := iterator.Next()
	if err != nil {
		return orberrors.NewTransientf("get next offset record: %w", err)
	}

	total := 0

	for more {
		value, err := iterator.Value()
		if err != nil {
			return orberrors.NewTransientf("get offset record value: %w", err)
		}

		record := &offsetRecord{}

		if err := json.Unmarshal(value, record); err != nil {
			return fmt.Errorf("unmarshal offset record: %w", err)
		}

		key := queue.Key{Topic: record.Topic, QueueID: record.QueueID}

		groupOffsets, ok := s.offsets[key]
		if !ok {
			groupOffsets = make(map[string]int64)
			s.offsets[key] = groupOffsets
		}

		groupOffsets[record.Group] = record.Offset

		total++

		more, err = iterator.Next()
		if err != nil {
			return orberrors.NewTransientf("get next offset record: %w", err)
		}
	}

	if total > 0 {
		logger.Info("Restored consumer group offsets", logfields.WithTotal(total))
	}

	return nil
}

func recordKey(group string, key queue.Key) string {
	return group + "/" + key.String()
}
