/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package messagestore provides an in-memory message log. The production broker
// persists message payloads in an append-only chunk log; this implementation
// keeps the same contract for in-process wiring and testing.
package messagestore

import (
	"sync"

	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/zquans/equeue/internal/pkg/log"
	"github.com/zquans/equeue/pkg/broker/queue"
)

var logger = log.New("message-store")

// Store is an in-memory message log.
type Store struct {
	mutex             sync.RWMutex
	position          int64
	messages          map[int64][]byte
	consumedOffsets   map[queue.Key]int64
	supportsBatchLoad bool
}

// Option is a message store option.
type Option func(s *Store)

// WithBatchLoadSupport indicates that evicted queue index entries may be
// reconstructed from this store on demand.
func WithBatchLoadSupport() Option {
	return func(s *Store) {
		s.supportsBatchLoad = true
	}
}

// New returns a new in-memory message store.
func New(opts ...Option) *Store {
	s := &Store{
		messages:        make(map[int64][]byte),
		consumedOffsets: make(map[queue.Key]int64),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Append appends the given payload to the log and returns its position.
func (s *Store) Append(payload []byte) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	position := s.position

	s.messages[position] = payload
	s.position += int64(len(payload))

	return position
}

// Get returns the payload at the given position.
func (s *Store) Get(position int64) ([]byte, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	payload, ok := s.messages[position]

	return payload, ok
}

// CurrentMessagePosition returns the position at which the next payload will be
// appended.
func (s *Store) CurrentMessagePosition() int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.position
}

// DeleteQueueMessage deletes all message state held for the given queue.
func (s *Store) DeleteQueueMessage(topic string, queueID int) error {
	key := queue.Key{Topic: topic, QueueID: queueID}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.consumedOffsets, key)

	logger.Debug("Deleted queue messages", logfields.WithQueueKey(key.String()))

	return nil
}

// UpdateConsumedQueueOffset informs the log that every message of the given
// queue up to the given offset has been consumed and may be compacted.
func (s *Store) UpdateConsumedQueueOffset(topic string, queueID int, offset int64) error {
	key := queue.Key{Topic: topic, QueueID: queueID}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if current, ok := s.consumedOffsets[key]; ok && current >= offset {
		return nil
	}

	s.consumedOffsets[key] = offset

	return nil
}

// ConsumedQueueOffset returns the consumed offset recorded for the given queue,
// or -1 if none was recorded.
func (s *Store) ConsumedQueueOffset(topic string, queueID int) int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	offset, ok := s.consumedOffsets[queue.Key{Topic: topic, QueueID: queueID}]
	if !ok {
		return -1
	}

	return offset
}

// SupportsBatchLoadQueueIndex returns true if evicted queue index entries may be
// reconstructed from this store on demand.
func (s *Store) SupportsBatchLoadQueueIndex() bool {
	return s.supportsBatchLoad
}
