/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package queuestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/zquans/equeue/internal/pkg/log"
	"github.com/zquans/equeue/pkg/broker/queue"
	orberrors "github.com/zquans/equeue/pkg/errors"
	"github.com/zquans/equeue/pkg/store"
)

var logger = log.New("queue-store")

const (
	storeName = "queue"
	topicTag  = "topic"

	defaultCacheSize       = 1000
	defaultCacheExpiration = 5 * time.Second
)

type queueRecord struct {
	Topic   string `json:"topic"`
	QueueID int    `json:"queueId"`
	Status  string `json:"status"`
}

// Store persists queue metadata records. Reads are served through an ARC cache
// that is invalidated on every mutation.
type Store struct {
	store    storage.Store
	cache    gcache.Cache
	basePath string

	cacheExpiry time.Duration
	cacheSize   int

	unmarshal func([]byte, interface{}) error
}

// Option is a queue store option.
type Option func(opts *Store)

// WithCacheLifetime option defines the lifetime of an object in the cache.
func WithCacheLifetime(expiry time.Duration) Option {
	return func(opts *Store) {
		opts.cacheExpiry = expiry
	}
}

// WithCacheSize option defines the cache size.
func WithCacheSize(size int) Option {
	return func(opts *Store) {
		opts.cacheSize = size
	}
}

// New returns a new queue metadata store. Queues returned by GetQueue and Queues
// are constructed against the given chunk base path.
func New(provider storage.Provider, basePath string, opts ...Option) (*Store, error) {
	s, err := store.Open(provider, storeName, store.NewTagGroup(topicTag))
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}

	qs := &Store{
		store:       s,
		basePath:    basePath,
		cacheExpiry: defaultCacheExpiration,
		cacheSize:   defaultCacheSize,
		unmarshal:   json.Unmarshal,
	}

	for _, opt := range opts {
		opt(qs)
	}

	logger.Debug("Creating queue record cache", logfields.WithTotal(qs.cacheSize))

	qs.cache = gcache.New(qs.cacheSize).ARC().
		Expiration(qs.cacheExpiry).
		LoaderFunc(func(key interface{}) (interface{}, error) {
			return qs.get(key.(queue.Key))
		}).Build()

	return qs, nil
}

// CreateQueue persists the metadata record of the given queue.
func (s *Store) CreateQueue(q *queue.Queue) error {
	return s.put(q)
}

// UpdateQueue updates the persisted metadata record of the given queue.
func (s *Store) UpdateQueue(q *queue.Queue) error {
	return s.put(q)
}

// DeleteQueue deletes the persisted metadata record of the given queue.
func (s *Store) DeleteQueue(q *queue.Queue) error {
	key := q.Key()

	if err := s.store.Delete(key.String()); err != nil {
		return orberrors.NewTransientf("delete queue record [%s]: %w", key, err)
	}

	s.cache.Remove(key)

	logger.Debug("Deleted queue record", logfields.WithQueueKey(key.String()))

	return nil
}

// GetQueue returns the queue persisted under the given topic and queue ID, or
// ErrQueueNotFound if there is none. The returned queue is a detached copy
// constructed from the metadata record; it is not loaded.
func (s *Store) GetQueue(topic string, queueID int) (*queue.Queue, error) {
	record, err := s.cache.Get(queue.Key{Topic: topic, QueueID: queueID})
	if err != nil {
		return nil, err
	}

	return s.newQueue(record.(*queueRecord)), nil
}

// Queues returns all queues persisted for the given topic.
func (s *Store) Queues(topic string) ([]*queue.Queue, error) {
	iterator, err := s.store.Query(fmt.Sprintf("%s:%s", topicTag, topic))
	if err != nil {
		return nil, orberrors.NewTransientf("query queues for topic [%s]: %w", topic, err)
	}

	defer func() {
		if err := iterator.Close(); err != nil {
			logger.Warn("Error closing iterator", log.WithError(err))
		}
	}()

	var queues []*queue.Queue

	more, err := iterator.Next()
	if err != nil {
		return nil, orberrors.NewTransientf("get next queue record: %w", err)
	}

	for more {
		value, err := iterator.Value()
		if err != nil {
			return nil, orberrors.NewTransientf("get queue record value: %w", err)
		}

		record := &queueRecord{}

		if err := s.unmarshal(value, record); err != nil {
			return nil, fmt.Errorf("unmarshal queue record: %w", err)
		}

		queues = append(queues, s.newQueue(record))

		more, err = iterator.Next()
		if err != nil {
			return nil, orberrors.NewTransientf("get next queue record: %w", err)
		}
	}

	return queues, nil
}

func (s *Store) put(q *queue.Queue) error {
	key := q.Key()

	record := &queueRecord{
		Topic:   q.Topic(),
		QueueID: q.QueueID(),
		Status:  string(q.Status()),
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal queue record [%s]: %w", key, err)
	}

	err = s.store.Put(key.String(), value, storage.Tag{Name: topicTag, Value: q.Topic()})
	if err != nil {
		return orberrors.NewTransientf("store queue record [%s]: %w", key, err)
	}

	s.cache.Remove(key)

	logger.Debug("Stored queue record", logfields.WithQueueKey(key.String()),
		logfields.WithQueueStatus(record.Status))

	return nil
}

func (s *Store) get(key queue.Key) (*queueRecord, error) {
	value, err := s.store.Get(key.String())
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, orberrors.ErrQueueNotFound
		}

		return nil, orberrors.NewTransientf("get queue record [%s]: %w", key, err)
	}

	record := &queueRecord{}

	if err := s.unmarshal(value, record); err != nil {
		return nil, fmt.Errorf("unmarshal queue record [%s]: %w", key, err)
	}

	return record, nil
}

func (s *Store) newQueue(record *queueRecord) *queue.Queue {
	q := queue.New(record.Topic, record.QueueID, s.basePath)
	q.SetStatus(queue.Status(record.Status))

	return q
}
