/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package queueservice

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/zquans/equeue/internal/pkg/log"
	"github.com/zquans/equeue/pkg/broker/event"
	"github.com/zquans/equeue/pkg/broker/queue"
	"github.com/zquans/equeue/pkg/config"
	orberrors "github.com/zquans/equeue/pkg/errors"
)

var logger = log.New("queue-service")

// QueueStore persists queue metadata records.
type QueueStore interface {
	CreateQueue(q *queue.Queue) error
	UpdateQueue(q *queue.Queue) error
	DeleteQueue(q *queue.Queue) error
	GetQueue(topic string, queueID int) (*queue.Queue, error)
}

// MessageStore is the broker's append-only message log.
type MessageStore interface {
	DeleteQueueMessage(topic string, queueID int) error
	UpdateConsumedQueueOffset(topic string, queueID int, offset int64) error
	SupportsBatchLoadQueueIndex() bool
	CurrentMessagePosition() int64
}

// OffsetManager tracks the consumption progress of consumer groups.
type OffsetManager interface {
	GetMinOffset(topic string, queueID int) int64
	DeleteQueueOffset(topic string, queueID int) error
	GetConsumerGroupCount() int
}

type taskManager interface {
	RegisterTask(id string, initialDelay, interval time.Duration, task func())
	StopTask(id string)
}

type eventPublisher interface {
	Publish(e *event.Event) error
}

type metricsProvider interface {
	SetQueueCount(value int)
	SetQueueIndexCount(value int64)
	SetUnconsumedMessageCount(value int64)
	SetMinMessageOffset(value int64)
	AddReclaimedIndexCount(value int64)
	AddEvictedIndexCount(value int64)
	ReclaimTime(value time.Duration)
	EvictTime(value time.Duration)
}

// Service owns the lifecycle of every queue held by the broker. It reconstructs
// the queue population from the on-disk chunk directories at startup, mediates
// all admin mutations against the queue store, the message store and the offset
// manager, and runs the periodic queue index maintenance tasks.
//
// All mutations are serialized under a single mutex; read-only queries operate
// on registry snapshots and never block behind mutations.
type Service struct {
	cfg           *config.Broker
	registry      *queue.Registry
	queueStore    QueueStore
	messageStore  MessageStore
	offsetManager OffsetManager
	taskMgr       taskManager
	publisher     eventPublisher
	metrics       metricsProvider

	mutex          sync.Mutex
	reclaimRunning uint32
	evictRunning   uint32
}

// Opt sets a queue service option.
type Opt func(s *Service)

// WithEventPublisher sets the publisher for queue admin events.
func WithEventPublisher(publisher eventPublisher) Opt {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(metrics metricsProvider) Opt {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// New returns a new queue service.
func New(cfg *config.Broker, queueStore QueueStore, messageStore MessageStore,
	offsetManager OffsetManager, taskMgr taskManager, opts ...Opt,
) *Service {
	s := &Service{
		cfg:           cfg,
		registry:      queue.NewRegistry(),
		queueStore:    queueStore,
		messageStore:  messageStore,
		offsetManager: offsetManager,
		taskMgr:       taskMgr,
		metrics:       &noopMetrics{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start brings the service up: any running maintenance tasks are stopped, the
// registry is cleared and repopulated from the on-disk chunk directories, and
// the maintenance tasks are registered. Start may be called again after a
// failure or a Stop; each call performs the full bring-up from scratch.
func (s *Service) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.stopMaintenanceTasks()

	s.registry.Clear()

	if err := s.loadExistingQueues(); err != nil {
		return fmt.Errorf("load existing queues: %w", err)
	}

	s.registerMaintenanceTasks()

	logger.Info("Started queue service", logfields.WithQueueCount(s.registry.Size()),
		logfields.WithBasePath(s.cfg.QueueChunkConfig.BasePath))

	return nil
}

// Stop closes every queue and stops the maintenance tasks, in reverse order of
// Start.
func (s *Service) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, q := range s.registry.Values() {
		if err := q.Close(); err != nil {
			logger.Warn("Error closing queue", logfields.WithQueueKey(q.Key().String()),
				log.WithError(err))
		}
	}

	s.registry.Clear()

	s.stopMaintenanceTasks()

	logger.Info("Stopped queue service")
}

// CreateTopic creates the given number of queues (with queue IDs 0 to
// initialQueueCount-1) for the given topic. Queues that already exist are left
// untouched, so repeating the call is idempotent.
func (s *Service) CreateTopic(topic string, initialQueueCount int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.createTopic(topic, initialQueueCount)
}

// AddQueue adds a queue to the given topic. The new queue ID is one greater than
// the highest existing queue ID for the topic, or 0 if the topic has no queues.
// Freed IDs below the highest are never reused.
func (s *Service) AddQueue(topic string) (*queue.Queue, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if topic == "" {
		return nil, orberrors.NewBadRequestf("topic must not be empty")
	}

	existing := s.findQueues(topic)

	if len(existing) >= s.cfg.TopicMaxQueueCount {
		return nil, orberrors.NewBadRequestf("topic [%s] already has the maximum number of queues (%d)",
			topic, s.cfg.TopicMaxQueueCount)
	}

	queueID := 0

	for _, q := range existing {
		if q.QueueID() >= queueID {
			queueID = q.QueueID() + 1
		}
	}

	q := queue.New(topic, queueID, s.cfg.QueueChunkConfig.BasePath)

	if err := q.Load(); err != nil {
		return nil, fmt.Errorf("load queue [%s]: %w", q.Key(), err)
	}

	if err := s.queueStore.CreateQueue(q); err != nil {
		return nil, fmt.Errorf("create queue [%s]: %w", q.Key(), err)
	}

	if !s.registry.TryPut(q) {
		return nil, fmt.Errorf("queue [%s] already exists in the registry", q.Key())
	}

	logger.Info("Added queue", logfields.WithTopic(topic), logfields.WithQueueID(queueID))

	s.publish(event.New(event.TypeQueueAdded, topic, queueID))

	return q, nil
}

// RemoveQueue removes the given queue from the message store, the offset
// manager, the queue store and the registry, in that order. The queue must be
// disabled and fully consumed. Removing a queue that is not in the registry is
// a no-op. A failure part way through leaves the remaining steps not done; the
// operation may be retried.
func (s *Service) RemoveQueue(topic string, queueID int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := queue.Key{Topic: topic, QueueID: queueID}

	q := s.registry.Get(key)
	if q == nil {
		return nil
	}

	if q.Status() != queue.StatusDisabled {
		return orberrors.NewPreconditionFailedf("queue [%s] must be disabled before it can be removed", key)
	}

	if q.MessageRealCount() > 0 {
		return orberrors.NewPreconditionFailedf("queue [%s] still has messages", key)
	}

	if err := s.messageStore.DeleteQueueMessage(topic, queueID); err != nil {
		return fmt.Errorf("delete queue messages [%s]: %w", key, err)
	}

	if err := s.offsetManager.DeleteQueueOffset(topic, queueID); err != nil {
		logger.Warn("Queue removal aborted after its messages were deleted",
			logfields.WithQueueKey(key.String()), log.WithError(err))

		return fmt.Errorf("delete queue offsets [%s]: %w", key, err)
	}

	if err := s.queueStore.DeleteQueue(q); err != nil {
		logger.Warn("Queue removal aborted after its messages and offsets were deleted",
			logfields.WithQueueKey(key.String()), log.WithError(err))

		return fmt.Errorf("delete queue [%s]: %w", key, err)
	}

	s.registry.Remove(key)

	if err := q.Destroy(); err != nil {
		logger.Warn("Error removing queue directory", logfields.WithQueueKey(key.String()),
			log.WithError(err))
	}

	logger.Info("Removed queue", logfields.WithTopic(topic), logfields.WithQueueID(queueID))

	s.publish(event.New(event.TypeQueueRemoved, topic, queueID))

	return nil
}

// EnableQueue sets the status of the given queue to Enabled.
func (s *Service) EnableQueue(topic string, queueID int) error {
	return s.setQueueStatus(topic, queueID, queue.StatusEnabled, event.TypeQueueEnabled)
}

// DisableQueue sets the status of the given queue to Disabled.
func (s *Service) DisableQueue(topic string, queueID int) error {
	return s.setQueueStatus(topic, queueID, queue.StatusDisabled, event.TypeQueueDisabled)
}

// GetOrCreateQueues returns the queues for the given topic, optionally filtered
// by status. If the topic has no queues and auto-create is enabled then the
// topic is first created with the default number of queues.
func (s *Service) GetOrCreateQueues(topic string, status ...queue.Status) ([]*queue.Queue, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.findQueues(topic)) == 0 && s.cfg.AutoCreateTopic {
		if err := s.createTopic(topic, s.cfg.TopicDefaultQueueCount); err != nil {
			return nil, fmt.Errorf("auto-create topic [%s]: %w", topic, err)
		}
	}

	return filterByStatus(s.findQueues(topic), status...), nil
}

// GetAllTopics returns the distinct topics of all queues held in memory.
func (s *Service) GetAllTopics() []string {
	topics := make(map[string]struct{})

	for _, q := range s.registry.Values() {
		topics[q.Topic()] = struct{}{}
	}

	result := make([]string, 0, len(topics))

	for topic := range topics {
		result = append(result, topic)
	}

	sort.Strings(result)

	return result
}

// GetAllQueueCount returns the number of queues held in memory.
func (s *Service) GetAllQueueCount() int {
	return s.registry.Size()
}

// GetAllQueueIndexCount returns the aggregate number of resident queue index
// entries across all queues.
func (s *Service) GetAllQueueIndexCount() int64 {
	var total int64

	for _, q := range s.registry.Values() {
		total += q.MessageCount()
	}

	return total
}

// GetAllQueueUnConsumedMessageCount returns the aggregate number of messages
// not yet consumed by every subscribed group, across all queues.
func (s *Service) GetAllQueueUnConsumedMessageCount() int64 {
	var total int64

	for _, q := range s.registry.Values() {
		total += q.MessageRealCount()
	}

	return total
}

// GetQueueMinMessageOffset returns the minimum queue offset across all queues,
// or -1 if no queues are held in memory.
func (s *Service) GetQueueMinMessageOffset() int64 {
	min := int64(-1)

	for _, q := range s.registry.Values() {
		if offset := q.MinQueueOffset(); min == -1 || offset < min {
			min = offset
		}
	}

	return min
}

// IsQueueExist returns true if the given queue is held in memory.
func (s *Service) IsQueueExist(topic string, queueID int) bool {
	return s.registry.Contains(queue.Key{Topic: topic, QueueID: queueID})
}

// GetQueueCurrentOffset returns the current offset of the given queue, or -1 if
// the queue is not held in memory.
func (s *Service) GetQueueCurrentOffset(topic string, queueID int) int64 {
	q := s.registry.Get(queue.Key{Topic: topic, QueueID: queueID})
	if q == nil {
		return -1
	}

	return q.CurrentOffset()
}

// GetQueueMinOffset returns the minimum queue offset of the given queue, or -1
// if the queue is not held in memory.
func (s *Service) GetQueueMinOffset(topic string, queueID int) int64 {
	q := s.registry.Get(queue.Key{Topic: topic, QueueID: queueID})
	if q == nil {
		return -1
	}

	return q.MinQueueOffset()
}

// GetQueue returns the given queue, or nil if it is not held in memory.
func (s *Service) GetQueue(topic string, queueID int) *queue.Queue {
	return s.registry.Get(queue.Key{Topic: topic, QueueID: queueID})
}

// QueryQueues returns all queues whose topic contains the given string. This is
// the admin fuzzy search.
func (s *Service) QueryQueues(topic string) []*queue.Queue {
	var queues []*queue.Queue

	for _, q := range s.registry.Values() {
		if strings.Contains(q.Topic(), topic) {
			queues = append(queues, q)
		}
	}

	sortQueues(queues)

	return queues
}

// FindQueues returns the queues whose topic exactly matches the given topic,
// optionally filtered by status.
func (s *Service) FindQueues(topic string, status ...queue.Status) []*queue.Queue {
	return filterByStatus(s.findQueues(topic), status...)
}

func (s *Service) createTopic(topic string, initialQueueCount int) error {
	if topic == "" {
		return orberrors.NewBadRequestf("topic must not be empty")
	}

	if initialQueueCount <= 0 || initialQueueCount > s.cfg.TopicMaxQueueCount {
		return orberrors.NewBadRequestf("initial queue count must be between 1 and %d",
			s.cfg.TopicMaxQueueCount)
	}

	created := 0

	for queueID := 0; queueID < initialQueueCount; queueID++ {
		q := queue.New(topic, queueID, s.cfg.QueueChunkConfig.BasePath)

		if err := q.Load(); err != nil {
			return fmt.Errorf("load queue [%s]: %w", q.Key(), err)
		}

		if s.registry.Contains(q.Key()) {
			continue
		}

		if err := s.queueStore.CreateQueue(q); err != nil {
			return fmt.Errorf("create queue [%s]: %w", q.Key(), err)
		}

		if s.registry.TryPut(q) {
			created++
		}
	}

	if created > 0 {
		logger.Info("Created topic", logfields.WithTopic(topic), logfields.WithQueueCount(created))

		s.publish(event.New(event.TypeTopicCreated, topic, -1))
	}

	return nil
}

func (s *Service) setQueueStatus(topic string, queueID int, status queue.Status, eventType event.Type) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := queue.Key{Topic: topic, QueueID: queueID}

	q := s.registry.Get(key)
	if q == nil {
		return nil
	}

	stored, err := s.queueStore.GetQueue(topic, queueID)
	if err != nil {
		if errors.Is(err, orberrors.ErrQueueNotFound) {
			return nil
		}

		return fmt.Errorf("get queue [%s]: %w", key, err)
	}

	stored.SetStatus(status)

	if err := s.queueStore.UpdateQueue(stored); err != nil {
		return fmt.Errorf("update queue [%s]: %w", key, err)
	}

	q.SetStatus(status)

	logger.Info("Updated queue status", logfields.WithTopic(topic), logfields.WithQueueID(queueID),
		logfields.WithQueueStatus(string(status)))

	s.publish(event.New(eventType, topic, queueID))

	return nil
}

// findQueues returns the queues whose topic exactly matches the given topic,
// sorted by queue ID.
func (s *Service) findQueues(topic string) []*queue.Queue {
	var queues []*queue.Queue

	for _, q := range s.registry.Values() {
		if q.Topic() == topic {
			queues = append(queues, q)
		}
	}

	sortQueues(queues)

	return queues
}

func (s *Service) publish(e *event.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(e); err != nil {
		logger.Warn("Error publishing queue admin event", logfields.WithEventType(string(e.Type)),
			logfields.WithTopic(e.Topic), log.WithError(err))
	}
}

func filterByStatus(queues []*queue.Queue, status ...queue.Status) []*queue.Queue {
	if len(status) == 0 {
		return queues
	}

	var filtered []*queue.Queue

	for _, q := range queues {
		if q.Status() == status[0] {
			filtered = append(filtered, q)
		}
	}

	return filtered
}

func sortQueues(queues []*queue.Queue) {
	sort.Slice(queues, func(i, j int) bool {
		if queues[i].Topic() != queues[j].Topic() {
			return queues[i].Topic() < queues[j].Topic()
		}

		return queues[i].QueueID() < queues[j].QueueID()
	})
}

type noopMetrics struct{}

func (m *noopMetrics) SetQueueCount(int) {}

func (m *noopMetrics) SetQueueIndexCount(int64) {}

func (m *noopMetrics) SetUnconsumedMessageCount(int64) {}

func (m *noopMetrics) SetMinMessageOffset(int64) {}

func (m *noopMetrics) AddReclaimedIndexCount(int64) {}

func (m *noopMetrics) AddEvictedIndexCount(int64) {}

func (m *noopMetrics) ReclaimTime(time.Duration) {}

func (m *noopMetrics) EvictTime(time.Duration) {}
