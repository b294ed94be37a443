/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package queueservice

import (
	"sync"

	"github.com/zquans/equeue/pkg/broker/queue"
	orberrors "github.com/zquans/equeue/pkg/errors"
)

type callRecorder struct {
	mutex sync.Mutex
	calls []string
}

func (r *callRecorder) add(call string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.calls = append(r.calls, call)
}

func (r *callRecorder) list() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return append([]string{}, r.calls...)
}

type mockQueueStore struct {
	mutex       sync.Mutex
	recorder    *callRecorder
	basePath    string
	records     map[queue.Key]queue.Status
	createCalls map[queue.Key]int

	errCreate error
	errUpdate error
	errDelete error
	errGet    error
}

func newMockQueueStore(basePath string, recorder *callRecorder) *mockQueueStore {
	return &mockQueueStore{
		recorder:    recorder,
		basePath:    basePath,
		records:     make(map[queue.Key]queue.Status),
		createCalls: make(map[queue.Key]int),
	}
}

func (m *mockQueueStore) CreateQueue(q *queue.Queue) error {
	if m.errCreate != nil {
		return m.errCreate
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.records[q.Key()] = q.Status()
	m.createCalls[q.Key()]++

	return nil
}

func (m *mockQueueStore) UpdateQueue(q *queue.Queue) error {
	if m.errUpdate != nil {
		return m.errUpdate
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.records[q.Key()] = q.Status()

	return nil
}

func (m *mockQueueStore) DeleteQueue(q *queue.Queue) error {
	m.recorder.add("queuestore-delete")

	if m.errDelete != nil {
		return m.errDelete
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.records, q.Key())

	return nil
}

func (m *mockQueueStore) GetQueue(topic string, queueID int) (*queue.Queue, error) {
	if m.errGet != nil {
		return nil, m.errGet
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	status, ok := m.records[queue.Key{Topic: topic, QueueID: queueID}]
	if !ok {
		return nil, orberrors.ErrQueueNotFound
	}

	q := queue.New(topic, queueID, m.basePath)
	q.SetStatus(status)

	return q, nil
}

func (m *mockQueueStore) status(topic string, queueID int) (queue.Status, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	status, ok := m.records[queue.Key{Topic: topic, QueueID: queueID}]

	return status, ok
}

type mockMessageStore struct {
	mutex           sync.Mutex
	recorder        *callRecorder
	supportsBatch   bool
	consumedOffsets map[queue.Key]int64

	errDeleteMessage   error
	errUpdateConsumed  error
	currentMsgPosition int64
}

func newMockMessageStore(recorder *callRecorder) *mockMessageStore {
	return &mockMessageStore{
		recorder:        recorder,
		consumedOffsets: make(map[queue.Key]int64),
	}
}

func (m *mockMessageStore) DeleteQueueMessage(topic string, queueID int) error {
	m.recorder.add("messagestore-delete")

	if m.errDeleteMessage != nil {
		return m.errDeleteMessage
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.consumedOffsets, queue.Key{Topic: topic, QueueID: queueID})

	return nil
}

func (m *mockMessageStore) UpdateConsumedQueueOffset(topic string, queueID int, offset int64) error {
	if m.errUpdateConsumed != nil {
		return m.errUpdateConsumed
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.consumedOffsets[queue.Key{Topic: topic, QueueID: queueID}] = offset

	return nil
}

func (m *mockMessageStore) SupportsBatchLoadQueueIndex() bool {
	return m.supportsBatch
}

func (m *mockMessageStore) CurrentMessagePosition() int64 {
	return m.currentMsgPosition
}

func (m *mockMessageStore) consumedOffset(topic string, queueID int) (int64, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	offset, ok := m.consumedOffsets[queue.Key{Topic: topic, QueueID: queueID}]

	return offset, ok
}

type mockOffsetManager struct {
	mutex      sync.Mutex
	recorder   *callRecorder
	minOffsets map[queue.Key]int64
	groupCount int

	errDelete    error
	getMinOffset func(topic string, queueID int) int64
}

func newMockOffsetManager(recorder *callRecorder) *mockOffsetManager {
	return &mockOffsetManager{
		recorder:   recorder,
		minOffsets: make(map[queue.Key]int64),
	}
}

func (m *mockOffsetManager) GetMinOffset(topic string, queueID int) int64 {
	if m.getMinOffset != nil {
		return m.getMinOffset(topic, queueID)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	offset, ok := m.minOffsets[queue.Key{Topic: topic, QueueID: queueID}]
	if !ok {
		return -1
	}

	return offset
}

func (m *mockOffsetManager) DeleteQueueOffset(topic string, queueID int) error {
	m.recorder.add("offsetmanager-delete")

	if m.errDelete != nil {
		return m.errDelete
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.minOffsets, queue.Key{Topic: topic, QueueID: queueID})

	return nil
}

func (m *mockOffsetManager) GetConsumerGroupCount() int {
	return m.groupCount
}

func (m *mockOffsetManager) setMinOffset(topic string, queueID int, offset int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.minOffsets[queue.Key{Topic: topic, QueueID: queueID}] = offset
}
