/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package queue

import (
	"fmt"
	"sync"
)

// Key identifies a queue by topic and queue ID. It is used as the registry map
// key; the formatted string form is for logging only, since a topic may itself
// contain the separator character.
type Key struct {
	Topic   string
	QueueID int
}

// String returns the formatted form of the key.
func (k Key) String() string {
	return fmt.Sprintf("%s-%d", k.Topic, k.QueueID)
}

// Registry is a concurrent mapping from Key to Queue. It is the source of truth
// for which queues exist in memory. Reads never block behind admin operations;
// iteration over a Values snapshot is weakly consistent, i.e. entries inserted
// or removed during iteration may or may not appear.
type Registry struct {
	mutex  sync.RWMutex
	queues map[Key]*Queue
}

// NewRegistry returns an empty queue registry.
func NewRegistry() *Registry {
	return &Registry{
		queues: make(map[Key]*Queue),
	}
}

// Get returns the queue stored under the given key, or nil if none exists.
func (r *Registry) Get(key Key) *Queue {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.queues[key]
}

// Contains returns true if a queue is stored under the given key.
func (r *Registry) Contains(key Key) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.queues[key]

	return ok
}

// TryPut stores the given queue under its key if no queue is already stored
// there. It returns true if the queue was stored. An existing queue is never
// displaced.
func (r *Registry) TryPut(q *Queue) bool {
	key := q.Key()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.queues[key]; ok {
		return false
	}

	r.queues[key] = q

	return true
}

// Remove removes the queue stored under the given key and returns it, or nil if
// none was stored.
func (r *Registry) Remove(key Key) *Queue {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	q, ok := r.queues[key]
	if !ok {
		return nil
	}

	delete(r.queues, key)

	return q
}

// Values returns a snapshot of the queues in the registry.
func (r *Registry) Values() []*Queue {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	queues := make([]*Queue, 0, len(r.queues))

	for _, q := range r.queues {
		queues = append(queues, q)
	}

	return queues
}

// Size returns the number of queues in the registry.
func (r *Registry) Size() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.queues)
}

// Clear removes all queues from the registry.
func (r *Registry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.queues = make(map[Key]*Queue)
}
