/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package taskmgr

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/zquans/equeue/internal/pkg/log"
	"github.com/zquans/equeue/pkg/lifecycle"
)

var logger = log.New("task-manager")

// Manager manages scheduled tasks that are periodically run by the broker, such as the
// queue index maintenance tasks. Each task is serialized against itself: if a previous
// run of a task is still in progress when its interval elapses, the new run is skipped
// (not queued).
type Manager struct {
	*lifecycle.Lifecycle

	instanceID string
	tasks      map[string]*registration
	mutex      sync.Mutex
	wg         sync.WaitGroup
}

// New returns a new task manager. Tasks are registered with RegisterTask and begin
// running when Start is called. Stop stops all registered tasks.
func New() *Manager {
	m := &Manager{
		instanceID: uuid.New().String(),
		tasks:      make(map[string]*registration),
	}

	m.Lifecycle = lifecycle.New("task-manager",
		lifecycle.WithStart(m.start),
		lifecycle.WithStop(m.stop))

	return m
}

// InstanceID returns the unique ID of this task manager instance (used in logs).
func (m *Manager) InstanceID() string {
	return m.instanceID
}

// RegisterTask registers a task to be run periodically at the given interval, starting
// after the given initial delay. If a task with the same ID is already registered then
// it is stopped and replaced. If the manager is already started then the task is
// scheduled immediately, otherwise it is scheduled when Start is called; in both cases
// its first run follows the initial delay.
func (m *Manager) RegisterTask(id string, initialDelay, interval time.Duration, task func()) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if existing, ok := m.tasks[id]; ok {
		existing.close()
	}

	r := &registration{
		id:           id,
		initialDelay: initialDelay,
		interval:     interval,
		handle:       task,
		done:         make(chan struct{}),
	}

	m.tasks[id] = r

	logger.Info("Registered task", logfields.WithTaskID(id),
		logfields.WithTaskInterval(interval), logfields.WithInstanceID(m.instanceID))

	if m.State() == lifecycle.StateStarted {
		m.launch(r)
	}
}

// StopTask stops the task with the given ID and removes it from the manager.
// It is a no-op if no task with the given ID is registered.
func (m *Manager) StopTask(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	r, ok := m.tasks[id]
	if !ok {
		return
	}

	r.close()

	delete(m.tasks, id)

	logger.Info("Stopped task", logfields.WithTaskID(id))
}

func (m *Manager) start() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, r := range m.tasks {
		m.launch(r)
	}

	logger.Info("Started task manager", logfields.WithInstanceID(m.instanceID))
}

func (m *Manager) stop() {
	m.mutex.Lock()

	for id, r := range m.tasks {
		r.close()

		delete(m.tasks, id)
	}

	m.mutex.Unlock()

	m.wg.Wait()

	logger.Info("Stopped task manager", logfields.WithInstanceID(m.instanceID))
}

// launch must be called under the mutex.
func (m *Manager) launch(r *registration) {
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()

		select {
		case <-time.After(r.initialDelay):
		case <-r.done:
			return
		}

		r.run()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.run()
			case <-r.done:
				logger.Debug("Stopping task", logfields.WithTaskID(r.id))

				return
			}
		}
	}()
}

type registration struct {
	id           string
	initialDelay time.Duration
	interval     time.Duration
	handle       func()
	running      uint32
	done         chan struct{}
	closeOnce    sync.Once
}

// run invokes the task in a new goroutine, unless a previous run is still in
// progress, in which case this run is skipped.
func (r *registration) run() {
	if !atomic.CompareAndSwapUint32(&r.running, 0, 1) {
		logger.Debug("Task is already running", logfields.WithTaskID(r.id))

		return
	}

	go func() {
		logger.Debug("Running task", logfields.WithTaskID(r.id))

		r.handle()

		atomic.StoreUint32(&r.running, 0)

		logger.Debug("Finished running task", logfields.WithTaskID(r.id))
	}()
}

func (r *registration) close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}
