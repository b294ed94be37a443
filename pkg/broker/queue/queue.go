/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/zquans/equeue/internal/pkg/log"
)

var logger = log.New("queue")

// Status is the administrative status of a queue.
type Status string

// Queue statuses.
const (
	StatusEnabled  Status = "Enabled"
	StatusDisabled Status = "Disabled"
)

const (
	settingsFileName   = "queue.settings"
	checkpointFileName = "queue.checkpoint"

	fileMode = 0o600
	dirMode  = 0o700
)

// Setting holds the persisted administrative settings of a queue.
type Setting struct {
	Status Status `json:"status"`
}

type checkpoint struct {
	CurrentOffset  int64 `json:"currentOffset"`
	ConsumedOffset int64 `json:"consumedOffset"`
	MinQueueOffset int64 `json:"minQueueOffset"`
}

// Queue owns one queue's index cache, status and offsets. The index cache is an
// ordered sequence of queueOffset -> messagePosition entries covering the range
// [MinQueueOffset, CurrentOffset]. Entries may be discarded from the oldest end
// once consumed by every subscribed group (RemoveAllPreviousQueueIndex) and from
// the newest end under memory pressure (RemoveRequiredQueueIndexFromLast); evicted
// unconsumed entries are reconstructible from the message log.
//
// A Queue is safe for concurrent use. Index operations on a closed Queue are no-ops.
type Queue struct {
	topic   string
	queueID int
	dir     string

	mutex          sync.RWMutex
	setting        Setting
	indexes        map[int64]int64
	currentOffset  int64
	consumedOffset int64
	minQueueOffset int64
	closed         bool
}

// New returns a queue for the given topic and queue ID whose chunk directory
// lives under the given base path. Load must be called before use.
func New(topic string, queueID int, basePath string) *Queue {
	return &Queue{
		topic:          topic,
		queueID:        queueID,
		dir:            filepath.Join(basePath, topic, strconv.Itoa(queueID)),
		setting:        Setting{Status: StatusEnabled},
		indexes:        make(map[int64]int64),
		currentOffset:  -1,
		consumedOffset: -1,
		minQueueOffset: 0,
	}
}

// Topic returns the topic that this queue belongs to.
func (q *Queue) Topic() string {
	return q.topic
}

// QueueID returns the ID of this queue within its topic.
func (q *Queue) QueueID() int {
	return q.queueID
}

// Key returns the registry key of this queue.
func (q *Queue) Key() Key {
	return Key{Topic: q.topic, QueueID: q.queueID}
}

// Dir returns the chunk directory of this queue.
func (q *Queue) Dir() string {
	return q.dir
}

// Load creates the queue's chunk directory if it does not exist and restores the
// persisted settings and offset checkpoint, if present.
func (q *Queue) Load() error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if err := os.MkdirAll(q.dir, dirMode); err != nil {
		return fmt.Errorf("create queue directory [%s]: %w", q.dir, err)
	}

	if err := q.readSettings(); err != nil {
		return err
	}

	if err := q.readCheckpoint(); err != nil {
		return err
	}

	q.closed = false

	logger.Debug("Loaded queue", logfields.WithTopic(q.topic), logfields.WithQueueID(q.queueID),
		logfields.WithCurrentOffset(q.currentOffset), logfields.WithConsumedOffset(q.consumedOffset))

	return nil
}

// Close persists the queue's settings and offset checkpoint and marks the queue
// closed. Subsequent index operations are no-ops. Close is idempotent.
func (q *Queue) Close() error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		return nil
	}

	if err := q.writeSettings(); err != nil {
		return err
	}

	if err := q.writeCheckpoint(); err != nil {
		return err
	}

	q.closed = true

	logger.Debug("Closed queue", logfields.WithTopic(q.topic), logfields.WithQueueID(q.queueID))

	return nil
}

// Destroy closes the queue without persisting its state and removes its chunk
// directory from disk. A destroyed queue does not reappear at the next startup.
func (q *Queue) Destroy() error {
	q.mutex.Lock()
	q.closed = true
	q.mutex.Unlock()

	if err := os.RemoveAll(q.dir); err != nil {
		return fmt.Errorf("remove queue directory [%s]: %w", q.dir, err)
	}

	logger.Debug("Destroyed queue", logfields.WithTopic(q.topic), logfields.WithQueueID(q.queueID))

	return nil
}

// Status returns the administrative status of the queue.
func (q *Queue) Status() Status {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	return q.setting.Status
}

// SetStatus sets the administrative status of the queue.
func (q *Queue) SetStatus(status Status) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.setting.Status = status
}

// IsEnabled returns true if the queue's status is Enabled.
func (q *Queue) IsEnabled() bool {
	return q.Status() == StatusEnabled
}

// CurrentOffset returns the highest queue offset written, or -1 if nothing has
// been written.
func (q *Queue) CurrentOffset() int64 {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	return q.currentOffset
}

// ConsumedOffset returns the highest queue offset known to have been consumed by
// every subscribed group, or -1 if nothing has been consumed.
func (q *Queue) ConsumedOffset() int64 {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	return q.consumedOffset
}

// MinQueueOffset returns the lower bound of the index range still held by this
// queue. It only advances forward.
func (q *Queue) MinQueueOffset() int64 {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	return q.minQueueOffset
}

// MessageCount returns the number of index entries currently resident in the cache.
func (q *Queue) MessageCount() int64 {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	return int64(len(q.indexes))
}

// MessageRealCount returns the number of messages in this queue that have not yet
// been consumed by every subscribed group, i.e. the queue's live backlog.
func (q *Queue) MessageRealCount() int64 {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	return q.currentOffset - q.consumedOffset
}

// AddQueueIndex appends an index entry mapping the next queue offset to the given
// message position and returns the assigned queue offset. It returns -1 if the
// queue is closed.
func (q *Queue) AddQueueIndex(messagePosition int64) int64 {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		return -1
	}

	offset := q.currentOffset + 1

	q.indexes[offset] = messagePosition
	q.currentOffset = offset

	return offset
}

// GetMessagePosition returns the message position for the given queue offset, if
// the entry is resident in the cache.
func (q *Queue) GetMessagePosition(queueOffset int64) (int64, bool) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	position, ok := q.indexes[queueOffset]

	return position, ok
}

// RemoveAllPreviousQueueIndex discards every resident index entry with a queue
// offset less than or equal to the given offset and advances the consumed offset
// and minimum queue offset accordingly. Offsets beyond the current offset are
// clamped. It is a no-op on a closed queue.
func (q *Queue) RemoveAllPreviousQueueIndex(upto int64) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		return
	}

	if upto > q.currentOffset {
		upto = q.currentOffset
	}

	if upto < q.minQueueOffset && upto <= q.consumedOffset {
		return
	}

	removed := 0

	for offset := range q.indexes {
		if offset <= upto {
			delete(q.indexes, offset)

			removed++
		}
	}

	if upto > q.consumedOffset {
		q.consumedOffset = upto
	}

	if upto+1 > q.minQueueOffset {
		q.minQueueOffset = upto + 1
	}

	if removed > 0 {
		logger.Debug("Removed consumed queue index entries", logfields.WithTopic(q.topic),
			logfields.WithQueueID(q.queueID), logfields.WithRemovedCount(int64(removed)),
			logfields.WithConsumedOffset(q.consumedOffset))
	}
}

// RemoveRequiredQueueIndexFromLast discards up to the required number of resident,
// unconsumed index entries starting from the newest end of the cache and returns
// the number actually removed. Evicted entries remain reconstructible from the
// message log. It returns 0 on a closed queue.
func (q *Queue) RemoveRequiredQueueIndexFromLast(requireRemoveCount int64) int64 {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed || requireRemoveCount <= 0 {
		return 0
	}

	var removed int64

	for offset := q.currentOffset; offset > q.consumedOffset && removed < requireRemoveCount; offset-- {
		if _, ok := q.indexes[offset]; ok {
			delete(q.indexes, offset)

			removed++
		}
	}

	return removed
}

func (q *Queue) readSettings() error {
	data, err := os.ReadFile(filepath.Join(q.dir, settingsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("read queue settings [%s]: %w", q.dir, err)
	}

	if err := json.Unmarshal(data, &q.setting); err != nil {
		return fmt.Errorf("unmarshal queue settings [%s]: %w", q.dir, err)
	}

	return nil
}

func (q *Queue) writeSettings() error {
	data, err := json.Marshal(q.setting)
	if err != nil {
		return fmt.Errorf("marshal queue settings: %w", err)
	}

	if err := os.WriteFile(filepath.Join(q.dir, settingsFileName), data, fileMode); err != nil {
		return fmt.Errorf("write queue settings [%s]: %w", q.dir, err)
	}

	return nil
}

func (q *Queue) readCheckpoint() error {
	data, err := os.ReadFile(filepath.Join(q.dir, checkpointFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("read queue checkpoint [%s]: %w", q.dir, err)
	}

	cp := &checkpoint{}

	if err := json.Unmarshal(data, cp); err != nil {
		return fmt.Errorf("unmarshal queue checkpoint [%s]: %w", q.dir, err)
	}

	q.currentOffset = cp.CurrentOffset
	q.consumedOffset = cp.ConsumedOffset
	q.minQueueOffset = cp.MinQueueOffset

	return nil
}

func (q *Queue) writeCheckpoint() error {
	cp := &checkpoint{
		CurrentOffset:  q.currentOffset,
		ConsumedOffset: q.consumedOffset,
		MinQueueOffset: q.minQueueOffset,
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal queue checkpoint: %w", err)
	}

	if err := os.WriteFile(filepath.Join(q.dir, checkpointFileName), data, fileMode); err != nil {
		return fmt.Errorf("write queue checkpoint [%s]: %w", q.dir, err)
	}

	return nil
}
