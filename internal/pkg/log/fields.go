/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"time"

	"go.uber.org/zap"
)

// Log Fields.
const (
	FieldTopic           = "topic"
	FieldQueueID         = "queue-id"
	FieldQueueKey        = "queue-key"
	FieldQueueStatus     = "queue-status"
	FieldQueueCount      = "queue-count"
	FieldQueueOffset     = "queue-offset"
	FieldCurrentOffset   = "current-offset"
	FieldConsumedOffset  = "consumed-offset"
	FieldMinOffset       = "min-offset"
	FieldMessagePosition = "message-position"
	FieldIndexCount      = "index-count"
	FieldUnconsumedCount = "unconsumed-count"
	FieldRemovedCount    = "removed-count"
	FieldExceedCount     = "exceed-count"
	FieldMaxCacheSize    = "max-cache-size"
	FieldBasePath        = "base-path"
	FieldPath            = "path"
	FieldTaskID          = "task-id"
	FieldTaskInterval    = "task-interval"
	FieldInstanceID      = "instance-id"
	FieldStoreName       = "store-name"
	FieldConsumerGroup   = "consumer-group"
	FieldEventType       = "event-type"
	FieldEventID         = "event-id"
	FieldMessageID       = "message-id"
	FieldTotal           = "total"
	FieldDuration        = "duration"
)

// WithError sets the error field.
func WithError(err error) zap.Field {
	return zap.Error(err)
}

// WithTopic sets the topic field.
func WithTopic(value string) zap.Field {
	return zap.String(FieldTopic, value)
}

// WithQueueID sets the queue-id field.
func WithQueueID(value int) zap.Field {
	return zap.Int(FieldQueueID, value)
}

// WithQueueKey sets the queue-key field.
func WithQueueKey(value string) zap.Field {
	return zap.String(FieldQueueKey, value)
}

// WithQueueStatus sets the queue-status field.
func WithQueueStatus(value string) zap.Field {
	return zap.String(FieldQueueStatus, value)
}

// WithQueueCount sets the queue-count field.
func WithQueueCount(value int) zap.Field {
	return zap.Int(FieldQueueCount, value)
}

// WithQueueOffset sets the queue-offset field.
func WithQueueOffset(value int64) zap.Field {
	return zap.Int64(FieldQueueOffset, value)
}

// WithCurrentOffset sets the current-offset field.
func WithCurrentOffset(value int64) zap.Field {
	return zap.Int64(FieldCurrentOffset, value)
}

// WithConsumedOffset sets the consumed-offset field.
func WithConsumedOffset(value int64) zap.Field {
	return zap.Int64(FieldConsumedOffset, value)
}

// WithMinOffset sets the min-offset field.
func WithMinOffset(value int64) zap.Field {
	return zap.Int64(FieldMinOffset, value)
}

// WithMessagePosition sets the message-position field.
func WithMessagePosition(value int64) zap.Field {
	return zap.Int64(FieldMessagePosition, value)
}

// WithIndexCount sets the index-count field.
func WithIndexCount(value int64) zap.Field {
	return zap.Int64(FieldIndexCount, value)
}

// WithUnconsumedCount sets the unconsumed-count field.
func WithUnconsumedCount(value int64) zap.Field {
	return zap.Int64(FieldUnconsumedCount, value)
}

// WithRemovedCount sets the removed-count field.
func WithRemovedCount(value int64) zap.Field {
	return zap.Int64(FieldRemovedCount, value)
}

// WithExceedCount sets the exceed-count field.
func WithExceedCount(value int64) zap.Field {
	return zap.Int64(FieldExceedCount, value)
}

// WithMaxCacheSize sets the max-cache-size field.
func WithMaxCacheSize(value int64) zap.Field {
	return zap.Int64(FieldMaxCacheSize, value)
}

// WithBasePath sets the base-path field.
func WithBasePath(value string) zap.Field {
	return zap.String(FieldBasePath, value)
}

// WithPath sets the path field.
func WithPath(value string) zap.Field {
	return zap.String(FieldPath, value)
}

// WithTaskID sets the task-id field.
func WithTaskID(value string) zap.Field {
	return zap.String(FieldTaskID, value)
}

// WithTaskInterval sets the task-interval field.
func WithTaskInterval(value time.Duration) zap.Field {
	return zap.Duration(FieldTaskInterval, value)
}

// WithInstanceID sets the instance-id field.
func WithInstanceID(value string) zap.Field {
	return zap.String(FieldInstanceID, value)
}

// WithStoreName sets the store-name field.
func WithStoreName(value string) zap.Field {
	return zap.String(FieldStoreName, value)
}

// WithConsumerGroup sets the consumer-group field.
func WithConsumerGroup(value string) zap.Field {
	return zap.String(FieldConsumerGroup, value)
}

// WithEventType sets the event-type field.
func WithEventType(value string) zap.Field {
	return zap.String(FieldEventType, value)
}

// WithEventID sets the event-id field.
func WithEventID(value string) zap.Field {
	return zap.String(FieldEventID, value)
}

// WithMessageID sets the message-id field.
func WithMessageID(value string) zap.Field {
	return zap.String(FieldMessageID, value)
}

// WithTotal sets the total field.
func WithTotal(value int) zap.Field {
	return zap.Int(FieldTotal, value)
}

// WithDuration sets the duration field.
func WithDuration(value time.Duration) zap.Field {
	return zap.Duration(FieldDuration, value)
}
