/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import "time"

// Default broker settings.
const (
	DefaultTopicMaxQueueCount     = 256
	DefaultTopicDefaultQueueCount = 4
	DefaultQueueIndexMaxCacheSize = 5000000

	DefaultRemoveConsumedQueueIndexInterval       = 30 * time.Second
	DefaultRemoveExceedMaxCacheQueueIndexInterval = 30 * time.Second
)

// QueueChunk holds the on-disk layout settings for queue index chunks.
type QueueChunk struct {
	// BasePath is the filesystem root holding the <basePath>/<topic>/<queueId> directory layout.
	BasePath string
}

// Broker holds global broker configuration.
type Broker struct {
	// TopicMaxQueueCount is the upper bound on the number of queues per topic.
	TopicMaxQueueCount int

	// TopicDefaultQueueCount is the number of queues created when a topic is auto-created.
	TopicDefaultQueueCount int

	// AutoCreateTopic, if true, causes GetOrCreateQueues to create an unknown topic on demand.
	AutoCreateTopic bool

	// QueueChunkConfig holds the on-disk chunk layout settings.
	QueueChunkConfig QueueChunk

	// RemoveConsumedQueueIndexInterval is the tick period of the consumed-index reclamation task.
	RemoveConsumedQueueIndexInterval time.Duration

	// RemoveExceedMaxCacheQueueIndexInterval is the tick period of the exceed-cache eviction task.
	RemoveExceedMaxCacheQueueIndexInterval time.Duration

	// QueueIndexMaxCacheSize is the ceiling on the aggregate number of resident queue index entries.
	QueueIndexMaxCacheSize int64
}

// NewBroker returns a broker configuration with the given chunk base path and
// all other settings at their defaults.
func NewBroker(basePath string) *Broker {
	return &Broker{
		TopicMaxQueueCount:                     DefaultTopicMaxQueueCount,
		TopicDefaultQueueCount:                 DefaultTopicDefaultQueueCount,
		AutoCreateTopic:                        true,
		QueueChunkConfig:                       QueueChunk{BasePath: basePath},
		RemoveConsumedQueueIndexInterval:       DefaultRemoveConsumedQueueIndexInterval,
		RemoveExceedMaxCacheQueueIndexInterval: DefaultRemoveExceedMaxCacheQueueIndexInterval,
		QueueIndexMaxCacheSize:                 DefaultQueueIndexMaxCacheSize,
	}
}
