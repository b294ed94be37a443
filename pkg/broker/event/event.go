/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package event

import (
	"time"

	"github.com/google/uuid"
)

// AdminTopic is the pub/sub topic to which queue admin events are published.
const AdminTopic = "queue-admin-events"

// Type is the type of a queue admin event.
type Type string

// Queue admin event types.
const (
	TypeTopicCreated  Type = "TopicCreated"
	TypeQueueAdded    Type = "QueueAdded"
	TypeQueueRemoved  Type = "QueueRemoved"
	TypeQueueEnabled  Type = "QueueEnabled"
	TypeQueueDisabled Type = "QueueDisabled"
)

// Event is a queue admin event. Events are published after the corresponding
// mutation has been applied to the queue store and the registry.
type Event struct {
	ID      string    `json:"id"`
	Type    Type      `json:"type"`
	Topic   string    `json:"topic"`
	QueueID int       `json:"queueId,omitempty"`
	Created time.Time `json:"created"`
}

// New returns a new queue admin event of the given type.
func New(eventType Type, topic string, queueID int) *Event {
	return &Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Topic:   topic,
		QueueID: queueID,
		Created: time.Now(),
	}
}
