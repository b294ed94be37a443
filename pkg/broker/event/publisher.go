/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package event

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/zquans/equeue/internal/pkg/log"
)

var logger = log.New("queue-events")

type pubSub interface {
	Publish(topic string, messages ...*message.Message) error
}

// Publisher publishes queue admin events to the admin topic.
type Publisher struct {
	pubSub pubSub
}

// NewPublisher returns a new admin event publisher.
func NewPublisher(pubSub pubSub) *Publisher {
	return &Publisher{pubSub: pubSub}
}

// Publish publishes the given event. The returned error indicates only that the
// event could not be handed off to the publisher; delivery is asynchronous.
func (p *Publisher) Publish(e *Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event [%s]: %w", e.ID, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.pubSub.Publish(AdminTopic, msg); err != nil {
		return fmt.Errorf("publish event [%s]: %w", e.ID, err)
	}

	logger.Debug("Published queue admin event", logfields.WithEventID(e.ID),
		logfields.WithEventType(string(e.Type)), logfields.WithTopic(e.Topic),
		logfields.WithQueueID(e.QueueID))

	return nil
}
