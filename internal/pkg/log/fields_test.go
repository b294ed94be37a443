/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/logutil-go/pkg/log"
)

func TestStandardFields(t *testing.T) {
	const module = "test_module"

	t.Run("json fields", func(t *testing.T) {
		stdOut := newMockWriter()

		logger := log.New(module, log.WithStdOut(stdOut), log.WithEncoding(log.JSON))

		logger.Info("Some message",
			WithTopic("topic1"), WithQueueID(3), WithQueueKey("topic1-3"),
			WithQueueStatus("Enabled"), WithQueueCount(4),
			WithQueueOffset(100), WithCurrentOffset(200), WithConsumedOffset(50),
			WithMinOffset(51), WithMessagePosition(40960),
			WithIndexCount(1000), WithUnconsumedCount(150), WithRemovedCount(30),
			WithExceedCount(500), WithMaxCacheSize(1048576),
			WithBasePath("/var/equeue/queues"), WithPath("/var/equeue/queues/topic1/3"),
			WithTaskID("task1"), WithTaskInterval(30*time.Second), WithInstanceID("inst1"),
			WithStoreName("queue"), WithConsumerGroup("group1"),
			WithEventType("QueueAdded"), WithEventID("event1"), WithMessageID("msg1"),
			WithTotal(12), WithDuration(5*time.Second),
		)

		l := unmarshalLogData(t, stdOut.Bytes())

		require.Equal(t, "Some message", l.Msg)
		require.Equal(t, "topic1", l.Topic)
		require.Equal(t, 3, l.QueueID)
		require.Equal(t, "topic1-3", l.QueueKey)
		require.Equal(t, "Enabled", l.QueueStatus)
		require.Equal(t, 4, l.QueueCount)
		require.Equal(t, int64(100), l.QueueOffset)
		require.Equal(t, int64(200), l.CurrentOffset)
		require.Equal(t, int64(50), l.ConsumedOffset)
		require.Equal(t, int64(51), l.MinOffset)
		require.Equal(t, int64(40960), l.MessagePosition)
		require.Equal(t, int64(1000), l.IndexCount)
		require.Equal(t, int64(150), l.UnconsumedCount)
		require.Equal(t, int64(30), l.RemovedCount)
		require.Equal(t, int64(500), l.ExceedCount)
		require.Equal(t, int64(1048576), l.MaxCacheSize)
		require.Equal(t, "/var/equeue/queues", l.BasePath)
		require.Equal(t, "/var/equeue/queues/topic1/3", l.Path)
		require.Equal(t, "task1", l.TaskID)
		require.Equal(t, "30s", l.TaskInterval)
		require.Equal(t, "inst1", l.InstanceID)
		require.Equal(t, "queue", l.StoreName)
		require.Equal(t, "group1", l.ConsumerGroup)
		require.Equal(t, "QueueAdded", l.EventType)
		require.Equal(t, "event1", l.EventID)
		require.Equal(t, "msg1", l.MessageID)
		require.Equal(t, 12, l.Total)
		require.Equal(t, "5s", l.Duration)
	})

	t.Run("error field", func(t *testing.T) {
		stdOut := newMockWriter()

		logger := log.New(module, log.WithStdOut(stdOut), log.WithStdErr(stdOut), log.WithEncoding(log.JSON))

		logger.Error("Some error", WithError(errors.New("injected error")))

		require.Contains(t, stdOut.String(), "injected error")
	})
}

type logData struct {
	Level  string `json:"level"`
	Time   string `json:"time"`
	Logger string `json:"logger"`
	Caller string `json:"caller"`
	Msg    string `json:"msg"`
	Error  string `json:"error"`

	Topic           string `json:"topic"`
	QueueID         int    `json:"queue-id"`
	QueueKey        string `json:"queue-key"`
	QueueStatus     string `json:"queue-status"`
	QueueCount      int    `json:"queue-count"`
	QueueOffset     int64  `json:"queue-offset"`
	CurrentOffset   int64  `json:"current-offset"`
	ConsumedOffset  int64  `json:"consumed-offset"`
	MinOffset       int64  `json:"min-offset"`
	MessagePosition int64  `json:"message-position"`
	IndexCount      int64  `json:"index-count"`
	UnconsumedCount int64  `json:"unconsumed-count"`
	RemovedCount    int64  `json:"removed-count"`
	ExceedCount     int64  `json:"exceed-count"`
	MaxCacheSize    int64  `json:"max-cache-size"`
	BasePath        string `json:"base-path"`
	Path            string `json:"path"`
	TaskID          string `json:"task-id"`
	TaskInterval    string `json:"task-interval"`
	InstanceID      string `json:"instance-id"`
	StoreName       string `json:"store-name"`
	ConsumerGroup   string `json:"consumer-group"`
	EventType       string `json:"event-type"`
	EventID         string `json:"event-id"`
	MessageID       string `json:"message-id"`
	Total           int    `json:"total"`
	Duration        string `json:"duration"`
}

func unmarshalLogData(t *testing.T, b []byte) *logData {
	t.Helper()

	l := &logData{}

	require.NoError(t, json.Unmarshal(b, l))

	return l
}

type mockWriter struct {
	*bytes.Buffer
}

func (m *mockWriter) Sync() error {
	return nil
}

func newMockWriter() *mockWriter {
	return &mockWriter{Buffer: bytes.NewBuffer(nil)}
}
