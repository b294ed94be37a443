/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package queuestore

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mock"
	"github.com/stretchr/testify/require"

	"github.com/zquans/equeue/pkg/broker/queue"
	orberrors "github.com/zquans/equeue/pkg/errors"
)

func TestStore(t *testing.T) {
	basePath := t.TempDir()

	t.Run("Create, get, update, delete", func(t *testing.T) {
		s, err := New(mem.NewProvider(), basePath,
			WithCacheSize(100), WithCacheLifetime(10*time.Millisecond))
		require.NoError(t, err)

		q := queue.New("topic1", 0, basePath)

		require.NoError(t, s.CreateQueue(q))

		stored, err := s.GetQueue("topic1", 0)
		require.NoError(t, err)
		require.Equal(t, "topic1", stored.Topic())
		require.Equal(t, 0, stored.QueueID())
		require.Equal(t, queue.StatusEnabled, stored.Status())

		// The returned queue is a detached copy.
		require.NotSame(t, q, stored)

		stored.SetStatus(queue.StatusDisabled)
		require.NoError(t, s.UpdateQueue(stored))

		updated, err := s.GetQueue("topic1", 0)
		require.NoError(t, err)
		require.Equal(t, queue.StatusDisabled, updated.Status())

		require.NoError(t, s.DeleteQueue(q))

		_, err = s.GetQueue("topic1", 0)
		require.Error(t, err)
		require.True(t, errors.Is(err, orberrors.ErrQueueNotFound))
	})

	t.Run("Queues by topic", func(t *testing.T) {
		s, err := New(mem.NewProvider(), basePath)
		require.NoError(t, err)

		require.NoError(t, s.CreateQueue(queue.New("topic1", 0, basePath)))
		require.NoError(t, s.CreateQueue(queue.New("topic1", 1, basePath)))
		require.NoError(t, s.CreateQueue(queue.New("topic2", 0, basePath)))

		queues, err := s.Queues("topic1")
		require.NoError(t, err)
		require.Len(t, queues, 2)

		queues, err = s.Queues("unknown")
		require.NoError(t, err)
		require.Empty(t, queues)
	})

	t.Run("Not found", func(t *testing.T) {
		s, err := New(mem.NewProvider(), basePath)
		require.NoError(t, err)

		_, err = s.GetQueue("unknown", 17)
		require.Error(t, err)
		require.True(t, errors.Is(err, orberrors.ErrQueueNotFound))
	})

	t.Run("Open store error", func(t *testing.T) {
		_, err := New(&mock.Provider{ErrOpenStore: errors.New("injected open error")}, basePath)
		require.Error(t, err)
		require.Contains(t, err.Error(), "injected open error")
	})

	t.Run("Get error -> transient", func(t *testing.T) {
		s, err := New(&mock.Provider{
			OpenStoreReturn: &mock.Store{ErrGet: errors.New("injected get error")},
		}, basePath)
		require.NoError(t, err)

		_, err = s.GetQueue("topic1", 0)
		require.Error(t, err)
		require.True(t, orberrors.IsTransient(err))
	})

	t.Run("Put error -> transient", func(t *testing.T) {
		s, err := New(&mock.Provider{
			OpenStoreReturn: &mock.Store{ErrPut: errors.New("injected put error")},
		}, basePath)
		require.NoError(t, err)

		err = s.CreateQueue(queue.New("topic1", 0, basePath))
		require.Error(t, err)
		require.True(t, orberrors.IsTransient(err))
	})

	t.Run("Delete error -> transient", func(t *testing.T) {
		s, err := New(&mock.Provider{
			OpenStoreReturn: &mock.Store{ErrDelete: errors.New("injected delete error")},
		}, basePath)
		require.NoError(t, err)

		err = s.DeleteQueue(queue.New("topic1", 0, basePath))
		require.Error(t, err)
		require.True(t, orberrors.IsTransient(err))
	})

	t.Run("Query error -> transient", func(t *testing.T) {
		s, err := New(&mock.Provider{
			OpenStoreReturn: &mock.Store{ErrQuery: errors.New("injected query error")},
		}, basePath)
		require.NoError(t, err)

		_, err = s.Queues("topic1")
		require.Error(t, err)
		require.True(t, orberrors.IsTransient(err))
	})

	t.Run("Unmarshal error", func(t *testing.T) {
		s, err := New(mem.NewProvider(), basePath)
		require.NoError(t, err)

		require.NoError(t, s.CreateQueue(queue.New("topic1", 0, basePath)))

		errExpected := errors.New("injected unmarshal error")

		s.unmarshal = func([]byte, interface{}) error { return errExpected }

		_, err = s.GetQueue("topic1", 0)
		require.Error(t, err)
		require.Contains(t, err.Error(), errExpected.Error())

		_, err = s.Queues("topic1")
		require.Error(t, err)
		require.Contains(t, err.Error(), errExpected.Error())
	})
}
