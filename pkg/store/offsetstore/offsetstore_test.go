/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package offsetstore

import (
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mock"
	"github.com/stretchr/testify/require"

	orberrors "github.com/zquans/equeue/pkg/errors"
)

func TestStore(t *testing.T) {
	t.Run("Update and get min offset", func(t *testing.T) {
		s, err := New(mem.NewProvider())
		require.NoError(t, err)

		require.Equal(t, int64(-1), s.GetMinOffset("topic1", 0))
		require.Zero(t, s.GetConsumerGroupCount())

		require.NoError(t, s.UpdateQueueOffset("group1", "topic1", 0, 100))
		require.NoError(t, s.UpdateQueueOffset("group2", "topic1", 0, 50))
		require.NoError(t, s.UpdateQueueOffset("group1", "topic1", 1, 70))

		require.Equal(t, int64(50), s.GetMinOffset("topic1", 0))
		require.Equal(t, int64(70), s.GetMinOffset("topic1", 1))
		require.Equal(t, 2, s.GetConsumerGroupCount())

		// A group advancing moves the minimum.
		require.NoError(t, s.UpdateQueueOffset("group2", "topic1", 0, 120))
		require.Equal(t, int64(100), s.GetMinOffset("topic1", 0))
	})

	t.Run("Offsets are restored from the store", func(t *testing.T) {
		provider := mem.NewProvider()

		s, err := New(provider)
		require.NoError(t, err)

		require.NoError(t, s.UpdateQueueOffset("group1", "topic1", 0, 10))
		require.NoError(t, s.UpdateQueueOffset("group2", "topic1", 0, 20))

		restored, err := New(provider)
		require.NoError(t, err)

		require.Equal(t, int64(10), restored.GetMinOffset("topic1", 0))
		require.Equal(t, 2, restored.GetConsumerGroupCount())
	})

	t.Run("DeleteQueueOffset", func(t *testing.T) {
		provider := mem.NewProvider()

		s, err := New(provider)
		require.NoError(t, err)

		require.NoError(t, s.UpdateQueueOffset("group1", "topic1", 0, 10))
		require.NoError(t, s.UpdateQueueOffset("group2", "topic1", 0, 20))
		require.NoError(t, s.UpdateQueueOffset("group1", "topic2", 0, 30))

		require.NoError(t, s.DeleteQueueOffset("topic1", 0))

		require.Equal(t, int64(-1), s.GetMinOffset("topic1", 0))
		require.Equal(t, int64(30), s.GetMinOffset("topic2", 0))

		// Deleting a queue with no offsets is a no-op.
		require.NoError(t, s.DeleteQueueOffset("topic1", 0))

		// The deletion is persistent.
		restored, err := New(provider)
		require.NoError(t, err)
		require.Equal(t, int64(-1), restored.GetMinOffset("topic1", 0))
	})

	t.Run("Open store error", func(t *testing.T) {
		_, err := New(&mock.Provider{ErrOpenStore: errors.New("injected open error")})
		require.Error(t, err)
		require.Contains(t, err.Error(), "injected open error")
	})

	t.Run("Query error -> transient", func(t *testing.T) {
		_, err := New(&mock.Provider{
			OpenStoreReturn: &mock.Store{ErrQuery: errors.New("injected query error")},
		})
		require.Error(t, err)
		require.True(t, orberrors.IsTransient(err))
	})

	t.Run("Put error -> transient", func(t *testing.T) {
		s, err := New(&mock.Provider{
			OpenStoreReturn: &mock.Store{
				QueryReturn: &mock.Iterator{},
				ErrPut:      errors.New("injected put error"),
			},
		})
		require.NoError(t, err)

		err = s.UpdateQueueOffset("group1", "topic1", 0, 10)
		require.Error(t, err)
		require.True(t, orberrors.IsTransient(err))
	})

	t.Run("Batch error -> transient", func(t *testing.T) {
		s, err := New(&mock.Provider{
			OpenStoreReturn: &mock.Store{
				QueryReturn: &mock.Iterator{},
				ErrBatch:    errors.New("injected batch error"),
			},
		})
		require.NoError(t, err)

		require.NoError(t, s.UpdateQueueOffset("group1", "topic1", 0, 10))

		err = s.DeleteQueueOffset("topic1", 0)
		require.Error(t, err)
		require.True(t, orberrors.IsTransient(err))
	})
}
