/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k := Key{Topic: "topic1", QueueID: 3}

	require.Equal(t, "topic1-3", k.String())

	// A topic containing the separator does not collide with another key,
	// since the struct is the map key, not the formatted string.
	k1 := Key{Topic: "a-1", QueueID: 2}
	k2 := Key{Topic: "a", QueueID: 1}

	require.NotEqual(t, k1, k2)
}

func TestRegistry(t *testing.T) {
	basePath := t.TempDir()

	t.Run("TryPut, Get, Contains, Remove", func(t *testing.T) {
		r := NewRegistry()

		q := New("topic1", 0, basePath)

		require.True(t, r.TryPut(q))
		require.Equal(t, 1, r.Size())
		require.True(t, r.Contains(q.Key()))
		require.Equal(t, q, r.Get(q.Key()))

		// An existing queue is never displaced.
		other := New("topic1", 0, basePath)
		require.False(t, r.TryPut(other))
		require.Equal(t, q, r.Get(q.Key()))

		require.Equal(t, q, r.Remove(q.Key()))
		require.Nil(t, r.Remove(q.Key()))
		require.False(t, r.Contains(q.Key()))
		require.Nil(t, r.Get(q.Key()))
	})

	t.Run("Values and Clear", func(t *testing.T) {
		r := NewRegistry()

		require.Empty(t, r.Values())

		require.True(t, r.TryPut(New("topic1", 0, basePath)))
		require.True(t, r.TryPut(New("topic1", 1, basePath)))
		require.True(t, r.TryPut(New("topic2", 0, basePath)))

		require.Len(t, r.Values(), 3)
		require.Equal(t, 3, r.Size())

		r.Clear()

		require.Zero(t, r.Size())
		require.Empty(t, r.Values())
	})
}
