/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mock"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s, err := Open(mem.NewProvider(), "namespace1",
			NewTagGroup("tag1", "tag2"), NewTagGroup("tag2", "tag3"))
		require.NoError(t, err)
		require.NotNil(t, s)
	})

	t.Run("Open store error", func(t *testing.T) {
		provider := &mock.Provider{ErrOpenStore: errors.New("injected open error")}

		s, err := Open(provider, "namespace1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "injected open error")
		require.Nil(t, s)
	})

	t.Run("Set store config error", func(t *testing.T) {
		provider := &mock.Provider{ErrSetStoreConfig: errors.New("injected config error")}

		s, err := Open(provider, "namespace1", NewTagGroup("tag1"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "injected config error")
		require.Nil(t, s)
	})
}
