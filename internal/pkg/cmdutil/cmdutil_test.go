/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package cmdutil_test

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/zquans/equeue/internal/pkg/cmdutil"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{}

	cmd.Flags().String("flag1", "", "")

	return cmd
}

func TestGetUserSetVarFromString(t *testing.T) {
	t.Run("From flag", func(t *testing.T) {
		cmd := newCmd()
		require.NoError(t, cmd.Flags().Set("flag1", "value1"))

		value, err := cmdutil.GetUserSetVarFromString(cmd, "flag1", "TEST_ENV_KEY1", false)
		require.NoError(t, err)
		require.Equal(t, "value1", value)
	})

	t.Run("From environment", func(t *testing.T) {
		t.Setenv("TEST_ENV_KEY1", "envValue1")

		value, err := cmdutil.GetUserSetVarFromString(newCmd(), "flag1", "TEST_ENV_KEY1", false)
		require.NoError(t, err)
		require.Equal(t, "envValue1", value)
	})

	t.Run("Required but not set -> error", func(t *testing.T) {
		_, err := cmdutil.GetUserSetVarFromString(newCmd(), "flag1", "TEST_ENV_KEY_UNSET", false)
		require.Error(t, err)
		require.Contains(t, err.Error(), "have been set")
	})

	t.Run("Optional and not set", func(t *testing.T) {
		value := cmdutil.GetUserSetOptionalVarFromString(newCmd(), "flag1", "TEST_ENV_KEY_UNSET")
		require.Empty(t, value)
	})
}

func TestGetBool(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		value, err := cmdutil.GetBool(newCmd(), "flag1", "TEST_ENV_KEY_UNSET", true)
		require.NoError(t, err)
		require.True(t, value)
	})

	t.Run("From environment", func(t *testing.T) {
		t.Setenv("TEST_BOOL_KEY", "false")

		value, err := cmdutil.GetBool(newCmd(), "flag1", "TEST_BOOL_KEY", true)
		require.NoError(t, err)
		require.False(t, value)
	})

	t.Run("Invalid -> error", func(t *testing.T) {
		t.Setenv("TEST_BOOL_KEY", "not-a-bool")

		_, err := cmdutil.GetBool(newCmd(), "flag1", "TEST_BOOL_KEY", true)
		require.Error(t, err)
	})
}

func TestGetDuration(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		value, err := cmdutil.GetDuration(newCmd(), "flag1", "TEST_ENV_KEY_UNSET", 10*time.Second)
		require.NoError(t, err)
		require.Equal(t, 10*time.Second, value)
	})

	t.Run("From environment", func(t *testing.T) {
		t.Setenv("TEST_DURATION_KEY", "30s")

		value, err := cmdutil.GetDuration(newCmd(), "flag1", "TEST_DURATION_KEY", 10*time.Second)
		require.NoError(t, err)
		require.Equal(t, 30*time.Second, value)
	})

	t.Run("Invalid -> error", func(t *testing.T) {
		t.Setenv("TEST_DURATION_KEY", "not-a-duration")

		_, err := cmdutil.GetDuration(newCmd(), "flag1", "TEST_DURATION_KEY", 10*time.Second)
		require.Error(t, err)
	})
}

func TestGetInt(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		value, err := cmdutil.GetInt(newCmd(), "flag1", "TEST_ENV_KEY_UNSET", 7)
		require.NoError(t, err)
		require.Equal(t, 7, value)
	})

	t.Run("From environment", func(t *testing.T) {
		t.Setenv("TEST_INT_KEY", "42")

		value, err := cmdutil.GetInt(newCmd(), "flag1", "TEST_INT_KEY", 7)
		require.NoError(t, err)
		require.Equal(t, 42, value)
	})

	t.Run("Invalid -> error", func(t *testing.T) {
		t.Setenv("TEST_INT_KEY", "not-an-int")

		_, err := cmdutil.GetInt(newCmd(), "flag1", "TEST_INT_KEY", 7)
		require.Error(t, err)
	})
}

func TestGetInt64(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		value, err := cmdutil.GetInt64(newCmd(), "flag1", "TEST_ENV_KEY_UNSET", 5000000)
		require.NoError(t, err)
		require.Equal(t, int64(5000000), value)
	})

	t.Run("From environment", func(t *testing.T) {
		t.Setenv("TEST_INT64_KEY", "123456789012")

		value, err := cmdutil.GetInt64(newCmd(), "flag1", "TEST_INT64_KEY", 0)
		require.NoError(t, err)
		require.Equal(t, int64(123456789012), value)
	})

	t.Run("Invalid -> error", func(t *testing.T) {
		t.Setenv("TEST_INT64_KEY", "not-an-int")

		_, err := cmdutil.GetInt64(newCmd(), "flag1", "TEST_INT64_KEY", 0)
		require.Error(t, err)
	})
}
