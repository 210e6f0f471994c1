// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scoped_test

import (
	"os"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/internal/scoped"
	"github.com/gomlx/opparity/pkg/support/advisory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func TestSetenv(t *testing.T) {
	const key = "PARITY_SCOPED_TEST"
	require.NoError(t, os.Unsetenv(key))
	func() {
		defer scoped.Setenv(key, "outer")()
		assert.Equal(t, "outer", os.Getenv(key))
		func() {
			defer scoped.Setenv(key, "inner")()
			assert.Equal(t, "inner", os.Getenv(key))
		}()
		assert.Equal(t, "outer", os.Getenv(key))
	}()
	_, found := os.LookupEnv(key)
	assert.False(t, found)

	// Restored also when panicking.
	err := exceptions.TryCatch[error](func() {
		defer scoped.Setenv(key, "x")()
		exceptions.Panicf("boom")
	})
	require.Error(t, err)
	_, found = os.LookupEnv(key)
	assert.False(t, found)
}

func TestUnsetenv(t *testing.T) {
	const key = "PARITY_SCOPED_TEST"
	defer scoped.Setenv(key, "outer")()
	func() {
		defer scoped.Unsetenv(key)()
		_, found := os.LookupEnv(key)
		assert.False(t, found)
	}()
	assert.Equal(t, "outer", os.Getenv(key))

	// Not set before: stays unset.
	require.NoError(t, os.Unsetenv(key))
	scoped.Unsetenv(key)()
	_, found := os.LookupEnv(key)
	assert.False(t, found)
}

func TestFallback(t *testing.T) {
	defer scoped.Setenv(backends.PARITY_ENABLE_ACCEL_FALLBACK, "1")()
	func() {
		defer scoped.Fallback(false)()
		assert.False(t, backends.FallbackEnabled())
		_, found := os.LookupEnv(backends.PARITY_ENABLE_ACCEL_FALLBACK)
		assert.False(t, found)
		func() {
			defer scoped.Fallback(true)()
			assert.True(t, backends.FallbackEnabled())
		}()
		assert.False(t, backends.FallbackEnabled())
	}()
	assert.True(t, backends.FallbackEnabled())
}

func TestIntercept(t *testing.T) {
	recorder := &advisory.Recorder{}
	func() {
		defer scoped.Intercept(recorder.Handle)()
		advisory.Emit(advisory.CategoryFallback, "hello")
	}()
	advisory.Emit(advisory.CategoryFallback, "not intercepted")
	assert.Equal(t, []string{"hello"}, recorder.Messages())
}
