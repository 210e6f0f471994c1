/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package scoped provides guards that change process-wide configuration (environment variables,
// the advisory handler) and return a function that restores the previous state.
//
// Use them with defer, so the state is restored on every exit path, including panics:
//
//	defer scoped.Fallback(true)()
//	defer scoped.Intercept(recorder.Handle)()
//
// Nested guards restore in LIFO order.
package scoped

import (
	"os"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/support/advisory"
	"k8s.io/klog/v2"
)

// Setenv sets the environment variable key to value, and returns a function that restores
// its previous value, or unsets it if it was not set.
func Setenv(key, value string) (restore func()) {
	previous, wasSet := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		klog.Errorf("failed to set %s=%q: %+v", key, value, err)
	}
	return func() {
		var err error
		if wasSet {
			err = os.Setenv(key, previous)
		} else {
			err = os.Unsetenv(key)
		}
		if err != nil {
			klog.Errorf("failed to restore %s: %+v", key, err)
		}
	}
}

// Unsetenv unsets the environment variable key, and returns a function that restores it.
func Unsetenv(key string) (restore func()) {
	previous, wasSet := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		klog.Errorf("failed to unset %s: %+v", key, err)
	}
	return func() {
		if !wasSet {
			return
		}
		if err := os.Setenv(key, previous); err != nil {
			klog.Errorf("failed to restore %s: %+v", key, err)
		}
	}
}

// Fallback enables or disables the accelerator fallback to the reference kernels, see
// backends.PARITY_ENABLE_ACCEL_FALLBACK. Disabling unsets the variable.
func Fallback(enabled bool) (restore func()) {
	if !enabled {
		return Unsetenv(backends.PARITY_ENABLE_ACCEL_FALLBACK)
	}
	return Setenv(backends.PARITY_ENABLE_ACCEL_FALLBACK, "1")
}

// Intercept routes all advisory messages to handler, and returns a function that reinstates
// the previous handler.
func Intercept(handler advisory.Handler) (restore func()) {
	previous := advisory.SetHandler(handler)
	return func() {
		advisory.SetHandler(previous)
	}
}
