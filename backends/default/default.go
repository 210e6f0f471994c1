// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package _default includes the default backends, namely the reference "cpu" and the "accel" accelerator.
//
// To use it simply include:
//
//	import _ "github.com/gomlx/opparity/backends/default"
package _default

import (
	_ "github.com/gomlx/opparity/backends/accel"
	_ "github.com/gomlx/opparity/backends/cpu"
)
