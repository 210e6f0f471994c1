// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := Make[string](10)
	assert.Zero(t, s.Len())
	s.Insert("userA", "userB", "userA")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("userA"))
	assert.False(t, s.Has("userC"))

	s2 := MakeWith(3, 1, 2, 1)
	assert.Equal(t, 3, s2.Len())
	assert.Equal(t, []int{1, 2, 3}, Sorted(s2))
}
