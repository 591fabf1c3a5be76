// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/tagtree/pkg/pointer"
)

func TestFallback(t *testing.T) {
	assert.Equal(t, "root", pointer.Fallback(nil, "root"))
	assert.Equal(t, "t1", pointer.Fallback(pointer.To("t1"), "root"))
}

func TestEqual(t *testing.T) {
	assert.True(t, pointer.Equal[string](nil, nil))
	assert.True(t, pointer.Equal(pointer.To("a"), pointer.To("a")))
	assert.False(t, pointer.Equal(pointer.To("a"), pointer.To("b")))
	assert.False(t, pointer.Equal(pointer.To("a"), nil))
	assert.False(t, pointer.Equal(nil, pointer.To("a")))
}
