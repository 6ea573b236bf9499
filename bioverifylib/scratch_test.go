// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package bioverifylib

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buffer_address(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(&buf[0]))
}

func Test_aligned_buffer_respects_alignment(t *testing.T) {
	var alignments = []uint32{2, 4, 8, 64, 512, 4096}
	for _, alignment := range alignments {
		var buf = Make_aligned_buffer(512, alignment)
		require.Equal(t, 512, len(buf))
		assert.Zero(t, buffer_address(buf)%uintptr(alignment),
			"buffer for alignment %d not aligned", alignment)
	}
}

func Test_aligned_buffer_dont_care_alignment(t *testing.T) {
	var buf = Make_aligned_buffer(512, 1)
	assert.Equal(t, 512, len(buf))
	buf = Make_aligned_buffer(512, 0)
	assert.Equal(t, 512, len(buf))
}

func Test_aligned_buffer_non_power_of_two(t *testing.T) {
	// nothing sane to do with alignment 3, we just hand back a plain buffer.
	var buf = Make_aligned_buffer(100, 3)
	assert.Equal(t, 100, len(buf))
}

func Test_aligned_buffer_starts_zeroed(t *testing.T) {
	var buf = Make_aligned_buffer(4096, 4096)
	for i := range buf {
		require.Zero(t, buf[i], "fresh scratch buffer dirty at byte %d", i)
	}
}
