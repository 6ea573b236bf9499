// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package bioverifylib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_erase_phase_clean_device(t *testing.T) {
	// scenario: 4 blocks of 512 erased to 0xff, zero defects.
	var log, device = make_test_device(t)

	// dirty the device first so the erase actually has something to do.
	var buffer = make([]byte, test_block_size)
	for block_num := uint64(0); block_num < test_block_count; block_num++ {
		var n, wret = device.Write_blocks(block_num, 1, buffer)
		require.Nil(t, wret)
		require.Equal(t, test_block_size, n)
	}

	var phase = New_erase_phase(log, device)
	var defects, ret = phase.Run()
	require.Nil(t, ret)
	assert.Zero(t, defects)

	// after a zero defect erase phase every block is the fill pattern.
	for block_num := uint64(0); block_num < test_block_count; block_num++ {
		var contents = read_block(t, device, block_num)
		for i, b := range contents {
			require.Equal(t, test_erase_byte, b, "block %d byte %d not erased", block_num, i)
		}
	}
}

func Test_erase_phase_erase_call_failure(t *testing.T) {
	var log, device = make_test_device(t)
	var faulty = New_fault_device(log, device)
	faulty.fail_erase = true

	var phase = New_erase_phase(log, faulty)
	var defects, ret = phase.Run()
	require.NotNil(t, ret)
	assert.Zero(t, defects)
	// an erase failure aborts before any validation read happens.
	assert.Zero(t, faulty.reads_attempted)
}

func Test_erase_phase_short_erase_is_an_io_error(t *testing.T) {
	/* the erase call reports 1024 of the 2048 bytes erased. that must come back
	as an error, never as some defect count. */
	var log, device = make_test_device(t)
	var faulty = New_fault_device(log, device)
	faulty.short_erase_bytes = 1024

	var phase = New_erase_phase(log, faulty)
	var defects, ret = phase.Run()
	require.NotNil(t, ret)
	assert.Zero(t, defects)
	assert.Zero(t, faulty.reads_attempted)
}

func Test_erase_phase_counts_all_defects(t *testing.T) {
	var log, device = make_test_device(t)
	var faulty = New_fault_device(log, device)
	// blocks 0 and 3 rot on the way back, the scan must still cover all four.
	faulty.corrupt_read_blocks[0] = true
	faulty.corrupt_read_blocks[3] = true

	var phase = New_erase_phase(log, faulty)
	var defects, ret = phase.Run()
	require.Nil(t, ret)
	assert.Equal(t, uint64(2), defects)
	assert.Equal(t, uint64(test_block_count), faulty.reads_attempted,
		"the validation scan must not stop at the first bad block")
}

func Test_erase_phase_counts_read_failures_as_defects(t *testing.T) {
	var log, device = make_test_device(t)
	var faulty = New_fault_device(log, device)
	faulty.fail_read_at_block = 2

	var phase = New_erase_phase(log, faulty)
	var defects, ret = phase.Run()
	require.Nil(t, ret, "a per-block read failure is a defect, not a phase abort")
	assert.Equal(t, uint64(1), defects)
	assert.Equal(t, uint64(test_block_count), faulty.reads_attempted)
}
