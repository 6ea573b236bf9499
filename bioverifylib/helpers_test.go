// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package bioverifylib

import (
	"testing"

	"github.com/nixomose/bioverifygo/bioverifycmd/devices"
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/stretchr/testify/require"
)

const test_block_size uint32 = 512
const test_block_count uint64 = 4
const test_erase_byte byte = 0xff

func make_test_log() *tools.Nixomosetools_logger {
	return tools.New_Nixomosetools_logger(tools.DEBUG)
}

// a 4 block, 512 bytes per block ramdisk erased to 0xff, the device from the scenarios.
func make_test_device(t *testing.T) (*tools.Nixomosetools_logger, *devices.Ramdiskdevice) {
	var log = make_test_log()
	var ret, device = devices.New_ramdiskdevice(log, test_block_size, test_block_count, []byte{test_erase_byte})
	require.Nil(t, ret)
	require.NotNil(t, device)
	return log, device
}

// read one block straight off the device, failing the test if the read doesn't work.
func read_block(t *testing.T, device *devices.Ramdiskdevice, block_num uint64) []byte {
	var buffer = make([]byte, device.Get_block_size())
	var n, ret = device.Read_blocks(block_num, 1, buffer)
	require.Nil(t, ret)
	require.Equal(t, device.Get_block_size(), n)
	return buffer
}
