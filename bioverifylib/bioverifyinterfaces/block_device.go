// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

// Package bioverifyinterfaces has a package comment to make the linter happy
package bioverifyinterfaces

import "github.com/nixomose/nixomosegotools/tools"

type Block_device interface {

	/* This is the device the verify engine drives. Whoever opened the device owns it,
	we just borrow it for the duration of a test, we never close it.
	All the read/write/erase calls block until the device comes back with a definite
	answer, and all of them can fail, that's the whole point of this exercise. */

	// number of bytes in one block, this never changes for the life of the device.
	Get_block_size() uint32

	// number of addressable blocks on the device.
	Get_block_count() uint64

	// block size * block count.
	Get_total_size() uint64

	/* the short fill pattern (1-4 bytes) a successfully erased range reads back as,
	repeated cyclically to fill each block. */
	Get_erase_pattern() []byte

	/* required buffer alignment for read/write transfers, in bytes. 1 means the
	device doesn't care. callers hand this to the scratch buffer allocator, there
	is no process wide alignment constant anywhere. */
	Get_alignment() uint32

	/* read count blocks starting at block_num into data, returns the number of
	bytes actually read. a short count with a nil ret is still a failed transfer
	as far as callers are concerned, they check both. */
	Read_blocks(block_num uint64, count uint32, data []byte) (uint32, tools.Ret)

	// write count blocks starting at block_num from data, returns bytes written.
	Write_blocks(block_num uint64, count uint32, data []byte) (uint32, tools.Ret)

	/* erase the byte range [start_in_bytes, start_in_bytes+length), returns the
	number of bytes actually erased. */
	Erase(start_in_bytes uint64, length uint64) (uint64, tools.Ret)
}
