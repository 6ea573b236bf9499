// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package bioverifylib

/* Get_signature maps a block number to the single content byte the write test
fills that block with. We pull the four bytes out of the 32 bit block number
with explicit shifts, low order byte first, and xor them together. Shifting
instead of pointer games means the answer is the same no matter what endianness
the machine is.
Collisions are fine and expected, this is a cheap tag for catching blocks that
got written to the wrong address, not a hash. Two block numbers whose differing
bytes xor away give the same signature and that's the deal we signed up for. */
func Get_signature(block_num uint32) byte {
	var b0 byte = byte(block_num & 0xff)
	var b1 byte = byte((block_num >> 8) & 0xff)
	var b2 byte = byte((block_num >> 16) & 0xff)
	var b3 byte = byte((block_num >> 24) & 0xff)
	return b0 ^ b1 ^ b2 ^ b3
}
