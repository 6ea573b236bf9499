// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package devices

import (
	"syscall"

	"github.com/nixomose/bioverifygo/bioverifylib/bioverifyinterfaces"
	"github.com/nixomose/nixomosegotools/tools"
)

var _ bioverifyinterfaces.Block_device = &Ramdiskdevice{}
var _ bioverifyinterfaces.Block_device = (*Ramdiskdevice)(nil)

type Ramdiskdevice struct {
	/* For testing the verify engine without risking real media we make a simple
	ramdisk. Blocks live in a map keyed by block number, a block that's never
	been written (or got erased) isn't in the map at all and reads back as the
	erase pattern, which is exactly what erased flash would do. */

	m_log           *tools.Nixomosetools_logger
	m_block_size    uint32
	m_block_count   uint64
	m_erase_pattern []byte
	ramdisk         map[uint64][]byte
}

func New_ramdiskdevice(log *tools.Nixomosetools_logger, block_size uint32, block_count uint64,
	erase_pattern []byte) (tools.Ret, *Ramdiskdevice) {
	if block_size == 0 {
		return tools.ErrorWithCode(log, int(syscall.EINVAL), "ramdisk block size can not be zero"), nil
	}
	if len(erase_pattern) < 1 || len(erase_pattern) > 4 {
		return tools.ErrorWithCode(log, int(syscall.EINVAL),
			"ramdisk erase pattern must be 1 to 4 bytes, got ", len(erase_pattern)), nil
	}

	var ret Ramdiskdevice
	ret.m_log = log
	ret.m_block_size = block_size
	ret.m_block_count = block_count
	ret.m_erase_pattern = append([]byte{}, erase_pattern...)
	ret.ramdisk = make(map[uint64][]byte)
	return nil, &ret
}

func (this *Ramdiskdevice) Get_block_size() uint32 {
	return this.m_block_size
}

func (this *Ramdiskdevice) Get_block_count() uint64 {
	return this.m_block_count
}

func (this *Ramdiskdevice) Get_total_size() uint64 {
	return uint64(this.m_block_size) * this.m_block_count
}

func (this *Ramdiskdevice) Get_erase_pattern() []byte {
	return this.m_erase_pattern
}

func (this *Ramdiskdevice) Get_alignment() uint32 {
	// it's all just memory, any buffer will do.
	return 1
}

// fill one block's worth of buf with the erase pattern, cyclically.
func (this *Ramdiskdevice) fill_with_erase_pattern(buf []byte) {
	for i := range buf {
		buf[i] = this.m_erase_pattern[i%len(this.m_erase_pattern)]
	}
}

func (this *Ramdiskdevice) check_block_range(block_num uint64, count uint32, data []byte) tools.Ret {
	if count == 0 {
		return tools.ErrorWithCode(this.m_log, int(syscall.EINVAL), "zero block count")
	}
	if block_num+uint64(count) > this.m_block_count {
		return tools.ErrorWithCode(this.m_log, int(syscall.ERANGE), "request for ", count,
			" block(s) at ", block_num, " runs past the end of a ", this.m_block_count, " block device")
	}
	if len(data) < int(count)*int(this.m_block_size) {
		return tools.ErrorWithCode(this.m_log, int(syscall.EINVAL), "buffer of ", len(data),
			" bytes is too small for ", count, " block(s) of ", this.m_block_size, " bytes")
	}
	return nil
}

func (this *Ramdiskdevice) Read_blocks(block_num uint64, count uint32, data []byte) (uint32, tools.Ret) {
	var r = this.check_block_range(block_num, count, data)
	if r != nil {
		return 0, r
	}

	var start_copy_location = 0
	for blocks_left := count; blocks_left > 0; blocks_left-- {
		var dest = data[start_copy_location : start_copy_location+int(this.m_block_size)]
		var block, found = this.ramdisk[block_num]
		if found == false {
			this.fill_with_erase_pattern(dest)
		} else {
			var copied int = copy(dest, block)
			if copied != int(this.m_block_size) {
				return uint32(start_copy_location), tools.ErrorWithCode(this.m_log, int(syscall.ENODATA),
					"unable to copy block ", block_num, " from ramdisk, only copied: ", copied)
			}
		}
		block_num++
		start_copy_location += int(this.m_block_size)
	}

	return count * this.m_block_size, nil
}

func (this *Ramdiskdevice) Write_blocks(block_num uint64, count uint32, data []byte) (uint32, tools.Ret) {
	var r = this.check_block_range(block_num, count, data)
	if r != nil {
		return 0, r
	}

	var start_copy_location = 0
	for blocks_left := count; blocks_left > 0; blocks_left-- {
		var block []byte = make([]byte, this.m_block_size)
		var copied int = copy(block, data[start_copy_location:start_copy_location+int(this.m_block_size)])
		if copied != int(this.m_block_size) {
			return uint32(start_copy_location), tools.ErrorWithCode(this.m_log, int(syscall.ENODATA),
				"unable to copy data to write to ramdisk, only copied: ", copied)
		}
		this.ramdisk[block_num] = block
		block_num++
		start_copy_location += int(this.m_block_size)
	}

	return count * this.m_block_size, nil
}

func (this *Ramdiskdevice) Erase(start_in_bytes uint64, length uint64) (uint64, tools.Ret) {
	/* erasing a block just drops it from the map, reads of an absent block
	come back as the erase pattern which is the definition of erased. only
	whole block ranges, the caller is supposed to know the geometry. */

	if start_in_bytes%uint64(this.m_block_size) != 0 || length%uint64(this.m_block_size) != 0 {
		return 0, tools.ErrorWithCode(this.m_log, int(syscall.EINVAL),
			"erase range ", start_in_bytes, "+", length, " is not block aligned, block size is ", this.m_block_size)
	}
	if start_in_bytes+length > this.Get_total_size() {
		return 0, tools.ErrorWithCode(this.m_log, int(syscall.ERANGE),
			"erase range ", start_in_bytes, "+", length, " runs past the end of the device")
	}

	var first_block uint64 = start_in_bytes / uint64(this.m_block_size)
	var block_count uint64 = length / uint64(this.m_block_size)
	for block_num := first_block; block_num < first_block+block_count; block_num++ {
		delete(this.ramdisk, block_num)
	}

	return length, nil
}
