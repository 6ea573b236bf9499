// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package bioverifylib

import (
	"fmt"
	"syscall"

	"github.com/nixomose/bioverifygo/bioverifylib/bioverifyinterfaces"
	"github.com/nixomose/nixomosegotools/tools"
)

var _ bioverifyinterfaces.Block_device = &Fault_device{}

/* Fault_device wraps a real device and injects the failures a flaky piece of
hardware would produce: read errors, short reads, write errors, erase errors,
short erases and single bit rot on the way back from media. All the knobs are
off by default, set the block number knobs to -1 meaning never. */
type Fault_device struct {
	m_log   *tools.Nixomosetools_logger
	m_inner bioverifyinterfaces.Block_device

	fail_read_at_block  int64           // reads of this block return an error
	short_read_at_block int64           // reads of this block return half the bytes
	fail_write_at_block int64           // writes of this block return an error
	fail_erase          bool            // erase returns an error
	short_erase_bytes   uint64          // if nonzero, erase reports this many bytes instead of the real count
	corrupt_read_blocks map[uint64]bool // blocks whose content gets one byte flipped on read
	corrupt_after_write map[uint64]bool // like corrupt_read_blocks but only once a write has happened

	reads_attempted  uint64
	writes_attempted uint64
	erases_attempted uint64
	op_order         []string // "read 3", "write 0", "erase", in call order
}

func New_fault_device(log *tools.Nixomosetools_logger, inner bioverifyinterfaces.Block_device) *Fault_device {
	var f Fault_device
	f.m_log = log
	f.m_inner = inner
	f.fail_read_at_block = -1
	f.short_read_at_block = -1
	f.fail_write_at_block = -1
	f.corrupt_read_blocks = make(map[uint64]bool)
	f.corrupt_after_write = make(map[uint64]bool)
	return &f
}

/* make block_num rot on read, but only once the write phase has started, so the
erase phase's validation scan still comes up clean. */
func (this *Fault_device) corrupt_write_validation_only(block_num uint64) {
	this.corrupt_after_write[block_num] = true
}

func (this *Fault_device) Get_block_size() uint32    { return this.m_inner.Get_block_size() }
func (this *Fault_device) Get_block_count() uint64   { return this.m_inner.Get_block_count() }
func (this *Fault_device) Get_total_size() uint64    { return this.m_inner.Get_total_size() }
func (this *Fault_device) Get_erase_pattern() []byte { return this.m_inner.Get_erase_pattern() }
func (this *Fault_device) Get_alignment() uint32     { return this.m_inner.Get_alignment() }

func (this *Fault_device) Read_blocks(block_num uint64, count uint32, data []byte) (uint32, tools.Ret) {
	this.reads_attempted++
	this.op_order = append(this.op_order, fmt.Sprint("read ", block_num))
	if this.fail_read_at_block >= 0 && block_num == uint64(this.fail_read_at_block) {
		return 0, tools.ErrorWithCode(this.m_log, int(syscall.EIO), "injected read failure at block ", block_num)
	}
	var n, ret = this.m_inner.Read_blocks(block_num, count, data)
	if ret != nil {
		return n, ret
	}
	if this.short_read_at_block >= 0 && block_num == uint64(this.short_read_at_block) {
		return n / 2, nil
	}
	if this.corrupt_read_blocks[block_num] {
		data[7] ^= 0x01
	}
	if this.corrupt_after_write[block_num] && this.writes_attempted > 0 {
		data[7] ^= 0x01
	}
	return n, nil
}

func (this *Fault_device) Write_blocks(block_num uint64, count uint32, data []byte) (uint32, tools.Ret) {
	this.writes_attempted++
	this.op_order = append(this.op_order, fmt.Sprint("write ", block_num))
	if this.fail_write_at_block >= 0 && block_num == uint64(this.fail_write_at_block) {
		return 0, tools.ErrorWithCode(this.m_log, int(syscall.EIO), "injected write failure at block ", block_num)
	}
	return this.m_inner.Write_blocks(block_num, count, data)
}

func (this *Fault_device) Erase(start_in_bytes uint64, length uint64) (uint64, tools.Ret) {
	this.erases_attempted++
	this.op_order = append(this.op_order, "erase")
	if this.fail_erase {
		return 0, tools.ErrorWithCode(this.m_log, int(syscall.EIO), "injected erase failure")
	}
	var erased, ret = this.m_inner.Erase(start_in_bytes, length)
	if ret != nil {
		return erased, ret
	}
	if this.short_erase_bytes != 0 {
		return this.short_erase_bytes, nil
	}
	return erased, nil
}
