// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* The write phase stamps every block with its signature byte and then walks the
whole device again checking that every block reads back as what we wrote. The
write loop finishes completely before the first validation read happens, so a
device that serves reads out of a write cache instead of media gets no help from
request interleaving. */

package bioverifylib

import (
	"syscall"

	"github.com/nixomose/bioverifygo/bioverifylib/bioverifyinterfaces"
	"github.com/nixomose/nixomosegotools/tools"
)

type Write_phase struct {
	m_log       *tools.Nixomosetools_logger
	m_device    bioverifyinterfaces.Block_device
	m_validator Block_validator
}

func New_write_phase(log *tools.Nixomosetools_logger, device bioverifyinterfaces.Block_device) Write_phase {
	var w Write_phase
	w.m_log = log
	w.m_device = device
	w.m_validator = New_block_validator(log)
	return w
}

/* Run writes the per-block signature to every block in ascending order, one
single-block write each. The first write that fails or comes up short kills the
phase with a ret, no retries, no skipping ahead, a device that can't take writes
has nothing further to tell us.
After all the writes land we rescan all the blocks in ascending order against
their recomputed signatures. Like the erase phase, the validation scan always
runs to the end and returns a complete defect count. */
func (this *Write_phase) Run() (defects uint64, ret tools.Ret) {
	var block_size uint32 = this.m_device.Get_block_size()
	var block_count uint64 = this.m_device.Get_block_count()

	this.m_log.Info("writing signatures to ", block_count, " blocks...")

	var test_buffer []byte = Make_aligned_buffer(block_size, this.m_device.Get_alignment())
	for block_num := uint64(0); block_num < block_count; block_num++ {
		var sig byte = Get_signature(uint32(block_num))
		for i := range test_buffer {
			test_buffer[i] = sig
		}

		var written, r = this.m_device.Write_blocks(block_num, 1, test_buffer)
		if r != nil {
			return 0, tools.ErrorWithCode(this.m_log, r.Get_errcode(),
				"error writing signature to block ", block_num, ": ", r.Get_errmsg())
		}
		if written != block_size {
			return 0, tools.ErrorWithCode(this.m_log, int(syscall.EIO),
				"short write to block ", block_num, ", wanted ", block_size, " bytes, wrote ", written)
		}
	}

	this.m_log.Info("validating writes...")

	var num_errors uint64 = 0
	var expected_pattern [1]byte
	for block_num := uint64(0); block_num < block_count; block_num++ {
		expected_pattern[0] = Get_signature(uint32(block_num))
		var valid, vret = this.m_validator.Is_valid_block(this.m_device, block_num, expected_pattern[:])
		if vret != nil {
			this.m_log.Error("read failure validating write of block ", block_num, ": ", vret.Get_errmsg())
			num_errors++
			continue
		}
		if valid == false {
			num_errors++
		}
	}

	return num_errors, nil
}
