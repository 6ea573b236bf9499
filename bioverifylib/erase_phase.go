// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* The erase phase erases the whole device in one call and then walks every
block in order checking that it reads back as the device's erase fill pattern. */

package bioverifylib

import (
	"syscall"

	"github.com/nixomose/bioverifygo/bioverifylib/bioverifyinterfaces"
	"github.com/nixomose/nixomosegotools/tools"
)

type Erase_phase struct {
	m_log       *tools.Nixomosetools_logger
	m_device    bioverifyinterfaces.Block_device
	m_validator Block_validator
}

func New_erase_phase(log *tools.Nixomosetools_logger, device bioverifyinterfaces.Block_device) Erase_phase {
	var e Erase_phase
	e.m_log = log
	e.m_device = device
	e.m_validator = New_block_validator(log)
	return e
}

/* Run erases the device and validates the result.
A failed erase call, or an erase that reports fewer bytes than the device's
total size, ends the phase right away with a ret and no defect count, there is
no such thing as silently accepting a partial erase.
Once the erase itself worked, the validation scan always covers every block
from 0 to block_count-1 no matter how many turn out bad, the caller gets a
complete defect count, not a first-failure abort. A block whose validation read
fails counts as one defective block just like a content mismatch does. */
func (this *Erase_phase) Run() (defects uint64, ret tools.Ret) {
	var total_size uint64 = this.m_device.Get_total_size()

	this.m_log.Info("erasing device, ", total_size, " bytes...")

	var erased, r = this.m_device.Erase(0, total_size)
	if r != nil {
		return 0, tools.ErrorWithCode(this.m_log, r.Get_errcode(), "error erasing device: ", r.Get_errmsg())
	}
	if erased != total_size {
		return 0, tools.ErrorWithCode(this.m_log, int(syscall.EIO),
			"short erase, asked for ", total_size, " bytes, device erased ", erased)
	}

	this.m_log.Info("validating erase...")

	var pattern []byte = this.m_device.Get_erase_pattern()
	var num_invalid_blocks uint64 = 0
	var block_count uint64 = this.m_device.Get_block_count()
	for block_num := uint64(0); block_num < block_count; block_num++ {
		var valid, vret = this.m_validator.Is_valid_block(this.m_device, block_num, pattern)
		if vret != nil {
			this.m_log.Error("read failure validating erase of block ", block_num, ": ", vret.Get_errmsg())
			num_invalid_blocks++
			continue
		}
		if valid == false {
			num_invalid_blocks++
		}
	}

	return num_invalid_blocks, nil
}
