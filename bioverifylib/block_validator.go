// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* This module reads exactly one block and checks it against an expected repeating
byte pattern. It is the only thing in the engine that actually looks at device
content, both test phases funnel every block through here. */

package bioverifylib

import (
	"syscall"

	"github.com/nixomose/bioverifygo/bioverifylib/bioverifyinterfaces"
	"github.com/nixomose/nixomosegotools/tools"
)

type Block_validator struct {
	m_log *tools.Nixomosetools_logger
}

func New_block_validator(log *tools.Nixomosetools_logger) Block_validator {
	var v Block_validator
	v.m_log = log
	return v
}

/* Is_valid_block reads block block_num and compares every byte against
pattern[i % len(pattern)].
Two different bad things can happen and we keep them apart:
valid == false with ret != nil means the read itself failed or came up short,
we never got trustworthy content to compare.
valid == false with ret == nil means the read was clean and the content is wrong.
The phases count both as one defective block but they get logged differently.
Validation never writes anything anywhere, the scratch buffer is scoped to this
one call and the device content is only looked at. */
func (this *Block_validator) Is_valid_block(device bioverifyinterfaces.Block_device, block_num uint64,
	pattern []byte) (valid bool, ret tools.Ret) {

	if len(pattern) == 0 {
		return false, tools.ErrorWithCode(this.m_log, int(syscall.EINVAL),
			"invalid empty expected pattern for block ", block_num)
	}
	if block_num >= device.Get_block_count() {
		return false, tools.ErrorWithCode(this.m_log, int(syscall.ERANGE),
			"block number ", block_num, " is out of range, device has ", device.Get_block_count(), " blocks")
	}

	var block_size uint32 = device.Get_block_size()
	var block_contents []byte = Make_aligned_buffer(block_size, device.Get_alignment())

	var n_bytes, r = device.Read_blocks(block_num, 1, block_contents)
	if r != nil {
		return false, tools.ErrorWithCode(this.m_log, r.Get_errcode(),
			"error reading block ", block_num, " for validation: ", r.Get_errmsg())
	}
	if n_bytes != block_size {
		return false, tools.ErrorWithCode(this.m_log, int(syscall.EIO),
			"short read validating block ", block_num, ", wanted ", block_size, " bytes, got ", n_bytes)
	}

	for i := uint32(0); i < block_size; i++ {
		if block_contents[i] != pattern[int(i)%len(pattern)] {
			this.m_log.Debug("block ", block_num, " mismatch at byte ", i, ", expected ",
				pattern[int(i)%len(pattern)], " got ", block_contents[i])
			return false, nil
		}
	}

	return true, nil
}
