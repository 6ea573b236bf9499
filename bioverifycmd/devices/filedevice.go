// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* This module makes a regular file or a raw block device look like a
Block_device for the verify engine. With direct set it opens the file O_DIRECT
through the directio package, which means every transfer buffer has to be
alignment-respecting memory, and we advertise that requirement through
Get_alignment so the engine's scratch allocator does the right thing. */

package devices

import (
	"os"
	"syscall"

	"github.com/ncw/directio"
	"github.com/nixomose/bioverifygo/bioverifylib/bioverifyinterfaces"
	"github.com/nixomose/nixomosegotools/tools"
)

var _ bioverifyinterfaces.Block_device = &Filedevice{}
var _ bioverifyinterfaces.Block_device = (*Filedevice)(nil)

const file_device_filemode os.FileMode = 0666

type Filedevice struct {
	m_log           *tools.Nixomosetools_logger
	m_path          string
	m_fd            *os.File
	m_block_size    uint32
	m_block_count   uint64
	m_erase_pattern []byte
	m_direct        bool
}

func New_filedevice(log *tools.Nixomosetools_logger, path string, block_size uint32,
	erase_pattern []byte, direct bool) (tools.Ret, *Filedevice) {
	if block_size == 0 {
		return tools.ErrorWithCode(log, int(syscall.EINVAL), "file device block size can not be zero"), nil
	}
	if len(erase_pattern) < 1 || len(erase_pattern) > 4 {
		return tools.ErrorWithCode(log, int(syscall.EINVAL),
			"file device erase pattern must be 1 to 4 bytes, got ", len(erase_pattern)), nil
	}

	var d Filedevice
	d.m_log = log
	d.m_path = path
	d.m_fd = nil
	d.m_block_size = block_size
	d.m_erase_pattern = append([]byte{}, erase_pattern...)
	d.m_direct = direct
	return nil, &d
}

/* Open opens the backing file or device node and works out how many whole
blocks it holds. Trailing bytes that don't make a whole block are ignored, the
engine only ever addresses whole blocks. */
func (this *Filedevice) Open() tools.Ret {
	var err error
	if this.m_direct {
		this.m_fd, err = directio.OpenFile(this.m_path, os.O_RDWR, file_device_filemode)
	} else {
		this.m_fd, err = os.OpenFile(this.m_path, os.O_RDWR, file_device_filemode)
	}
	if err != nil {
		return tools.Error(this.m_log, "unable to open block device ", this.m_path, ", err: ", err)
	}

	var size_in_bytes uint64
	var ret tools.Ret
	var fileinfo os.FileInfo
	fileinfo, err = this.m_fd.Stat()
	if err != nil {
		this.Close()
		return tools.Error(this.m_log, "unable to stat block device ", this.m_path, ", err: ", err)
	}

	if fileinfo.Mode()&os.ModeDevice != 0 {
		// stat size is meaningless for a device node, ask the kernel.
		ret, size_in_bytes = device_size_in_bytes(this.m_log, this.m_fd)
		if ret != nil {
			this.Close()
			return ret
		}
	} else {
		size_in_bytes = uint64(fileinfo.Size())
	}

	this.m_block_count = size_in_bytes / uint64(this.m_block_size)
	if this.m_block_count == 0 {
		this.Close()
		return tools.ErrorWithCode(this.m_log, int(syscall.EINVAL), "device ", this.m_path, " of ",
			size_in_bytes, " bytes doesn't hold even one ", this.m_block_size, " byte block")
	}

	this.m_log.Debug("opened ", this.m_path, ", ", this.m_block_count, " blocks of ",
		this.m_block_size, " bytes, direct: ", this.m_direct)
	return nil
}

func (this *Filedevice) Close() tools.Ret {
	if this.m_fd == nil {
		return nil
	}
	var err error = this.m_fd.Close()
	this.m_fd = nil
	if err != nil {
		return tools.Error(this.m_log, "unable to close block device ", this.m_path, ", err: ", err)
	}
	return nil
}

func (this *Filedevice) Get_block_size() uint32 {
	return this.m_block_size
}

func (this *Filedevice) Get_block_count() uint64 {
	return this.m_block_count
}

func (this *Filedevice) Get_total_size() uint64 {
	return uint64(this.m_block_size) * this.m_block_count
}

func (this *Filedevice) Get_erase_pattern() []byte {
	return this.m_erase_pattern
}

func (this *Filedevice) Get_alignment() uint32 {
	if this.m_direct {
		return uint32(directio.AlignSize)
	}
	return 1
}

func (this *Filedevice) check_block_range(block_num uint64, count uint32, data []byte) tools.Ret {
	if this.m_fd == nil {
		return tools.ErrorWithCode(this.m_log, int(syscall.EBADF), "block device ", this.m_path, " is not open")
	}
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

func (this *Filedevice) Read_blocks(block_num uint64, count uint32, data []byte) (uint32, tools.Ret) {
	var r = this.check_block_range(block_num, count, data)
	if r != nil {
		return 0, r
	}

	var length = int(count) * int(this.m_block_size)
	var offset int64 = int64(block_num) * int64(this.m_block_size)
	var n, err = this.m_fd.ReadAt(data[0:length], offset)
	if err != nil {
		/* ReadAt can come back with a partial byte count and an error, report
		what actually made it so the caller can tell a short transfer apart from
		nothing at all. */
		return uint32(n), tools.Error(this.m_log, "error reading ", length, " bytes at offset ",
			offset, " from ", this.m_path, ", err: ", err)
	}
	return uint32(n), nil
}

func (this *Filedevice) Write_blocks(block_num uint64, count uint32, data []byte) (uint32, tools.Ret) {
	var r = this.check_block_range(block_num, count, data)
	if r != nil {
		return 0, r
	}

	var length = int(count) * int(this.m_block_size)
	var offset int64 = int64(block_num) * int64(this.m_block_size)
	var n, err = this.m_fd.WriteAt(data[0:length], offset)
	if err != nil {
		return uint32(n), tools.Error(this.m_log, "error writing ", length, " bytes at offset ",
			offset, " to ", this.m_path, ", err: ", err)
	}
	return uint32(n), nil
}

func (this *Filedevice) Erase(start_in_bytes uint64, length uint64) (uint64, tools.Ret) {
	/* Files don't have an erase primitive so erasing means writing the fill
	pattern over the range, one block at a time. The bytes-erased running count
	is what we hand back if a write in the middle goes bad, partial progress is
	the caller's to judge. */

	if this.m_fd == nil {
		return 0, tools.ErrorWithCode(this.m_log, int(syscall.EBADF), "block device ", this.m_path, " is not open")
	}
	if start_in_bytes%uint64(this.m_block_size) != 0 || length%uint64(this.m_block_size) != 0 {
		return 0, tools.ErrorWithCode(this.m_log, int(syscall.EINVAL),
			"erase range ", start_in_bytes, "+", length, " is not block aligned, block size is ", this.m_block_size)
	}
	if start_in_bytes+length > this.Get_total_size() {
		return 0, tools.ErrorWithCode(this.m_log, int(syscall.ERANGE),
			"erase range ", start_in_bytes, "+", length, " runs past the end of the device")
	}

	var fill []byte = directio.AlignedBlock(int(this.m_block_size))
	for i := range fill {
		fill[i] = this.m_erase_pattern[i%len(this.m_erase_pattern)]
	}

	var erased uint64 = 0
	var pos uint64 = start_in_bytes
	for erased < length {
		var n, err = this.m_fd.WriteAt(fill, int64(pos))
		erased += uint64(n)
		if err != nil {
			return erased, tools.Error(this.m_log, "error erasing ", this.m_block_size,
				" bytes at offset ", pos, " on ", this.m_path, ", err: ", err)
		}
		if n != int(this.m_block_size) {
			return erased, tools.ErrorWithCode(this.m_log, int(syscall.EIO),
				"short write erasing block at offset ", pos, " on ", this.m_path)
		}
		pos += uint64(this.m_block_size)
	}

	return erased, nil
}
