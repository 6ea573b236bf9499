// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

//go:build linux
// +build linux

package devices

import (
	"os"
	"unsafe"

	"github.com/nixomose/nixomosegotools/tools"
	"golang.org/x/sys/unix"
)

/* ask the kernel how big a block device node is. same deal as every other
ioctl from go, the unsafe.Pointer conversion has to happen inline in the
syscall argument list so the runtime pins the memory for the duration. */
func device_size_in_bytes(log *tools.Nixomosetools_logger, fd *os.File) (tools.Ret, uint64) {
	var size_in_bytes uint64
	var _, _, errno = unix.Syscall(unix.SYS_IOCTL, fd.Fd(), unix.BLKGETSIZE64,
		uintptr(unsafe.Pointer(&size_in_bytes)))
	if errno != 0 {
		return tools.ErrorWithCode(log, int(errno), "unable to get device size for ", fd.Name(),
			", BLKGETSIZE64 err: ", errno), 0
	}
	return nil, size_in_bytes
}
