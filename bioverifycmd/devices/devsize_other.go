// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

//go:build !linux
// +build !linux

package devices

import (
	"io"
	"os"

	"github.com/nixomose/nixomosegotools/tools"
)

// no BLKGETSIZE64 off linux, seeking to the end is the best we can do.
func device_size_in_bytes(log *tools.Nixomosetools_logger, fd *os.File) (tools.Ret, uint64) {
	var size_in_bytes, err = fd.Seek(0, io.SeekEnd)
	if err != nil {
		return tools.Error(log, "unable to get device size for ", fd.Name(), ", err: ", err), 0
	}
	var _, err2 = fd.Seek(0, io.SeekStart)
	if err2 != nil {
		return tools.Error(log, "unable to seek back to the start of ", fd.Name(), ", err: ", err2), 0
	}
	return nil, uint64(size_in_bytes)
}
