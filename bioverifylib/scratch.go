// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package bioverifylib

/* Scratch buffers for device transfers. Devices that do O_DIRECT style transfers
need the buffer memory aligned, and the alignment requirement comes from the
device descriptor, not from some compile time constant, so it gets passed in here
every time. The trick is the usual one: allocate alignment-1 extra bytes and
slice at the first aligned offset. Buffers only ever live for the length of one
read-and-compare or one write, the garbage collector does the releasing for us
on every exit path, which is the reason there's no matching free call to forget. */

import "unsafe"

/* Make_aligned_buffer returns a buffer of size bytes whose first byte sits on an
alignment byte boundary. alignment of 0 or 1 means don't care. alignment must be
a power of two, anything else gets you a plain buffer because there's nothing
sane we can do with it. */
func Make_aligned_buffer(size uint32, alignment uint32) []byte {
	if alignment <= 1 || (alignment&(alignment-1)) != 0 {
		return make([]byte, size)
	}

	var block []byte = make([]byte, size+alignment)
	var addr = uintptr(unsafe.Pointer(&block[0]))
	var offset = 0
	if addr%uintptr(alignment) != 0 {
		offset = int(uintptr(alignment) - (addr % uintptr(alignment)))
	}
	return block[offset : offset+int(size)]
}
