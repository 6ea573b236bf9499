// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* The command line front end for the block device verify engine. Everything in
here is thin forwarding, open the device, hand it to the library, print what
came back. The destructive part (the test command) lives entirely in
bioverifylib, this file never makes a test decision itself. */

package main

import (
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/nixomose/bioverifygo/bioverifycmd/devices"
	"github.com/nixomose/bioverifygo/bioverifylib"
	"github.com/nixomose/bioverifygo/bioverifylib/bioverifyinterfaces"
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/spf13/cobra"
)

const DEFAULT_BLOCK_SIZE = 4096
const DEFAULT_RAM_SIZE = 1048576
const DUMP_CHUNK_SIZE = 256

var log *tools.Nixomosetools_logger

var (
	flag_device     string
	flag_ram        bool
	flag_size       uint64
	flag_block_size uint32
	flag_erase_byte uint8
	flag_direct     bool
	flag_repeat     bool
)

var exit_code int = 0

func main() {
	var root = &cobra.Command{
		Use:   "bioverify",
		Short: "block device conformance testing and debug commands",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = tools.New_Nixomosetools_logger(tools.DEBUG)
		},
	}

	root.PersistentFlags().StringVarP(&flag_device, "device", "d", "", "path to the block device or backing file")
	root.PersistentFlags().BoolVar(&flag_ram, "ram", false, "use an in-memory device instead of a real one")
	root.PersistentFlags().Uint64VarP(&flag_size, "size", "s", DEFAULT_RAM_SIZE, "size in bytes of the ram device")
	root.PersistentFlags().Uint32VarP(&flag_block_size, "block-size", "b", DEFAULT_BLOCK_SIZE, "device block size in bytes")
	root.PersistentFlags().Uint8VarP(&flag_erase_byte, "erase-byte", "e", 0xff, "the byte an erased block reads back as")
	root.PersistentFlags().BoolVar(&flag_direct, "direct", false, "open the device O_DIRECT")

	var crc32_cmd = &cobra.Command{
		Use:   "crc32 <offset> <len>",
		Short: "crc32 a byte range on the device",
		Args:  cobra.ExactArgs(2),
		Run:   run_crc32,
	}
	crc32_cmd.Flags().BoolVar(&flag_repeat, "repeat", false, "recompute the crc forever")

	root.AddCommand(
		&cobra.Command{
			Use:   "test",
			Short: "run the destructive erase and write conformance test",
			Args:  cobra.NoArgs,
			Run:   run_test,
		},
		&cobra.Command{
			Use:   "info",
			Short: "print the device geometry",
			Args:  cobra.NoArgs,
			Run:   run_info,
		},
		&cobra.Command{
			Use:   "read <offset> <len>",
			Short: "timed read of a byte range",
			Args:  cobra.ExactArgs(2),
			Run:   run_read,
		},
		&cobra.Command{
			Use:   "write <offset> <len> [fillbyte]",
			Short: "timed write of a fill byte over a byte range",
			Args:  cobra.RangeArgs(2, 3),
			Run:   run_write,
		},
		&cobra.Command{
			Use:   "erase <offset> <len>",
			Short: "timed erase of a byte range",
			Args:  cobra.ExactArgs(2),
			Run:   run_erase,
		},
		&cobra.Command{
			Use:   "dump <offset> <len>",
			Short: "hexdump a byte range on the device",
			Args:  cobra.ExactArgs(2),
			Run:   run_dump,
		},
		crc32_cmd,
	)

	if err := root.Execute(); err != nil {
		exit_code = 1
	}
	os.Exit(exit_code)
}

/* open whichever device the flags describe. the returned closer must be called
on every way out, for the ram device it's a no-op. */
func open_device() (tools.Ret, bioverifyinterfaces.Block_device, func()) {
	var erase_pattern = []byte{flag_erase_byte}

	if flag_block_size == 0 {
		return tools.ErrorWithCode(log, int(syscall.EINVAL), "block size can not be zero"), nil, nil
	}

	if flag_ram {
		var ret, ramdisk = devices.New_ramdiskdevice(log, flag_block_size, flag_size/uint64(flag_block_size), erase_pattern)
		if ret != nil {
			return ret, nil, nil
		}
		return nil, ramdisk, func() {}
	}

	if flag_device == "" {
		return tools.ErrorWithCode(log, int(syscall.EINVAL), "no device specified, use --device or --ram"), nil, nil
	}

	var ret, filedev = devices.New_filedevice(log, flag_device, flag_block_size, erase_pattern, flag_direct)
	if ret != nil {
		return ret, nil, nil
	}
	ret = filedev.Open()
	if ret != nil {
		return ret, nil, nil
	}
	return nil, filedev, func() {
		var cret = filedev.Close()
		if cret != nil {
			log.Error("error closing device: ", cret.Get_errmsg())
		}
	}
}

func parse_offset_and_length(args []string) (tools.Ret, uint64, uint64) {
	var offset, err = strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		return tools.ErrorWithCode(log, int(syscall.EINVAL), "invalid offset: ", args[0]), 0, 0
	}
	var length uint64
	length, err = strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		return tools.ErrorWithCode(log, int(syscall.EINVAL), "invalid length: ", args[1]), 0, 0
	}
	return nil, offset, length
}

func run_test(cmd *cobra.Command, args []string) {
	var ret, device, closer = open_device()
	if ret != nil {
		exit_code = 1
		return
	}
	defer closer()

	var tester = bioverifylib.New_device_tester(log, device)
	var result = tester.Run()

	switch result.Verdict {
	case bioverifylib.VERDICT_PASS:
		fmt.Println("device passed, no defects discovered.")
	case bioverifylib.VERDICT_ERASE_FAILED:
		fmt.Println("erase test failed: " + result.Ret.Get_errmsg())
	case bioverifylib.VERDICT_ERASE_DEFECTS:
		fmt.Println("erase test discovered " + strconv.FormatUint(result.Defects, 10) + " defective block(s), write test skipped.")
	case bioverifylib.VERDICT_WRITE_FAILED:
		fmt.Println("write test failed: " + result.Ret.Get_errmsg())
	case bioverifylib.VERDICT_WRITE_DEFECTS:
		fmt.Println("write test discovered " + strconv.FormatUint(result.Defects, 10) + " defective block(s).")
	}

	if result.Verdict != bioverifylib.VERDICT_PASS {
		exit_code = 1
	}
}

func run_info(cmd *cobra.Command, args []string) {
	var ret, device, closer = open_device()
	if ret != nil {
		exit_code = 1
		return
	}
	defer closer()

	fmt.Println("block size:    ", device.Get_block_size())
	fmt.Println("block count:   ", device.Get_block_count())
	fmt.Println("total size:    ", device.Get_total_size())
	fmt.Println("erase pattern: ", fmt.Sprintf("%#x", device.Get_erase_pattern()))
	fmt.Println("alignment:     ", device.Get_alignment())
}

/* check that a byte range is block aligned and inside the device, and turn it
into a block range. */
func block_range_for(device bioverifyinterfaces.Block_device, offset uint64, length uint64) (tools.Ret, uint64, uint32) {
	var block_size = uint64(device.Get_block_size())
	if offset%block_size != 0 || length%block_size != 0 {
		return tools.ErrorWithCode(log, int(syscall.EINVAL), "offset ", offset, " and length ", length,
			" must be multiples of the block size ", block_size), 0, 0
	}
	if length == 0 {
		return tools.ErrorWithCode(log, int(syscall.EINVAL), "length can not be zero"), 0, 0
	}
	if offset+length > device.Get_total_size() {
		return tools.ErrorWithCode(log, int(syscall.ERANGE), "range ", offset, "+", length,
			" runs past the end of the device"), 0, 0
	}
	return nil, offset / block_size, uint32(length / block_size)
}

func run_read(cmd *cobra.Command, args []string) {
	var ret, device, closer = open_device()
	if ret != nil {
		exit_code = 1
		return
	}
	defer closer()

	var offset, length uint64
	ret, offset, length = parse_offset_and_length(args)
	if ret != nil {
		exit_code = 1
		return
	}
	var block_num uint64
	var count uint32
	ret, block_num, count = block_range_for(device, offset, length)
	if ret != nil {
		exit_code = 1
		return
	}

	var buffer = bioverifylib.Make_aligned_buffer(count*device.Get_block_size(), device.Get_alignment())
	var start = time.Now()
	var n, r = device.Read_blocks(block_num, count, buffer)
	var took = time.Since(start)
	if r != nil {
		log.Error("read failed after ", n, " bytes: ", r.Get_errmsg())
		exit_code = 1
		return
	}
	log.Info("read ", n, " bytes in ", took.Milliseconds(), " msecs (", bytes_per_second(uint64(n), took), " bytes/sec)")
}

func run_write(cmd *cobra.Command, args []string) {
	var ret, device, closer = open_device()
	if ret != nil {
		exit_code = 1
		return
	}
	defer closer()

	var offset, length uint64
	ret, offset, length = parse_offset_and_length(args)
	if ret != nil {
		exit_code = 1
		return
	}
	var fill byte = 0
	if len(args) == 3 {
		var f, err = strconv.ParseUint(args[2], 0, 8)
		if err != nil {
			log.Error("invalid fill byte: ", args[2])
			exit_code = 1
			return
		}
		fill = byte(f)
	}

	var block_num uint64
	var count uint32
	ret, block_num, count = block_range_for(device, offset, length)
	if ret != nil {
		exit_code = 1
		return
	}

	var buffer = bioverifylib.Make_aligned_buffer(count*device.Get_block_size(), device.Get_alignment())
	for i := range buffer {
		buffer[i] = fill
	}
	var start = time.Now()
	var n, r = device.Write_blocks(block_num, count, buffer)
	var took = time.Since(start)
	if r != nil {
		log.Error("write failed after ", n, " bytes: ", r.Get_errmsg())
		exit_code = 1
		return
	}
	log.Info("wrote ", n, " bytes in ", took.Milliseconds(), " msecs (", bytes_per_second(uint64(n), took), " bytes/sec)")
}

func run_erase(cmd *cobra.Command, args []string) {
	var ret, device, closer = open_device()
	if ret != nil {
		exit_code = 1
		return
	}
	defer closer()

	var offset, length uint64
	ret, offset, length = parse_offset_and_length(args)
	if ret != nil {
		exit_code = 1
		return
	}

	var start = time.Now()
	var erased, r = device.Erase(offset, length)
	var took = time.Since(start)
	if r != nil {
		log.Error("erase failed after ", erased, " bytes: ", r.Get_errmsg())
		exit_code = 1
		return
	}
	log.Info("erased ", erased, " bytes in ", took.Milliseconds(), " msecs (", bytes_per_second(erased, took), " bytes/sec)")
}

func run_dump(cmd *cobra.Command, args []string) {
	var ret, device, closer = open_device()
	if ret != nil {
		exit_code = 1
		return
	}
	defer closer()

	var offset, length uint64
	ret, offset, length = parse_offset_and_length(args)
	if ret != nil {
		exit_code = 1
		return
	}
	var block_num uint64
	var count uint32
	ret, block_num, count = block_range_for(device, offset, length)
	if ret != nil {
		exit_code = 1
		return
	}

	/* read one block at a time and dump it in small chunks so a dump of a
	broken device shows everything up to the failing block. */
	var buffer = bioverifylib.Make_aligned_buffer(device.Get_block_size(), device.Get_alignment())
	for ; count > 0; count-- {
		var n, r = device.Read_blocks(block_num, 1, buffer)
		if r != nil {
			log.Error("read error at block ", block_num, ": ", r.Get_errmsg())
			exit_code = 1
			return
		}
		if n != device.Get_block_size() {
			log.Error("short read at block ", block_num, ", wanted ", device.Get_block_size(), " got ", n)
			exit_code = 1
			return
		}
		for chunk := 0; chunk < len(buffer); chunk += DUMP_CHUNK_SIZE {
			var end = chunk + DUMP_CHUNK_SIZE
			if end > len(buffer) {
				end = len(buffer)
			}
			fmt.Print(hex.Dump(buffer[chunk:end]))
		}
		block_num++
	}
}

func run_crc32(cmd *cobra.Command, args []string) {
	var ret, device, closer = open_device()
	if ret != nil {
		exit_code = 1
		return
	}
	defer closer()

	var offset, length uint64
	ret, offset, length = parse_offset_and_length(args)
	if ret != nil {
		exit_code = 1
		return
	}
	var block_num uint64
	var count uint32
	ret, block_num, count = block_range_for(device, offset, length)
	if ret != nil {
		exit_code = 1
		return
	}

	var buffer = bioverifylib.Make_aligned_buffer(device.Get_block_size(), device.Get_alignment())
	for {
		var crc uint32 = 0
		var bnum = block_num
		for blocks_left := count; blocks_left > 0; blocks_left-- {
			var n, r = device.Read_blocks(bnum, 1, buffer)
			if r != nil || n != device.Get_block_size() {
				log.Error("error reading block ", bnum)
				exit_code = 1
				return
			}
			crc = crc32.Update(crc, crc32.IEEETable, buffer)
			bnum++
		}
		fmt.Printf("crc 0x%08x\n", crc)
		if flag_repeat == false {
			break
		}
	}
}

func bytes_per_second(n uint64, took time.Duration) uint64 {
	if took <= 0 {
		return 0
	}
	return uint64(float64(n) / took.Seconds())
}
