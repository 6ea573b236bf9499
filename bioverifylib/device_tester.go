// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* This module sequences the two destructive test phases over a device and turns
what happened into a verdict. The rule is simple: a device that can't be erased
cleanly doesn't get a write test, because you'd just be measuring garbage. */

package bioverifylib

import (
	"github.com/google/uuid"
	"github.com/nixomose/bioverifygo/bioverifylib/bioverifyinterfaces"
	"github.com/nixomose/nixomosegotools/tools"
)

type Verdict int

const (
	VERDICT_PASS Verdict = iota
	VERDICT_ERASE_FAILED
	VERDICT_ERASE_DEFECTS
	VERDICT_WRITE_FAILED
	VERDICT_WRITE_DEFECTS
)

func (v Verdict) String() string {
	switch v {
	case VERDICT_PASS:
		return "pass"
	case VERDICT_ERASE_FAILED:
		return "erase failed"
	case VERDICT_ERASE_DEFECTS:
		return "erase defects"
	case VERDICT_WRITE_FAILED:
		return "write failed"
	case VERDICT_WRITE_DEFECTS:
		return "write defects"
	}
	return "unknown"
}

type Test_result struct {
	/* What the orchestrator hands back to whoever called it. Defects only means
	anything for the two defect verdicts, Ret is only set for the two failure
	verdicts, a pass has zero defects and a nil Ret by construction. */
	Verdict Verdict
	Defects uint64
	Ret     tools.Ret
}

type Device_tester struct {
	m_log    *tools.Nixomosetools_logger
	m_device bioverifyinterfaces.Block_device
	m_run_id uuid.UUID
}

func New_device_tester(log *tools.Nixomosetools_logger, device bioverifyinterfaces.Block_device) Device_tester {
	var t Device_tester
	t.m_log = log
	t.m_device = device
	t.m_run_id = uuid.New()
	return t
}

func (this *Device_tester) Get_run_id() uuid.UUID {
	return this.m_run_id
}

/* Run does the erase phase, and only if that comes back with no error and zero
defects does it go on to the write phase.
An erase phase I/O failure or a positive erase defect count both stop the test
before a single write happens. The write phase's answer, whatever it is, is the
final verdict. Passing means both phases ran and both came up completely clean. */
func (this *Device_tester) Run() Test_result {
	this.m_log.Info("test run ", this.m_run_id.String(), " starting on device with ",
		this.m_device.Get_block_count(), " blocks of ", this.m_device.Get_block_size(), " bytes")

	var erase_phase = New_erase_phase(this.m_log, this.m_device)
	var erase_defects, ret = erase_phase.Run()
	if ret != nil {
		this.m_log.Error("run ", this.m_run_id.String(), " error performing erase test: ", ret.Get_errmsg())
		return Test_result{Verdict: VERDICT_ERASE_FAILED, Defects: 0, Ret: ret}
	}
	this.m_log.Info("run ", this.m_run_id.String(), " discovered ", erase_defects, " error(s) while testing erase.")
	if erase_defects > 0 {
		// No point in continuing the tests if we couldn't erase the device.
		this.m_log.Info("run ", this.m_run_id.String(), " not continuing to test writes.")
		return Test_result{Verdict: VERDICT_ERASE_DEFECTS, Defects: erase_defects, Ret: nil}
	}

	var write_phase = New_write_phase(this.m_log, this.m_device)
	var write_defects, wret = write_phase.Run()
	if wret != nil {
		this.m_log.Error("run ", this.m_run_id.String(), " error performing write test: ", wret.Get_errmsg())
		return Test_result{Verdict: VERDICT_WRITE_FAILED, Defects: 0, Ret: wret}
	}
	this.m_log.Info("run ", this.m_run_id.String(), " discovered ", write_defects, " error(s) while testing write.")
	if write_defects > 0 {
		return Test_result{Verdict: VERDICT_WRITE_DEFECTS, Defects: write_defects, Ret: nil}
	}

	this.m_log.Info("run ", this.m_run_id.String(), " passed.")
	return Test_result{Verdict: VERDICT_PASS, Defects: 0, Ret: nil}
}

/* Test is the entry point the command line layer calls, it maps the verdict to
a process exit code, zero for a full pass and one for everything else. */
func (this *Device_tester) Test() int {
	var result = this.Run()
	if result.Verdict == VERDICT_PASS {
		return 0
	}
	return 1
}
