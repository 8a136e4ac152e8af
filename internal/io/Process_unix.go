//go:build !windows

package io

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func newProcessGroupSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
}

func killProcessGroup(pid int) {
	// negative pid targets the whole group
	unix.Kill(-pid, unix.SIGKILL)
}
