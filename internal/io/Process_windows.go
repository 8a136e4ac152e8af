//go:build windows

package io

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func newProcessGroupSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
	}
}

// descendants were already walked, windows has no group kill
func killProcessGroup(pid int) {}
