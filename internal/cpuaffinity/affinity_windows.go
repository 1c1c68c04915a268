//go:build windows

package cpuaffinity

import (
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// pinToCore pins the calling OS thread to cpuID. Must be called after
// runtime.LockOSThread on the goroutine that is to be pinned.
func pinToCore(cpuID int) error {
	numCPU := runtime.NumCPU()
	if cpuID < 0 || cpuID >= numCPU {
		cpuID = cpuID % numCPU
	}

	handle, _, _ := getCurrentThread.Call()

	// bit N corresponds to CPU N
	mask := uintptr(1 << cpuID)

	prevMask, _, err := setThreadAffinityMask.Call(handle, mask)
	if prevMask == 0 {
		return err
	}
	return nil
}

func numCPU() int {
	return runtime.NumCPU()
}
