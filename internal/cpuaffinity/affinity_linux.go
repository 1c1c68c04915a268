//go:build linux

package cpuaffinity

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore pins the calling OS thread to cpuID. Must be called after
// runtime.LockOSThread on the goroutine that is to be pinned.
func pinToCore(cpuID int) error {
	numCPU := runtime.NumCPU()
	if cpuID < 0 || cpuID >= numCPU {
		cpuID = cpuID % numCPU
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	return unix.SchedSetaffinity(0, &mask) // 0 = calling thread
}

func numCPU() int {
	return runtime.NumCPU()
}
