// Package cpuaffinity optionally pins a Worker's OS thread to a single
// CPU core. Pinning requires that the goroutine never migrate to a
// different OS thread for the duration, so it is paired with
// runtime.LockOSThread.
package cpuaffinity

import "runtime"

// Pin locks the calling goroutine to its current OS thread and, where
// the platform supports it, pins that thread to cpuID modulo the
// number of logical CPUs. It returns a release function that must be
// called (typically deferred) before the goroutine exits, to unlock
// the OS thread binding.
//
// On platforms without thread affinity control (darwin), Pin still
// locks the OS thread but the pin request is a no-op.
func Pin(cpuID int) (release func()) {
	runtime.LockOSThread()
	_ = pinToCore(cpuID)
	return runtime.UnlockOSThread
}

// NumCPU returns the number of logical CPUs available.
func NumCPU() int {
	return numCPU()
}
