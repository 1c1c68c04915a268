//go:build darwin

package cpuaffinity

import "runtime"

// pinToCore is a no-op on Darwin: the kernel does not expose
// thread-to-core affinity control to user space.
func pinToCore(cpuID int) error {
	return nil
}

func numCPU() int {
	return runtime.NumCPU()
}
