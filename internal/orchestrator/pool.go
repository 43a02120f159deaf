package orchestrator

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// workerCount resolves the scenario pool size: the caller's override,
// else the machine's logical core count.
func workerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
