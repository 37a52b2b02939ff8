//go:build linux

package telemetry

import (
	"github.com/prometheus/procfs"

	"github.com/laqista-io/laqista/internal/core"
)

// cpuReader tracks /proc/stat's aggregate CPU line across calls and
// derives a percentage from the delta, the idiomatic Linux way to
// sample CPU utilization (a single read only gives cumulative jiffies
// since boot). Reads go through prometheus/procfs, the teacher's own
// go.mod dependency for exactly this concern, rather than a hand-rolled
// /proc/stat parser.
type cpuReader struct {
	fs      procfs.FS
	fsReady bool

	prevIdle, prevTotal float64
	havePrev            bool
}

// sample returns a percentage in [0,100], or core.NotObserved on the
// very first call (no delta yet) or if /proc/stat cannot be opened or
// read. The procfs.FS handle is opened lazily on first use so a
// zero-value cpuReader embeds cleanly with no separate constructor.
func (c *cpuReader) sample() int {
	if !c.fsReady {
		fs, err := procfs.NewDefaultFS()
		if err != nil {
			return core.NotObserved
		}
		c.fs, c.fsReady = fs, true
	}

	stat, err := c.fs.Stat()
	if err != nil {
		return core.NotObserved
	}

	cpu := stat.CPUTotal
	idle := cpu.Idle + cpu.Iowait
	total := cpu.User + cpu.Nice + cpu.System + cpu.Idle + cpu.Iowait +
		cpu.IRQ + cpu.SoftIRQ + cpu.Steal

	if !c.havePrev {
		c.prevIdle, c.prevTotal, c.havePrev = idle, total, true
		return core.NotObserved
	}

	idleDelta := idle - c.prevIdle
	totalDelta := total - c.prevTotal
	c.prevIdle, c.prevTotal = idle, total

	if totalDelta <= 0 {
		return core.NotObserved
	}
	usedRatio := 1 - idleDelta/totalDelta
	pct := int(usedRatio * 100)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}
