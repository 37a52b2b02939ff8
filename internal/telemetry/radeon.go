//go:build linux

package telemetry

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/stats"
)

// RadeonSampler shells out to `radeontop --dump -` and parses its
// line-oriented output. Grounded on
// _examples/original_source/src/monitor/linux/parse.rs; the original
// uses a nom parser combinator grammar over the full "name value, name
// value, ..." line, but this sampler only needs the headline "gpu"
// percentage field, so it is extracted directly rather than building a
// general combinator parser (no parser-combinator library is present
// anywhere in the example pack to ground one on).
type RadeonSampler struct {
	// Bin overrides the radeontop binary path; empty uses PATH lookup.
	Bin string
	cpu cpuReader
}

func NewRadeonSampler() *RadeonSampler {
	return &RadeonSampler{Bin: "radeontop"}
}

func (s *RadeonSampler) Run(ctx context.Context) <-chan stats.MonitorWindow {
	ch := sampleChannel()
	go s.loop(ctx, ch)
	return ch
}

func (s *RadeonSampler) loop(ctx context.Context, ch chan stats.MonitorWindow) {
	defer close(ch)

	bin := s.Bin
	if bin == "" {
		bin = "radeontop"
	}
	cmd := exec.CommandContext(ctx, bin, "--dump", "-", "--interval", "1")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		klog.ErrorS(err, "radeon sampler: failed to attach stdout")
		return
	}
	if err := cmd.Start(); err != nil {
		klog.ErrorS(err, "radeon sampler: failed to start radeontop")
		return
	}
	defer cmd.Wait()

	scanner := bufio.NewScanner(stdout)
	start := time.Now()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		gpuPct, err := parseRadeonTopLine(line)
		if err != nil {
			klog.InfoS("radeon sampler: failed to parse dump line", "line", line, "err", err)
			continue
		}
		end := time.Now()
		publish(ch, stats.MonitorWindow{
			Start: start,
			End:   end,
			Utilization: core.ResourceUtilization{
				Gpu:       gpuPct,
				Cpu:       s.cpu.sample(),
				RamTotal:  core.NotObserved,
				RamUsed:   core.NotObserved,
				VramTotal: core.NotObserved,
				VramUsed:  core.NotObserved,
			},
		})
		start = end
	}
}

// parseRadeonTopLine extracts the "gpu R.RR%" field from a line of the
// form:
//
//	1715302360.857296: bus 06, gpu 5.00%, ee 0.00%, ...
//
// The timestamp and bus fields are ignored; only the gpu percentage is
// the headline utilization per §4.1.
func parseRadeonTopLine(line string) (int, error) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return 0, fmt.Errorf("missing timestamp separator")
	}
	rest := line[colon+1:]

	for _, field := range strings.Split(rest, ",") {
		field = strings.TrimSpace(field)
		name, value, ok := strings.Cut(field, " ")
		if !ok || name != "gpu" {
			continue
		}
		value = strings.TrimSuffix(value, "%")
		pct, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("gpu field %q: %w", value, err)
		}
		rounded := int(pct + 0.5)
		if rounded > 100 {
			rounded = 100
		}
		return rounded, nil
	}
	return 0, fmt.Errorf("no gpu field in line")
}
