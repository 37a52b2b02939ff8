//go:build darwin

package telemetry

import (
	"bufio"
	"context"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/stats"
)

// AppleSampler shells out to /usr/bin/powermetrics in plist-streaming
// mode and frames its stdout into MonitorWindow values. Grounded on
// _examples/original_source/src/monitor/apple.rs.
type AppleSampler struct {
	// Bin overrides the powermetrics binary path; empty uses the
	// standard location. Exposed for tests.
	Bin string
}

func NewAppleSampler() *AppleSampler {
	return &AppleSampler{Bin: "/usr/bin/powermetrics"}
}

func (s *AppleSampler) Run(ctx context.Context) <-chan stats.MonitorWindow {
	ch := sampleChannel()
	go s.loop(ctx, ch)
	return ch
}

func (s *AppleSampler) loop(ctx context.Context, ch chan stats.MonitorWindow) {
	defer close(ch)

	bin := s.Bin
	if bin == "" {
		bin = "/usr/bin/powermetrics"
	}
	cmd := exec.CommandContext(ctx, bin,
		"--sampler=gpu_power",
		"--sample-rate=1000",
		"--format=plist",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		klog.ErrorS(err, "apple sampler: failed to attach stdout")
		return
	}
	if err := cmd.Start(); err != nil {
		klog.ErrorS(err, "apple sampler: failed to start powermetrics")
		return
	}
	defer cmd.Wait()

	for w := range framePlistDocuments(stdout) {
		publish(ch, w)
		if ctx.Err() != nil {
			return
		}
	}
}

// framePlistDocuments reads lines from r, grouping them into plist
// documents delimited by the literal line "</plist>". Within a
// document, every "<key>idle_ratio</key>" line after the first is
// dropped before accumulation, matching the reference reader's framing
// rule: only the first idle_ratio in a document is meaningful. A
// leading NUL byte is stripped once per document, never once per
// stream.
//
// powermetrics's plist is a full Apple property list; this reader only
// ever needs two scalar leaves out of it (gpu.idle_ratio and
// elapsed_ns), so rather than pull in a generic plist decoder it tracks
// the most recently opened <key> tag and reads the following
// <real>/<integer> leaf directly, the same shape the reference
// line-oriented reader uses.
func framePlistDocuments(r io.Reader) <-chan stats.MonitorWindow {
	out := make(chan stats.MonitorWindow)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		haveSeenIdleRatio := false
		pendingKey := ""
		var idleRatio float64
		var elapsedNs int64
		sawIdleRatio, sawElapsed := false, false
		firstLine := true
		end := time.Now()

		for scanner.Scan() {
			line := scanner.Text()
			if firstLine {
				line = strings.TrimPrefix(line, "\x00")
				firstLine = false
			}
			trimmed := strings.TrimSpace(line)

			if strings.HasPrefix(trimmed, "<key>idle_ratio</key>") {
				if haveSeenIdleRatio {
					continue
				}
				haveSeenIdleRatio = true
				pendingKey = "idle_ratio"
				continue
			}
			if strings.HasPrefix(trimmed, "<key>elapsed_ns</key>") {
				pendingKey = "elapsed_ns"
				continue
			}

			if pendingKey != "" {
				if v, ok := parsePlistLeaf(trimmed); ok {
					switch pendingKey {
					case "idle_ratio":
						idleRatio, sawIdleRatio = v, true
					case "elapsed_ns":
						elapsedNs, sawElapsed = int64(v), true
					}
				}
				pendingKey = ""
			}

			if trimmed == "</plist>" {
				if sawIdleRatio {
					sampleEnd := end
					if sawElapsed {
						sampleEnd = end.Add(time.Duration(elapsedNs))
					} else {
						sampleEnd = end.Add(time.Second)
					}
					out <- stats.MonitorWindow{
						Start: end,
						End:   sampleEnd,
						Utilization: core.ResourceUtilization{
							Gpu:       int(math.Round((1 - idleRatio) * 100)),
							Cpu:       core.NotObserved,
							RamTotal:  core.NotObserved,
							RamUsed:   core.NotObserved,
							VramTotal: core.NotObserved,
							VramUsed:  core.NotObserved,
						},
					}
					end = sampleEnd
				} else {
					klog.InfoS("apple sampler: document had no idle_ratio, discarding")
				}
				haveSeenIdleRatio = false
				sawIdleRatio, sawElapsed = false, false
				firstLine = true
			}
		}
	}()
	return out
}

// parsePlistLeaf extracts the numeric content of a "<real>0.42</real>"
// or "<integer>123</integer>" line.
func parsePlistLeaf(line string) (float64, bool) {
	for _, tag := range []string{"real", "integer"} {
		open, close := "<"+tag+">", "</"+tag+">"
		if strings.HasPrefix(line, open) && strings.HasSuffix(line, close) {
			inner := strings.TrimSuffix(strings.TrimPrefix(line, open), close)
			v, err := strconv.ParseFloat(inner, 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}
