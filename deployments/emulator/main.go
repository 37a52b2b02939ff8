// faketop stands in for radeontop in local development: it writes
// synthetic "--dump" lines to stdout at a fixed interval so
// internal/telemetry/radeon.go's RadeonSampler (which shells out to a
// binary literally named "radeontop") can be exercised without real
// Radeon hardware. Point RadeonSampler.Bin at this binary instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	interval = flag.Duration("interval", time.Second, "seconds between dump lines, mirrors radeontop's --interval")
	base     = flag.Float64("gpu", 35, "baseline gpu utilization percent")
	jitter   = flag.Float64("jitter", 15, "peak-to-peak sine sweep added to the baseline")
	period   = flag.Duration("period", 20*time.Second, "period of the sine sweep")
	bus      = flag.String("bus", "06", "bus id field echoed in each line")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fmt.Println(dumpLine(now, start))
		}
	}
}

// dumpLine formats one radeontop --dump line:
//
//	1715302360.857296: bus 06, gpu 37.50%, ee 0.00%, vgt 0.00%, ...
//
// gpu sweeps sinusoidally around base so a consumer sees a believable
// ramp instead of a flat line, the same shape a lightly loaded GPU
// under bursty RPC traffic would show.
func dumpLine(now, start time.Time) string {
	elapsed := now.Sub(start).Seconds()
	phase := 2 * math.Pi * elapsed / period.Seconds()
	pct := *base + (*jitter/2)*math.Sin(phase)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return fmt.Sprintf("%d.%06d: bus %s, gpu %.2f%%, ee 0.00%%, vgt 0.00%%, ta 0.00%%, sx 0.00%%, sh 0.00%%, spi 0.00%%, sc 0.00%%, pa 0.00%%, db 0.00%%, cb 0.00%%, vram 512.00mb 25.00%%, gtt 128.00mb 6.25%%, mclk 1.200ghz 80.00%%, sclk 1.500ghz 60.00%%",
		now.Unix(), now.Nanosecond()/1000, *bus, pct)
}
