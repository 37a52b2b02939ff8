//go:build linux

package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"k8s.io/klog/v2"

	"github.com/laqista-io/laqista/internal/core"
	"github.com/laqista-io/laqista/internal/stats"
)

// NVIDIASampler polls go-nvml every second for per-device GPU
// utilization and reports the arithmetic mean across all visible
// devices, plus a CPU reading from /proc/stat. Adapted from
// _examples/linskybing-k8s-device-plugin/internal/rm/nvml_manager.go,
// stripped of its MPS-replica allocation logic (out of scope here:
// Laqista schedules whole RPCs onto whole servers, never fractional
// GPU slices) and rewired as a pure utilization sampler.
type NVIDIASampler struct {
	nvml nvml.Interface
	cpu  cpuReader
}

func NewNVIDIASampler() *NVIDIASampler {
	return &NVIDIASampler{nvml: nvml.New()}
}

func (s *NVIDIASampler) Run(ctx context.Context) <-chan stats.MonitorWindow {
	ch := sampleChannel()
	go s.loop(ctx, ch)
	return ch
}

func (s *NVIDIASampler) loop(ctx context.Context, ch chan stats.MonitorWindow) {
	defer close(ch)

	if ret := s.nvml.Init(); ret != nvml.SUCCESS {
		klog.ErrorS(fmt.Errorf("nvml init: %v", ret), "nvidia sampler: failed to initialize NVML")
		return
	}
	defer func() {
		if ret := s.nvml.Shutdown(); ret != nvml.SUCCESS {
			klog.InfoS("nvidia sampler: error shutting down NVML", "ret", ret)
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			util, gpuErr := s.meanGPUUtilization()
			cpuPct := s.cpu.sample()
			end := time.Now()
			if gpuErr != nil {
				klog.ErrorS(gpuErr, "nvidia sampler: failed to sample GPU utilization")
				util = core.NotObserved
			}
			publish(ch, stats.MonitorWindow{
				Start: start,
				End:   end,
				Utilization: core.ResourceUtilization{
					Gpu:       util,
					Cpu:       cpuPct,
					RamTotal:  core.NotObserved,
					RamUsed:   core.NotObserved,
					VramTotal: core.NotObserved,
					VramUsed:  core.NotObserved,
				},
			})
			start = end
		}
	}
}

// meanGPUUtilization returns the arithmetic mean of per-device GPU
// utilization across every visible device, per §4.1's multi-GPU rule.
func (s *NVIDIASampler) meanGPUUtilization() (int, error) {
	count, ret := s.nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return core.NotObserved, fmt.Errorf("nvml device count: %v", ret)
	}
	if count == 0 {
		return core.NotObserved, fmt.Errorf("no NVIDIA devices visible")
	}

	var sum int
	var sampled int
	for i := 0; i < count; i++ {
		device, ret := s.nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue
		}
		rates, ret := device.GetUtilizationRates()
		if ret != nvml.SUCCESS {
			continue
		}
		sum += int(rates.Gpu)
		sampled++
	}
	if sampled == 0 {
		return core.NotObserved, fmt.Errorf("no NVIDIA device responded to utilization query")
	}
	return sum / sampled, nil
}
