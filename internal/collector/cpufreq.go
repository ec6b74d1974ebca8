package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/shirou/gopsutil/v4/cpu"
)

const cpufreqSysfsRoot = "/sys/devices/system/cpu"

// CPUFreq reports the current frequency of each core in Hz. The primary
// source is the cpufreq sysfs tree; hosts without cpufreq scaling fall back
// to the processor info table.
type CPUFreq struct {
	sysfsRoot string
	fallback  func(ctx context.Context) ([]cpu.InfoStat, error)
}

// NewCPUFreq returns a CPU frequency collector.
func NewCPUFreq() *CPUFreq {
	return &CPUFreq{
		sysfsRoot: cpufreqSysfsRoot,
		fallback:  cpu.InfoWithContext,
	}
}

// Name returns the source identifier.
func (c *CPUFreq) Name() string {
	return models.SourceCPUFreq
}

// Collect reads scaling_cur_freq for every core directory, converting the
// kernel's kHz figure to Hz. Cores without a cpufreq directory are skipped.
// When sysfs yields nothing the fallback table supplies a per-core MHz
// figure instead.
func (c *CPUFreq) Collect(ctx context.Context) ([]models.MetricSample, error) {
	now := time.Now().UTC()
	samples := c.collectSysfs(now)
	if len(samples) > 0 {
		return samples, nil
	}

	infos, err := c.fallback(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: no cpu frequency data", internalerrors.ErrUnavailable)
	}
	samples = make([]models.MetricSample, 0, len(infos))
	for i, info := range infos {
		core := int64(info.CPU)
		if core < 0 {
			core = int64(i)
		}
		samples = append(samples, freqSample(now, core, uint64(info.Mhz*1e6)))
	}
	return samples, nil
}

func (c *CPUFreq) collectSysfs(now time.Time) []models.MetricSample {
	entries, err := os.ReadDir(c.sysfsRoot)
	if err != nil {
		return nil
	}
	cores := make([]int64, 0, len(entries))
	freqs := make(map[int64]uint64, len(entries))
	for _, entry := range entries {
		index, ok := coreIndex(entry.Name())
		if !ok {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(c.sysfsRoot, entry.Name(), "cpufreq", "scaling_cur_freq"))
		if err != nil {
			continue
		}
		khz, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			continue
		}
		cores = append(cores, index)
		freqs[index] = khz * 1000
	}
	sort.Slice(cores, func(i, j int) bool { return cores[i] < cores[j] })

	samples := make([]models.MetricSample, 0, len(cores))
	for _, core := range cores {
		samples = append(samples, freqSample(now, core, freqs[core]))
	}
	return samples
}

// coreIndex extracts N from a "cpuN" directory name.
func coreIndex(name string) (int64, bool) {
	rest, found := strings.CutPrefix(name, "cpu")
	if !found || rest == "" {
		return 0, false
	}
	index, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

func freqSample(now time.Time, core int64, hz uint64) models.MetricSample {
	return models.MetricSample{
		Source:    models.SourceCPUFreq,
		Timestamp: now,
		Fields: []models.Field{
			{Name: "core_index", Value: core},
			{Name: "current_frequency_hz", Value: hz},
		},
	}
}
