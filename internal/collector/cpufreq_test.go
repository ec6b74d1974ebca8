package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCoreFreq(t *testing.T, root string, core int, value string) {
	t.Helper()
	dir := filepath.Join(root, "cpu"+strconv.Itoa(core), "cpufreq")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scaling_cur_freq"), []byte(value), 0o644))
}

func TestCPUFreq_SysfsReading(t *testing.T) {
	root := t.TempDir()
	writeCoreFreq(t, root, 1, "2800000\n")
	writeCoreFreq(t, root, 0, "1500000\n")
	// A directory that is not a core must be ignored
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cpufreq"), 0o755))

	collector := NewCPUFreq()
	collector.sysfsRoot = root

	samples, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 2)

	// Cores come back in ascending index order, kHz converted to Hz
	assert.Equal(t, int64(0), samples[0].Fields[0].Value)
	assert.Equal(t, uint64(1500000000), samples[0].Fields[1].Value)
	assert.Equal(t, int64(1), samples[1].Fields[0].Value)
	assert.Equal(t, uint64(2800000000), samples[1].Fields[1].Value)
}

func TestCPUFreq_CoreWithoutCpufreqSkipped(t *testing.T) {
	root := t.TempDir()
	writeCoreFreq(t, root, 0, "2000000")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cpu1"), 0o755))

	collector := NewCPUFreq()
	collector.sysfsRoot = root

	samples, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, int64(0), samples[0].Fields[0].Value)
}

func TestCPUFreq_FallbackToProcessorTable(t *testing.T) {
	collector := NewCPUFreq()
	collector.sysfsRoot = filepath.Join(t.TempDir(), "missing")
	collector.fallback = func(ctx context.Context) ([]cpu.InfoStat, error) {
		return []cpu.InfoStat{
			{CPU: 0, Mhz: 2400},
			{CPU: 1, Mhz: 2400},
		}, nil
	}

	samples, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, uint64(2400000000), samples[0].Fields[1].Value)
}

func TestCPUFreq_NoSourceAvailable(t *testing.T) {
	collector := NewCPUFreq()
	collector.sysfsRoot = filepath.Join(t.TempDir(), "missing")
	collector.fallback = func(ctx context.Context) ([]cpu.InfoStat, error) {
		return nil, errors.New("cpuinfo unreadable")
	}

	_, err := collector.Collect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerrors.ErrUnavailable)
}
