package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
)

const nvmeSysfsRoot = "/sys/class/nvme"

// smartFieldKeys fixes the wire order of the SMART attributes taken from
// the nvme-cli JSON report. Keys missing from a given report are omitted.
var smartFieldKeys = []string{
	"critical_warning",
	"temperature",
	"avail_spare",
	"spare_thresh",
	"percent_used",
	"data_units_read",
	"data_units_written",
	"host_read_commands",
	"host_write_commands",
	"controller_busy_time",
	"power_cycles",
	"power_on_hours",
	"unsafe_shutdowns",
	"media_errors",
	"num_err_log_entries",
	"warning_temp_time",
	"critical_comp_time",
}

// Smart reports NVMe SMART health attributes, one sample per controller.
// Controllers are discovered through sysfs and read with the nvme-cli tool.
type Smart struct {
	sysfsRoot string
	run       func(ctx context.Context, device string) ([]byte, error)
}

// NewSmart returns a SMART health collector.
func NewSmart() *Smart {
	return &Smart{
		sysfsRoot: nvmeSysfsRoot,
		run:       nvmeSmartLog,
	}
}

// Name returns the source identifier.
func (s *Smart) Name() string {
	return models.SourceSmart
}

// Collect enumerates NVMe controllers and reads each one's SMART log.
// A controller whose report cannot be fetched or parsed is skipped; the
// family fails only when no controller yields a report at all.
func (s *Smart) Collect(ctx context.Context) ([]models.MetricSample, error) {
	entries, err := os.ReadDir(s.sysfsRoot)
	if err != nil {
		return nil, classify(err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no nvme controllers", internalerrors.ErrUnavailable)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	now := time.Now().UTC()
	samples := make([]models.MetricSample, 0, len(names))
	for _, name := range names {
		out, err := s.run(ctx, "/dev/"+name)
		if err != nil {
			continue
		}
		fields, err := parseSmartLog(name, out)
		if err != nil {
			continue
		}
		samples = append(samples, models.MetricSample{
			Source:    models.SourceSmart,
			Timestamp: now,
			Fields:    fields,
		})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no smart reports", internalerrors.ErrUnavailable)
	}
	return samples, nil
}

// parseSmartLog extracts the known attributes from an nvme-cli JSON report,
// preserving the fixed key order.
func parseSmartLog(device string, raw []byte) ([]models.Field, error) {
	var report map[string]any
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerrors.ErrParse, err)
	}
	fields := make([]models.Field, 0, len(smartFieldKeys)+1)
	fields = append(fields, models.Field{Name: "device", Value: device})
	for _, key := range smartFieldKeys {
		if value, ok := smartValue(report[key]); ok {
			fields = append(fields, models.Field{Name: key, Value: value})
		}
	}
	if len(fields) == 1 {
		return nil, fmt.Errorf("%w: report carries no known attributes", internalerrors.ErrParse)
	}
	return fields, nil
}

// smartValue coerces a decoded JSON number to uint64. nvme-cli emits all
// SMART attributes as non-negative integers.
func smartValue(value any) (uint64, bool) {
	number, ok := value.(float64)
	if !ok || number < 0 {
		return 0, false
	}
	return uint64(number), true
}

func nvmeSmartLog(ctx context.Context, device string) ([]byte, error) {
	return exec.CommandContext(ctx, "nvme", "smart-log", device, "-o", "json").Output()
}
