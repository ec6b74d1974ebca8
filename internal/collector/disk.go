package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/shirou/gopsutil/v4/disk"
)

// DiskUsage reports capacity figures for every real mounted filesystem,
// one sample per mount point.
type DiskUsage struct {
	partitions func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	usage      func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// NewDiskUsage returns a disk usage collector backed by the OS mount table.
func NewDiskUsage() *DiskUsage {
	return &DiskUsage{
		partitions: disk.PartitionsWithContext,
		usage:      disk.UsageWithContext,
	}
}

// Name returns the source identifier.
func (d *DiskUsage) Name() string {
	return models.SourceDiskUsage
}

// Collect enumerates physical mounts and reports total, used and free bytes
// per mount point. A mount that cannot be statted is skipped; enumeration
// failure or zero accessible mounts fails the whole family.
func (d *DiskUsage) Collect(ctx context.Context) ([]models.MetricSample, error) {
	parts, err := d.partitions(ctx, false)
	if err != nil {
		return nil, classify(err)
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(parts))
	mounts := make([]string, 0, len(parts))
	for _, part := range parts {
		if !seen[part.Mountpoint] {
			seen[part.Mountpoint] = true
			mounts = append(mounts, part.Mountpoint)
		}
	}
	sort.Strings(mounts)

	samples := make([]models.MetricSample, 0, len(mounts))
	for _, mount := range mounts {
		stat, err := d.usage(ctx, mount)
		if err != nil || stat == nil || stat.Total == 0 {
			continue
		}
		samples = append(samples, models.MetricSample{
			Source:    models.SourceDiskUsage,
			Timestamp: now,
			Fields: []models.Field{
				{Name: "mount_point", Value: mount},
				{Name: "total_bytes", Value: stat.Total},
				{Name: "used_bytes", Value: stat.Used},
				{Name: "free_bytes", Value: stat.Free},
			},
		})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no accessible mounts", internalerrors.ErrUnavailable)
	}
	return samples, nil
}
