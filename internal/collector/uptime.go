package collector

import (
	"context"
	"sync"
	"time"

	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/shirou/gopsutil/v4/host"
)

// Uptime reports seconds since boot. The reading is held non-decreasing for
// the process lifetime so a jittery clock source can never report a reboot
// that did not happen.
type Uptime struct {
	mu      sync.Mutex
	highest uint64
	uptime  func(ctx context.Context) (uint64, error)
	sysinfo func() (uint64, error)
}

// NewUptime returns an uptime collector.
func NewUptime() *Uptime {
	return &Uptime{
		uptime:  host.UptimeWithContext,
		sysinfo: sysinfoUptime,
	}
}

// Name returns the source identifier.
func (u *Uptime) Name() string {
	return models.SourceUptime
}

// Collect reads the boot clock, falling back to the sysinfo syscall when the
// primary source fails.
func (u *Uptime) Collect(ctx context.Context) ([]models.MetricSample, error) {
	seconds, err := u.uptime(ctx)
	if err != nil {
		seconds, err = u.sysinfo()
		if err != nil {
			return nil, classify(err)
		}
	}

	u.mu.Lock()
	if seconds < u.highest {
		seconds = u.highest
	} else {
		u.highest = seconds
	}
	u.mu.Unlock()

	return []models.MetricSample{{
		Source:    models.SourceUptime,
		Timestamp: time.Now().UTC(),
		Fields: []models.Field{
			{Name: "seconds_since_boot", Value: seconds},
		},
	}}, nil
}
