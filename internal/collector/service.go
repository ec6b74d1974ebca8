package collector

import (
	"context"
	"os/exec"
	"strings"
	"time"

	models "github.com/m-aksenov/tinymon/internal/model"
)

const serviceProbeTimeout = 2 * time.Second

// Service reports liveness for a fixed list of systemd units, one sample
// per unit. A unit that is inactive, missing, or cannot be probed at all
// reports is_running=false; the family itself never fails.
type Service struct {
	services     []string
	probe        func(ctx context.Context, name string) (string, error)
	probeTimeout time.Duration
}

// NewService returns a service liveness collector for the given unit names.
func NewService(services []string) *Service {
	return &Service{
		services:     services,
		probe:        systemctlIsActive,
		probeTimeout: serviceProbeTimeout,
	}
}

// Name returns the source identifier.
func (s *Service) Name() string {
	return models.SourceService
}

// Collect probes every configured unit in order. Each probe gets its own
// deadline so one wedged unit cannot starve the rest of the list.
func (s *Service) Collect(ctx context.Context) ([]models.MetricSample, error) {
	now := time.Now().UTC()
	samples := make([]models.MetricSample, 0, len(s.services))
	for _, name := range s.services {
		probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
		state, err := s.probe(probeCtx, name)
		cancel()

		running := err == nil && state == "active"
		samples = append(samples, models.MetricSample{
			Source:    models.SourceService,
			Timestamp: now,
			Fields: []models.Field{
				{Name: "service_name", Value: name},
				{Name: "is_running", Value: running},
			},
		})
	}
	return samples, nil
}

// systemctlIsActive returns the unit state word printed by systemctl.
// is-active exits non-zero for anything but an active unit while still
// printing the state, so the exit error only matters when stdout is empty.
func systemctlIsActive(ctx context.Context, name string) (string, error) {
	out, err := exec.CommandContext(ctx, "systemctl", "is-active", name).Output()
	state := strings.TrimSpace(string(out))
	if state != "" {
		return state, nil
	}
	return "", err
}
