// Package collector samples host metric families and normalizes them into
// the common sample shape. Each collector owns one family: disk usage,
// network traffic deltas, CPU frequency, uptime, systemd service liveness
// and NVMe SMART health. Collectors are stateless except where a family
// needs history (network deltas, uptime monotonicity), never panic, and
// report failures as wrapped sentinel errors from the errors package.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
)

// Collector produces the samples of one metric family for a single tick.
type Collector interface {
	// Name returns the stable source identifier of the family.
	Name() string

	// Collect gathers the family's samples. It honors ctx cancellation and
	// returns either a non-nil sample slice or an error, never both.
	Collect(ctx context.Context) ([]models.MetricSample, error)
}

// classify wraps a raw read failure with the matching sentinel so callers
// can branch with errors.Is.
func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", internalerrors.ErrTimeout, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", internalerrors.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %v", internalerrors.ErrUnavailable, err)
	}
}
