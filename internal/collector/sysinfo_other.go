//go:build !linux

package collector

import (
	"fmt"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
)

func sysinfoUptime() (uint64, error) {
	return 0, fmt.Errorf("%w: sysinfo not supported on this platform", internalerrors.ErrUnavailable)
}
