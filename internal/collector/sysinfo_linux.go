//go:build linux

package collector

import "golang.org/x/sys/unix"

// sysinfoUptime reads seconds since boot straight from the kernel, for
// hosts where the /proc based reading is unavailable.
func sysinfoUptime() (uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	if info.Uptime < 0 {
		return 0, nil
	}
	return uint64(info.Uptime), nil
}
