// Package agent wires the collection side together: configuration shared by
// the agent binary and the runtime counters behind its diagnostics endpoint.
package agent

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
)

type AgentConfig struct {
	SendHost           string
	SendPort           int
	Metrics            string
	CollectionInterval int
	CollectorTimeout   int
	Services           string
	ProbeAddress       string
}

func NewAgentConfig() (*AgentConfig, error) {
	config := &AgentConfig{}

	sendHost := flag.String("send-host", "127.0.0.1", "Destination host for metric envelopes")
	sendPort := flag.Int("send-port", 1555, "Destination UDP port for metric envelopes")
	metrics := flag.String("metrics", "all", "Comma-separated collectors to enable, or all")
	collectionInterval := flag.Int("collection-interval", 10, "Seconds between collection ticks")
	collectorTimeout := flag.Int("collector-timeout", 3, "Per-collector timeout in seconds")
	services := flag.String("services", "sshd,cron", "Comma-separated systemd units for the service collector")
	probeAddress := flag.String("probe-address", "", "Listen address for the diagnostics endpoint, empty disables it")
	flag.Parse()

	envIntVars := map[string]*int{
		"SEND_PORT":           sendPort,
		"COLLECTION_INTERVAL": collectionInterval,
		"COLLECTOR_TIMEOUT":   collectorTimeout,
	}

	envStrVars := map[string]*string{
		"SEND_HOST":     sendHost,
		"METRICS":       metrics,
		"SERVICES":      services,
		"PROBE_ADDRESS": probeAddress,
	}

	for envVar, target := range envIntVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			parsed, err := strconv.Atoi(envValue)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q: %w", envVar, envValue, err)
			}
			*target = parsed
		}
	}

	for envVar, target := range envStrVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*target = envValue
		}
	}
	config.SendHost = *sendHost
	config.SendPort = *sendPort
	config.Metrics = *metrics
	config.CollectionInterval = *collectionInterval
	config.CollectorTimeout = *collectorTimeout
	config.Services = *services
	config.ProbeAddress = *probeAddress

	if config.CollectionInterval <= 0 {
		return nil, fmt.Errorf("%w: collection interval %d", internalerrors.ErrBadInterval, config.CollectionInterval)
	}
	if config.CollectorTimeout <= 0 {
		return nil, fmt.Errorf("%w: collector timeout %d", internalerrors.ErrBadInterval, config.CollectorTimeout)
	}
	if config.SendPort < 1 || config.SendPort > 65535 {
		return nil, fmt.Errorf("%w: port %d", internalerrors.ErrBadAddress, config.SendPort)
	}

	return config, nil
}
