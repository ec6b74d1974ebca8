package collector

import (
	"fmt"
	"strings"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
)

// SelectAll is the selection keyword that enables every known collector.
const SelectAll = "all"

// Options carries the per-collector settings a constructor may need.
type Options struct {
	// Services is the list of systemd units probed by the service collector
	Services []string
}

// Spec binds a source name to its collector constructor.
type Spec struct {
	Name string
	New  func(opts Options) Collector
}

// specs lists every known collector in registration order. Envelope sample
// order follows this order when the selection is "all".
var specs = []Spec{
	{Name: models.SourceDiskUsage, New: func(Options) Collector { return NewDiskUsage() }},
	{Name: models.SourceNetwork, New: func(Options) Collector { return NewNetwork() }},
	{Name: models.SourceCPUFreq, New: func(Options) Collector { return NewCPUFreq() }},
	{Name: models.SourceUptime, New: func(Options) Collector { return NewUptime() }},
	{Name: models.SourceService, New: func(opts Options) Collector { return NewService(opts.Services) }},
	{Name: models.SourceSmart, New: func(Options) Collector { return NewSmart() }},
}

// Registry holds the collectors enabled for this agent run, in the order
// they were registered. That order is stable for the process lifetime and
// fixes the envelope sample order.
type Registry struct {
	collectors []Collector
}

// ParseSelection splits a comma-separated metrics value into a deduplicated
// name list. "all" expands to every known collector. Whitespace around names
// is ignored, empty items are dropped. The result preserves the order names
// first appear in.
func ParseSelection(raw string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(raw, ",") {
		name := strings.TrimSpace(item)
		if name == "" {
			continue
		}
		if name == SelectAll {
			for _, spec := range specs {
				if !seen[spec.Name] {
					seen[spec.Name] = true
					names = append(names, spec.Name)
				}
			}
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// ParseServices splits a comma-separated service list, trimming whitespace
// and dropping empty items.
func ParseServices(raw string) []string {
	var services []string
	for _, item := range strings.Split(raw, ",") {
		name := strings.TrimSpace(item)
		if name != "" {
			services = append(services, name)
		}
	}
	return services
}

// NewRegistry builds the collectors for the given selection. An unknown or
// empty selection is a configuration error and must stop the agent before
// the first tick.
func NewRegistry(names []string, opts Options) (*Registry, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: empty selection", internalerrors.ErrUnknownMetric)
	}
	registry := &Registry{collectors: make([]Collector, 0, len(names))}
	for _, name := range names {
		spec, ok := lookupSpec(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", internalerrors.ErrUnknownMetric, name)
		}
		registry.collectors = append(registry.collectors, spec.New(opts))
	}
	return registry, nil
}

func lookupSpec(name string) (Spec, bool) {
	for _, spec := range specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

// Collectors returns the registered collectors in registration order.
func (r *Registry) Collectors() []Collector {
	return r.collectors
}

// Names returns the registered source names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.collectors))
	for i, c := range r.collectors {
		names[i] = c.Name()
	}
	return names
}
