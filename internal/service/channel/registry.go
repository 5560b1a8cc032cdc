package channel

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Registry holds the configured channel adapters keyed by name.
type Registry struct {
	publishers map[string]Publisher
	logger     *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		publishers: make(map[string]Publisher),
		logger:     logger,
	}
}

func (r *Registry) Register(publisher Publisher) error {
	name := publisher.Name()
	if _, exists := r.publishers[name]; exists {
		return fmt.Errorf("publisher for channel %s already registered", name)
	}

	r.publishers[name] = publisher
	r.logger.Info("Channel publisher registered", zap.String("channel", name))
	return nil
}

func (r *Registry) Get(name string) (Publisher, error) {
	publisher, exists := r.publishers[name]
	if !exists {
		return nil, fmt.Errorf("publisher for channel %s not found", name)
	}
	return publisher, nil
}

// Has reports whether a channel name is registered.
func (r *Registry) Has(name string) bool {
	_, exists := r.publishers[name]
	return exists
}

// Names returns the registered channel names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.publishers))
	for name := range r.publishers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MetricsSources returns the adapters that can report engagement numbers.
func (r *Registry) MetricsSources() map[string]MetricsSource {
	sources := make(map[string]MetricsSource)
	for name, publisher := range r.publishers {
		if src, ok := publisher.(MetricsSource); ok {
			sources[name] = src
		}
	}
	return sources
}
