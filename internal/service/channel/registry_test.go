package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPublisher struct {
	name string
}

func (s *stubPublisher) Name() string     { return s.name }
func (s *stubPublisher) Language() string { return "en" }

func (s *stubPublisher) Publish(ctx context.Context, req Request) (*Result, error) {
	return &Result{ExternalID: s.name + "-1"}, nil
}

func (s *stubPublisher) Unpublish(ctx context.Context, externalID string) error { return nil }

type stubMetricsPublisher struct {
	stubPublisher
}

func (s *stubMetricsPublisher) FetchMetrics(ctx context.Context, externalID string) (*Metrics, error) {
	return &Metrics{Impressions: 1}, nil
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	require.NoError(t, registry.Register(&stubPublisher{name: Twitter}))
	require.NoError(t, registry.Register(&stubPublisher{name: Facebook}))

	assert.Error(t, registry.Register(&stubPublisher{name: Twitter}))

	assert.True(t, registry.Has(Facebook))
	assert.False(t, registry.Has(Email))

	got, err := registry.Get(Twitter)
	require.NoError(t, err)
	assert.Equal(t, Twitter, got.Name())

	_, err = registry.Get("myspace")
	assert.Error(t, err)

	assert.Equal(t, []string{Facebook, Twitter}, registry.Names())
}

func TestRegistryMetricsSources(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	require.NoError(t, registry.Register(&stubMetricsPublisher{stubPublisher{name: Facebook}}))
	require.NoError(t, registry.Register(&stubPublisher{name: Email}))

	sources := registry.MetricsSources()
	require.Len(t, sources, 1)
	_, ok := sources[Facebook]
	assert.True(t, ok)
}
