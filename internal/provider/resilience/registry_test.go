package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripatlas/tripatlas/internal/provider/resilience"
)

func TestRegistry_RegisterAndHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	client := resilience.NewClient(resilience.DefaultClientConfig("amap"))

	registry.Register("amap", client)

	health := registry.GetHealth("amap")
	require.NotNil(t, health)
	assert.Equal(t, "amap", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()
	assert.Nil(t, registry.GetHealth("nonexistent"))
}

func TestRegistry_RecordSuccessAndFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	client := resilience.NewClient(resilience.DefaultClientConfig("qweather"))
	registry.Register("qweather", client)

	registry.RecordSuccess("qweather")
	health := registry.GetHealth("qweather")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)

	registry.RecordFailure("qweather", errors.New("timeout"))
	health = registry.GetHealth("qweather")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "timeout", health.LastError)
}

func TestRegistry_GetAllHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("amap", resilience.NewClient(resilience.DefaultClientConfig("amap")))
	registry.Register("qweather", resilience.NewClient(resilience.DefaultClientConfig("qweather")))
	registry.Register("dashscope", resilience.NewClient(resilience.DefaultClientConfig("dashscope")))

	all := registry.GetAllHealth()
	assert.Len(t, all, 3)
	assert.Equal(t, 3, registry.ProviderCount())
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("amap", resilience.NewClient(resilience.DefaultClientConfig("amap")))

	registry.Unregister("amap")
	assert.Nil(t, registry.GetHealth("amap"))
	assert.Equal(t, 0, registry.ProviderCount())
}
