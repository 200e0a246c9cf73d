package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.UseMemoryQueue)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, time.Duration(0), cfg.ConversationStateTTL)
	assert.Equal(t, "v18.0", cfg.WhatsAppAPIVersion)
	assert.Equal(t, "sandbox", cfg.WompiEnvironment)
	assert.Equal(t, "COP", cfg.WompiCurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("USE_MEMORY_QUEUE", "false")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("CONVERSATION_STATE_TTL", "24h")
	t.Setenv("WOMPI_ENVIRONMENT", "production")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.UseMemoryQueue)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 24*time.Hour, cfg.ConversationStateTTL)
	assert.Equal(t, "production", cfg.WompiEnvironment)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("WORKER_COUNT", "lots")
	t.Setenv("USE_MEMORY_QUEUE", "si")
	t.Setenv("CONVERSATION_STATE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 2, cfg.WorkerCount)
	assert.True(t, cfg.UseMemoryQueue)
	assert.Equal(t, time.Duration(0), cfg.ConversationStateTTL)
}
