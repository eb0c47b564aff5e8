package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth_Configured(t *testing.T) {
	svc := NewService(Options{APIConfigured: true, Model: "claude-3-5-sonnet-20240620"})
	stats := svc.Health()

	assert.Equal(t, "up", stats["status"])
	assert.Equal(t, "true", stats["api_configured"])
	assert.Equal(t, "claude-3-5-sonnet-20240620", stats["model"])
	assert.NotEmpty(t, stats["uptime"])
	assert.NotEmpty(t, stats["goroutines"])
	assert.NotEqual(t, "No API key configured; meal plan generation will fail.", stats["message"])
}

func TestHealth_Unconfigured(t *testing.T) {
	stats := NewService(Options{}).Health()

	assert.Equal(t, "up", stats["status"])
	assert.Equal(t, "false", stats["api_configured"])
	assert.NotEmpty(t, stats["message"])
}
