package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no frames in flight", func(c *Config) { c.FramesInFlight = 0 }},
		{"no swapchain extension", func(c *Config) { c.DeviceExtensions = nil }},
		{"validation without layers", func(c *Config) {
			c.Validation = true
			c.ValidationLayers = nil
		}},
		{"clear color out of range", func(c *Config) { c.ClearColor = mgl32.Vec4{0, 0, 2, 1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
