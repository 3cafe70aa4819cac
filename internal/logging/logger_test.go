package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := WithComponent(New(Options{Level: "debug", Output: &buf}), "processor")

	log.Debug().Str("game_id", "0022400001").Msg("processing")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "courtside", entry["service"])
	assert.Equal(t, "processor", entry["component"])
	assert.Equal(t, "0022400001", entry["game_id"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "processing", entry["message"])
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		logged bool
	}{
		{"default is info", "", false},
		{"unknown falls back to info", "loud", false},
		{"debug enabled", "debug", true},
		{"warn hides debug", "warn", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Options{Level: tt.level, Output: &buf})
			logger.Debug().Msg("hidden?")
			assert.Equal(t, tt.logged, buf.Len() > 0)
		})
	}
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Pretty: true, Output: &buf})
	logger.Info().Msg("ready")

	assert.Contains(t, buf.String(), "ready")
	assert.False(t, json.Valid(buf.Bytes()))
}
