package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"-a", "127.0.0.1:9090", "-t", "5", "-f", "/tmp/s.json"},
			expected: &Config{ServerEndpointAddr: "127.0.0.1:9090", RequestTimeout: 5 * time.Second, TokenFile: "/tmp/s.json"}},
		{name: "timeout untouched when absent", args: []string{"-a", "h:1"},
			expected: &Config{ServerEndpointAddr: "h:1", RequestTimeout: time.Minute}},
		{name: "unknown flags ignored", args: []string{"register", "-u", "bob", "-a", "h:2"},
			expected: &Config{ServerEndpointAddr: "h:2", RequestTimeout: time.Minute}},
		{name: "incorrect timeout", args: []string{"-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{RequestTimeout: time.Minute}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
