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
		{name: "all flags", args: []string{
			"-a", "127.0.0.1:9090", "-m", ":9100", "-l", "debug", "-driver", "mongodb",
			"-d", "db", "-mongo-uri", "mongodb://m", "-mongo-db", "auth", "-redis", "redis://r:6379/1",
			"-store-timeout", "500ms", "-k", "s3://keys/access.pem", "-K", "pub.pem", "-s", "secret",
			"-issuer", "iss", "-t", "5", "-r", "60", "-store-ttl", "30", "-login-by", "email",
			"-bcrypt-cost", "12", "-max-hashes", "2",
			"-g", "us-west-1", "-e", "http://endpoint", "-u", "user", "-p", "password",
		},
			expected: &Config{
				EndpointAddrGRPC:    "127.0.0.1:9090",
				MetricsAddr:         ":9100",
				LogLevel:            "debug",
				StorageDriver:       "mongodb",
				DatabaseDSN:         "db",
				MongoURI:            "mongodb://m",
				MongoDatabase:       "auth",
				RedisURL:            "redis://r:6379/1",
				StoreTimeout:        500 * time.Millisecond,
				AccessPrivateKey:    "s3://keys/access.pem",
				AccessPublicKey:     "pub.pem",
				RefreshSecret:       "secret",
				Issuer:              "iss",
				AccessTokenTTL:      5 * time.Minute,
				RefreshTokenTTL:     60 * time.Minute,
				RefreshStoreTTL:     30 * time.Minute,
				LoginBy:             "email",
				BcryptCost:          12,
				MaxConcurrentHashes: 2,
				S3Region:            "us-west-1",
				S3BaseEndpoint:      "http://endpoint",
				S3AccessKey:         "user",
				S3SecretKey:         "password",
			}},
		{name: "unset minute flags keep sub-minute values", args: []string{"-a", ":1"},
			expected: &Config{EndpointAddrGRPC: ":1", AccessTokenTTL: 30 * time.Second}},
		{name: "bad int", args: []string{"-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{AccessTokenTTL: 30 * time.Second}
			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config, tt.args) })
				assert.Empty(t, cmp.Diff(tt.expected, config))
			} else {
				require.Panics(t, func() { parseFlags(config, tt.args) })
			}
		})
	}
}
