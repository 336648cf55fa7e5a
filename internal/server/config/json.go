package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// both "15m"-style strings and integer nanoseconds. Absent fields leave the
// current value untouched.
type JsonConfig struct {
	EndpointAddrGRPC    *string         `json:"endpoint_addr_grpc"`
	MetricsAddr         *string         `json:"metrics_addr"`
	LogLevel            *string         `json:"log_level"`
	StorageDriver       *string         `json:"storage_driver"`
	DatabaseDSN         *string         `json:"database_dsn"`
	MongoURI            *string         `json:"mongo_uri"`
	MongoDatabase       *string         `json:"mongo_database"`
	RedisURL            *string         `json:"redis_url"`
	StoreTimeout        *timex.Duration `json:"store_timeout"`
	AccessPrivateKey    *string         `json:"access_private_key"`
	AccessPublicKey     *string         `json:"access_public_key"`
	RefreshSecret       *string         `json:"refresh_secret"`
	Issuer              *string         `json:"issuer"`
	AccessTokenTTL      *timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL     *timex.Duration `json:"refresh_token_ttl"`
	RefreshStoreTTL     *timex.Duration `json:"refresh_store_ttl"`
	LoginBy             *string         `json:"login_by"`
	BcryptCost          *int            `json:"bcrypt_cost"`
	MaxConcurrentHashes *int            `json:"max_concurrent_hashes"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
	S3AccessKey         *string         `json:"s3_access_key"`
	S3SecretKey         *string         `json:"s3_secret_key"`
}

// parseJson loads the file named by -c/-config (if any) and overlays its
// values onto config. An unreadable or malformed file panics, the same as a
// bad flag.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.AccessPrivateKey, c.AccessPrivateKey)
	setString(&config.AccessPublicKey, c.AccessPublicKey)
	setString(&config.RefreshSecret, c.RefreshSecret)
	setString(&config.Issuer, c.Issuer)
	setString(&config.LoginBy, c.LoginBy)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)

	if c.StoreTimeout != nil {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.AccessTokenTTL != nil {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL != nil {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.RefreshStoreTTL != nil {
		config.RefreshStoreTTL = c.RefreshStoreTTL.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.MaxConcurrentHashes != nil {
		config.MaxConcurrentHashes = *c.MaxConcurrentHashes
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
