package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "GOPHAUTH_"

// parseEnv overlays GOPHAUTH_* environment variables. A .env file (or the
// file named by GOPHAUTH_ENV_FILE) is loaded first without overriding
// variables that are already set. Malformed numeric or duration values panic.
func parseEnv(config *Config) {
	envFile := os.Getenv(envPrefix + "ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	envString(&config.MetricsAddr, "METRICS_ADDR")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.StorageDriver, "STORAGE_DRIVER")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.MongoURI, "MONGO_URI")
	envString(&config.MongoDatabase, "MONGO_DATABASE")
	envString(&config.RedisURL, "REDIS_URL")
	envDuration(&config.StoreTimeout, "STORE_TIMEOUT")
	envString(&config.AccessPrivateKey, "ACCESS_PRIVATE_KEY")
	envString(&config.AccessPublicKey, "ACCESS_PUBLIC_KEY")
	envString(&config.RefreshSecret, "REFRESH_SECRET")
	envString(&config.Issuer, "ISSUER")
	envDuration(&config.AccessTokenTTL, "ACCESS_TOKEN_TTL")
	envDuration(&config.RefreshTokenTTL, "REFRESH_TOKEN_TTL")
	envDuration(&config.RefreshStoreTTL, "REFRESH_STORE_TTL")
	envString(&config.LoginBy, "LOGIN_BY")
	envInt(&config.BcryptCost, "BCRYPT_COST")
	envInt(&config.MaxConcurrentHashes, "MAX_CONCURRENT_HASHES")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3AccessKey, "S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "S3_SECRET_KEY")
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(dst *time.Duration, name string) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
