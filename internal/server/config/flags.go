package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var knownFlags = []string{
	"-a", "-m", "-l", "-driver", "-d", "-mongo-uri", "-mongo-db", "-redis", "-store-timeout",
	"-k", "-K", "-s", "-issuer", "-t", "-r", "-store-ttl", "-login-by", "-bcrypt-cost",
	"-max-hashes", "-g", "-e", "-u", "-p",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          gRPC bind address (e.g., ":50051")
//	-m string          metrics bind address, empty disables the endpoint
//	-l string          log level
//	-driver string     account storage driver: postgres | mongodb
//	-d string          PostgreSQL DSN
//	-mongo-uri string  MongoDB connection URI
//	-mongo-db string   MongoDB database name
//	-redis string      Redis URL for the refresh session store
//	-store-timeout d   per-call refresh store timeout (e.g. 2s)
//	-k string          access token private key location (path or s3://bucket/key)
//	-K string          access token public key location
//	-s string          refresh token HMAC secret
//	-issuer string     token issuer
//	-t int             access token TTL, minutes
//	-r int             refresh token TTL, minutes
//	-store-ttl int     refresh session record TTL, minutes (0 = refresh token TTL)
//	-login-by string   login identifier: username | email
//	-bcrypt-cost int   bcrypt work factor
//	-max-hashes int    concurrent password hash operations
//	-g, -e, -u, -p     S3 region, endpoint, access key, secret key
//
// Unknown arguments are filtered out first so that other components can
// share os.Args.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.StorageDriver, "driver", config.StorageDriver, "account storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "mongo-uri", config.MongoURI, "mongodb URI")
	fs.StringVar(&config.MongoDatabase, "mongo-db", config.MongoDatabase, "mongodb database")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis URL")
	fs.DurationVar(&config.StoreTimeout, "store-timeout", config.StoreTimeout, "refresh store timeout")
	fs.StringVar(&config.AccessPrivateKey, "k", config.AccessPrivateKey, "access token private key location")
	fs.StringVar(&config.AccessPublicKey, "K", config.AccessPublicKey, "access token public key location")
	fs.StringVar(&config.RefreshSecret, "s", config.RefreshSecret, "refresh token secret")
	fs.StringVar(&config.Issuer, "issuer", config.Issuer, "token issuer")
	accessTokenTTL := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token ttl (in minutes)")
	refreshTokenTTL := fs.Int("r", int(config.RefreshTokenTTL.Minutes()), "refresh token ttl (in minutes)")
	refreshStoreTTL := fs.Int("store-ttl", int(config.RefreshStoreTTL.Minutes()), "refresh store ttl (in minutes)")
	fs.StringVar(&config.LoginBy, "login-by", config.LoginBy, "login identifier")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.MaxConcurrentHashes, "max-hashes", config.MaxConcurrentHashes, "max concurrent password hashes")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	// Minute-granularity flags only override values that were given explicitly,
	// so sub-minute TTLs from JSON or the environment survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenTTL = time.Duration(*accessTokenTTL) * time.Minute
		case "r":
			config.RefreshTokenTTL = time.Duration(*refreshTokenTTL) * time.Minute
		case "store-ttl":
			config.RefreshStoreTTL = time.Duration(*refreshStoreTTL) * time.Minute
		}
	})
}
