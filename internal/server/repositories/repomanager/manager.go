// Package repomanager opens the account store selected by configuration and
// owns its connection for the lifetime of the server.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	// Open connects, prepares the schema and returns the account repository.
	Open(ctx context.Context) (accounts.Repository, error)
	Close(ctx context.Context) error
}

// Settings names the connection parameters of every supported driver; only
// the ones of the chosen driver are read.
type Settings struct {
	Driver        string
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string
}

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongodb"
)

func New(s Settings) (RepositoryManager, error) {
	switch s.Driver {
	case DriverPostgres, "":
		return &PostgresRepositoryManager{dsn: s.PostgresDSN}, nil
	case DriverMongo:
		return &MongoRepositoryManager{uri: s.MongoURI, database: s.MongoDatabase}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.Driver)
	}
}
