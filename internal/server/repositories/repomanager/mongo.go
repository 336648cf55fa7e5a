package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type MongoRepositoryManager struct {
	uri      string
	database string
	client   *mongo.Client
}

var connectMongo = accounts.ConnectMongo

func (m *MongoRepositoryManager) Open(ctx context.Context) (accounts.Repository, error) {
	client, repo, err := connectMongo(ctx, m.uri, m.database)
	if err != nil {
		return nil, err
	}
	m.client = client
	return repo, nil
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
