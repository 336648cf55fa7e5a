package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// verify MongoRepository implements Repository at compile time
var _ Repository = (*MongoRepository)(nil)

const accountsCollection = "accounts"

// Collection is the subset of *mongo.Collection used by MongoRepository.
type Collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
}

type mongoAccount struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (m mongoAccount) model() *models.Account {
	return &models.Account{
		ID:           m.ID,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         common.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type MongoRepository struct {
	coll Collection
}

func NewMongoRepository(coll Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// ConnectMongo opens a client and ensures the unique indexes on email and
// username exist.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Client, *MongoRepository, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	coll := client.Database(database).Collection(accountsCollection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("accounts_email_key")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("accounts_username_key")},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo indexes: %w", err)
	}

	return client, NewMongoRepository(coll), nil
}

func (r *MongoRepository) Insert(ctx context.Context, draft models.AccountDraft) (*models.Account, error) {
	draft.Normalize()
	if err := validation.Draft(&draft); err != nil {
		return nil, err
	}

	t := time.Now().UTC()
	doc := mongoAccount{
		ID:           uuid.NewString(),
		Email:        draft.Email,
		Username:     draft.Username,
		PasswordHash: draft.PasswordHash,
		Role:         string(draft.Role),
		CreatedAt:    t,
		UpdatedAt:    t,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			field := mongoDuplicateField(err)
			return nil, &common.DuplicateKeyError{Field: field, Value: duplicateValue(draft, field)}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc.model(), nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: models.NormalizeUsername(username)}})
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: models.NormalizeEmail(email)}})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D) (*models.Account, error) {
	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.model(), nil
}

func (r *MongoRepository) Remove(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

// mongoDuplicateField recovers the field from the E11000 message, which names
// the index ("... index: accounts_email_key dup key: ...").
func mongoDuplicateField(err error) string {
	msg := strings.ToLower(err.Error())
	if i := strings.Index(msg, "index:"); i >= 0 {
		msg = msg[i:]
		if j := strings.Index(msg, "dup key"); j >= 0 {
			msg = msg[:j]
		}
	}
	switch {
	case strings.Contains(msg, "email"):
		return "email"
	case strings.Contains(msg, "username"):
		return "username"
	}
	return ""
}
