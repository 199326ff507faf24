package mongodb

import (
	"context"

	"github.com/pilab-dev/shadow-login/domain"
)

// MongoRepositoryProvider serves repositories backed by the process-wide
// MongoDB client.
type MongoRepositoryProvider struct {
	userRepo *UserRepository
}

// NewMongoRepositoryProvider connects to mongoURI and prepares the
// repositories, creating their indexes.
func NewMongoRepositoryProvider(ctx context.Context, mongoURI, dbName string) (*MongoRepositoryProvider, error) {
	if err := InitMongoDB(ctx, mongoURI, dbName); err != nil {
		return nil, err
	}

	db, err := GetDB()
	if err != nil {
		return nil, err
	}

	userRepo, err := NewUserRepository(ctx, db)
	if err != nil {
		return nil, err
	}

	return &MongoRepositoryProvider{userRepo: userRepo}, nil
}

// UserRepository implements services.RepositoryProvider.
func (p *MongoRepositoryProvider) UserRepository() domain.UserRepository {
	return p.userRepo
}

// Close disconnects the shared client.
func (p *MongoRepositoryProvider) Close(ctx context.Context) error {
	CloseMongoDB(ctx)
	return nil
}
