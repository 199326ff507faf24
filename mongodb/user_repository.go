package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/pilab-dev/shadow-login/domain"
)

// UserRepository implements domain.UserRepository on a MongoDB collection.
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates the repository and ensures the unique identity
// index.
func NewUserRepository(ctx context.Context, db *mongo.Database) (*UserRepository, error) {
	repo := &UserRepository{
		users: db.Collection(UsersCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *UserRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "provider", Value: 1},
				{Key: "external_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("provider_external_id_unique"),
		},
	}

	if _, err := r.users.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes for users collection: %w", err)
	}
	log.Info().Msg("Indexes for users collection ensured.")

	return nil
}

// FindByProviderAndExternalID implements domain.UserRepository.
func (r *UserRepository) FindByProviderAndExternalID(ctx context.Context, provider, externalID string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{
		{Key: "provider", Value: provider},
		{Key: "external_id", Value: externalID},
	})
}

// FindByID implements domain.UserRepository.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var user domain.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		log.Error().Err(err).Interface("filter", filter).Msg("Error getting user from MongoDB")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

// Save implements domain.UserRepository.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == "" {
		return r.insert(ctx, user)
	}

	return r.update(ctx, user)
}

func (r *UserRepository) insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	stored := *user
	stored.ID = bson.NewObjectID().Hex()
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	// BSON dates hold milliseconds; return what a later read will see.
	stored.CreatedAt = stored.CreatedAt.Truncate(time.Millisecond)
	stored.UpdatedAt = stored.UpdatedAt.Truncate(time.Millisecond)
	stored.LastLoginAt = stored.LastLoginAt.Truncate(time.Millisecond)

	if _, err := r.users.InsertOne(ctx, &stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateUser
		}
		log.Error().Err(err).
			Str("provider", user.Provider).
			Str("external_id", user.ExternalID).
			Msg("Error creating user in MongoDB")
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &stored, nil
}

func (r *UserRepository) update(ctx context.Context, user *domain.User) (*domain.User, error) {
	set := bson.D{
		{Key: "provider", Value: user.Provider},
		{Key: "external_id", Value: user.ExternalID},
		{Key: "username", Value: user.Username},
		{Key: "display_name", Value: user.DisplayName},
		{Key: "email", Value: user.Email},
		{Key: "avatar_url", Value: user.AvatarURL},
		{Key: "updated_at", Value: user.UpdatedAt},
		{Key: "last_login_at", Value: user.LastLoginAt},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var stored domain.User
	err := r.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: user.ID}}, bson.D{{Key: "$set", Value: set}}, opts).
		Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateUser
		}
		log.Error().Err(err).Str("userID", user.ID).Msg("Error updating user in MongoDB")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &stored, nil
}

// Ping implements domain.UserRepository.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.users.Database().Client().Ping(ctx, readpref.Primary())
}

var _ domain.UserRepository = (*UserRepository)(nil)
