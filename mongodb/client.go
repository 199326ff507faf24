package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"
)

var (
	clientInstance *mongo.Client
	dbInstance     *mongo.Database
	initOnce       sync.Once
	initErr        error
)

var errNotInitialized = errors.New("mongodb client is not initialized, call InitMongoDB first")

// InitMongoDB connects the process-wide client and selects dbName. Only the
// first call connects; later calls return its result.
func InitMongoDB(ctx context.Context, uri, dbName string) error {
	initOnce.Do(func() {
		log.Info().Str("db", dbName).Msg("Initializing MongoDB client")

		clientOptions := options.Client().
			ApplyURI(uri).
			SetConnectTimeout(10 * time.Second).
			SetMonitor(otelmongo.NewMonitor())

		client, err := mongo.Connect(clientOptions)
		if err != nil {
			initErr = fmt.Errorf("failed to connect to MongoDB: %w", err)
			return
		}

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			initErr = fmt.Errorf("failed to ping MongoDB primary: %w", err)
			return
		}

		clientInstance = client
		dbInstance = client.Database(dbName)
		log.Info().Msg("MongoDB client initialized successfully.")
	})

	return initErr
}

// GetDB returns the database selected by InitMongoDB.
func GetDB() (*mongo.Database, error) {
	if dbInstance == nil {
		return nil, errNotInitialized
	}

	return dbInstance, nil
}

// Ping checks the primary with a short deadline.
func Ping(ctx context.Context) error {
	if clientInstance == nil {
		return errNotInitialized
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return clientInstance.Ping(pingCtx, readpref.Primary())
}

// CloseMongoDB disconnects the client. It should be called on shutdown.
func CloseMongoDB(ctx context.Context) {
	if clientInstance != nil {
		log.Info().Msg("Closing MongoDB connection.")
		if err := clientInstance.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("Error closing MongoDB connection")
		}
	}
}
