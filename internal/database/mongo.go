package repository

import (
	"WaGPT/internal/config"
	"WaGPT/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	chatHistoryCollection = "chat-history"
	mediaBucket           = "media"
)

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
	client        *mongo.Client
	mu            sync.Mutex
	log           *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return newMongoDB(clientOptions, conf.Mongo.Database, logger), nil
}

// NewMongoClientFromURI is used by integration tests and tooling.
func NewMongoClientFromURI(uri, database string, logger *slog.Logger) *MongoDB {
	return newMongoDB(options.Client().ApplyURI(uri), database, logger)
}

func newMongoDB(clientOptions *options.ClientOptions, database string, logger *slog.Logger) *MongoDB {
	return &MongoDB{
		clientOptions: clientOptions,
		database:      database,
		log:           logger.With(sl.Module("mongodb")),
	}
}

// connect returns the shared client, dialing it on first use.
func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}
	client, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	m.client = client
	return client, nil
}

func (m *MongoDB) db(ctx context.Context) (*mongo.Database, error) {
	client, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(m.database), nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	client, err := m.connect(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client = nil
	return err
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find error: %w", err)
}

// EnsureIndexes creates the TTL index that drops expired conversations.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	db, err := m.db(ctx)
	if err != nil {
		return err
	}

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = db.Collection(chatHistoryCollection).Indexes().CreateOne(ctx, index)
	if err != nil {
		return fmt.Errorf("mongodb create chat history index: %w", err)
	}
	return nil
}
