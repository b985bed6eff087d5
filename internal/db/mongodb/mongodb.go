package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tafsiri/tafsiri/internal/db"
	"github.com/tafsiri/tafsiri/internal/logger"
	"github.com/tafsiri/tafsiri/internal/models"
)

// MongoDB implements db.ConfigStore for MongoDB
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	config   *models.Config
	schema   *models.Schema
}

// New creates a new MongoDB store instance
func New(config *models.Config) (*MongoDB, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if config.Database == "" {
		return nil, fmt.Errorf("mongodb database name is required")
	}
	if config.Collection == "" {
		config.Collection = db.DefaultCollection
	}
	return &MongoDB{
		config: config,
		schema: models.ConfigurationSchema,
	}, nil
}

// NewWithDatabase creates a store on an already connected database
func NewWithDatabase(database *mongo.Database, config *models.Config) *MongoDB {
	if config.Collection == "" {
		config.Collection = db.DefaultCollection
	}
	return &MongoDB{
		client:   database.Client(),
		database: database,
		config:   config,
		schema:   models.ConfigurationSchema,
	}
}

// Connect establishes connection to MongoDB
func (m *MongoDB) Connect(ctx context.Context) error {
	clientOptions := options.Client().ApplyURI(clientURI(m.config.URI, m.config.Options))

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.client = client
	m.database = client.Database(m.config.Database)

	logger.Info("Connected to MongoDB database %s (collection %s)", m.config.Database, m.config.Collection)
	return nil
}

// clientURI appends the configured provider options to the connection
// string query, e.g. appName or maxPoolSize. Options already present in
// the URI win.
func clientURI(uri string, opts map[string]string) string {
	values := url.Values{}
	for k, v := range opts {
		if strings.Contains(uri, k+"=") {
			continue
		}
		values.Set(k, v)
	}
	if len(values) == 0 {
		return uri
	}

	_, rest, _ := strings.Cut(uri, "://")
	sep := "&"
	if !strings.Contains(rest, "?") {
		sep = "?"
		if !strings.Contains(rest, "/") {
			sep = "/?"
		}
	}
	return uri + sep + values.Encode()
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// Ping checks the database connection
func (m *MongoDB) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("not connected to database")
	}
	return m.client.Ping(ctx, nil)
}

// collection returns a handle on the configurations collection, or nil
// when the store is not connected
func (m *MongoDB) collection() *mongo.Collection {
	if m.database == nil {
		return nil
	}
	return m.database.Collection(m.config.Collection)
}

// ListConfigs returns every configuration in store order
func (m *MongoDB) ListConfigs(ctx context.Context) ([]models.Configuration, error) {
	coll := m.collection()
	if coll == nil {
		return nil, models.ErrUnavailable
	}

	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to list configurations", err)
	}
	defer cursor.Close(ctx)

	configs := make([]models.Configuration, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, models.NewError(models.KindInternal, "Failed to decode configuration", err)
		}
		configs = append(configs, m.schema.Normalize(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to list configurations", err)
	}

	return configs, nil
}

// CreateConfig inserts the set fields of cfg as a new document
func (m *MongoDB) CreateConfig(ctx context.Context, cfg models.Configuration) (models.Configuration, error) {
	coll := m.collection()
	if coll == nil {
		return nil, models.ErrUnavailable
	}

	doc := bson.M{}
	for k, v := range cfg.WithoutID() {
		doc[k] = v
	}

	result, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, models.NewError(models.KindOperationFailed, models.ErrCreateFailed.Message, err)
	}

	objectID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok || objectID.IsZero() {
		return nil, models.ErrCreateFailed
	}

	logger.Debug("Created configuration %s", objectID.Hex())
	return cfg.WithID(objectID.Hex()), nil
}

// GetConfig retrieves a configuration by ID
func (m *MongoDB) GetConfig(ctx context.Context, id string) (models.Configuration, error) {
	objectID, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}

	coll := m.collection()
	if coll == nil {
		return nil, models.ErrUnavailable
	}

	return m.findOne(ctx, coll, objectID)
}

// UpdateConfig applies a $set of the fields present in the update and
// returns the stored document afterwards
func (m *MongoDB) UpdateConfig(ctx context.Context, id string, fields models.Configuration) (models.Configuration, error) {
	objectID, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}

	coll := m.collection()
	if coll == nil {
		return nil, models.ErrUnavailable
	}

	if _, err := m.findOne(ctx, coll, objectID); err != nil {
		return nil, err
	}

	set := bson.M{}
	for k, v := range fields.WithoutID() {
		set[k] = v
	}
	if len(set) == 0 {
		// MongoDB rejects an empty $set, and nothing would be modified anyway
		if m.config.AllowNoopUpdates {
			return m.findOne(ctx, coll, objectID)
		}
		return nil, models.ErrUpdateFailed
	}

	result, err := coll.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to update configuration", err)
	}
	if result.MatchedCount == 0 {
		return nil, models.ErrConfigNotFound
	}
	if result.ModifiedCount == 0 && !m.config.AllowNoopUpdates {
		return nil, models.ErrUpdateFailed
	}

	return m.findOne(ctx, coll, objectID)
}

// DeleteConfig deletes a configuration by ID
func (m *MongoDB) DeleteConfig(ctx context.Context, id string) error {
	objectID, err := db.ParseID(id)
	if err != nil {
		return err
	}

	coll := m.collection()
	if coll == nil {
		return models.ErrUnavailable
	}

	result, err := coll.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return models.NewError(models.KindInternal, "Failed to delete configuration", err)
	}
	if result.DeletedCount != 1 {
		return models.ErrConfigNotFound
	}

	logger.Debug("Deleted configuration %s", id)
	return nil
}

func (m *MongoDB) findOne(ctx context.Context, coll *mongo.Collection, objectID primitive.ObjectID) (models.Configuration, error) {
	var doc bson.M
	err := coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrConfigNotFound
	}
	if err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to get configuration", err)
	}
	return m.schema.Normalize(doc), nil
}
