package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tafsiri/tafsiri/internal/models"
)

// ConfigStore defines the operations on the configurations collection.
// Errors returned by the CRUD methods are *models.Error values.
type ConfigStore interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	// Configuration operations
	ListConfigs(ctx context.Context) ([]models.Configuration, error)
	CreateConfig(ctx context.Context, cfg models.Configuration) (models.Configuration, error)
	GetConfig(ctx context.Context, id string) (models.Configuration, error)
	UpdateConfig(ctx context.Context, id string, fields models.Configuration) (models.Configuration, error)
	DeleteConfig(ctx context.Context, id string) error
}

// DefaultCollection is the collection (or table) holding configurations
const DefaultCollection = "configs"

// ParseID converts a 24-character hex string into an ObjectID. Any other
// input is rejected with models.ErrInvalidID.
func ParseID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidID
	}
	return objectID, nil
}
