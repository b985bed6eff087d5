package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tafsiri/tafsiri/internal/db"
	"github.com/tafsiri/tafsiri/internal/logger"
	"github.com/tafsiri/tafsiri/internal/models"
)

// SQLite implements db.ConfigStore on a single SQLite file, storing each
// configuration as a JSON document
type SQLite struct {
	db     *sql.DB
	config *models.Config
	schema *models.Schema
}

// New creates a new SQLite store instance
func New(config *models.Config) (*SQLite, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	if config.Collection == "" {
		config.Collection = db.DefaultCollection
	}
	return &SQLite{
		config: config,
		schema: models.ConfigurationSchema,
	}, nil
}

// Connect opens the database file and applies migrations
func (s *SQLite) Connect(ctx context.Context) error {
	dbPath, err := expandPath(s.config.URI)
	if err != nil {
		return err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dataSourceName(dbPath, s.config.Options))
	if err != nil {
		return fmt.Errorf("failed to open SQLite database at path '%s': %w", dbPath, err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to ping SQLite database at path '%s': %w", dbPath, err)
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = sqlDB
	logger.Info("Opened SQLite store at %s (collection %s)", dbPath, s.config.Collection)
	return nil
}

// Disconnect closes the SQLite connection
func (s *SQLite) Disconnect(ctx context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Ping checks the database connection
func (s *SQLite) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("not connected to database")
	}
	return s.db.PingContext(ctx)
}

// ListConfigs returns every configuration in insertion order
func (s *SQLite) ListConfigs(ctx context.Context) ([]models.Configuration, error) {
	if s.db == nil {
		return nil, models.ErrUnavailable
	}

	query := `SELECT id, document FROM configurations WHERE collection = ? ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, s.config.Collection)
	if err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to list configurations", err)
	}
	defer rows.Close()

	configs := make([]models.Configuration, 0)
	for rows.Next() {
		var id, document string
		if err := rows.Scan(&id, &document); err != nil {
			return nil, models.NewError(models.KindInternal, "Failed to scan configuration", err)
		}
		cfg, err := s.decode(id, document)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to list configurations", err)
	}

	return configs, nil
}

// CreateConfig inserts the set fields of cfg under a new ObjectID
func (s *SQLite) CreateConfig(ctx context.Context, cfg models.Configuration) (models.Configuration, error) {
	if s.db == nil {
		return nil, models.ErrUnavailable
	}

	document, err := json.Marshal(cfg.WithoutID())
	if err != nil {
		return nil, models.NewError(models.KindInvalidPayload, "Failed to encode configuration", err)
	}

	id := primitive.NewObjectID().Hex()
	now := time.Now().UTC()

	query := `
		INSERT INTO configurations (id, collection, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query, id, s.config.Collection, string(document), now, now)
	if err != nil {
		return nil, models.NewError(models.KindOperationFailed, models.ErrCreateFailed.Message, err)
	}
	if n, err := result.RowsAffected(); err != nil || n != 1 {
		return nil, models.ErrCreateFailed
	}

	logger.Debug("Created configuration %s", id)
	return cfg.WithID(id), nil
}

// GetConfig retrieves a configuration by ID
func (s *SQLite) GetConfig(ctx context.Context, id string) (models.Configuration, error) {
	objectID, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	if s.db == nil {
		return nil, models.ErrUnavailable
	}

	return s.findOne(ctx, objectID.Hex())
}

// UpdateConfig overwrites the fields present in the update, leaving the
// others untouched
func (s *SQLite) UpdateConfig(ctx context.Context, id string, fields models.Configuration) (models.Configuration, error) {
	objectID, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	if s.db == nil {
		return nil, models.ErrUnavailable
	}

	current, err := s.findOne(ctx, objectID.Hex())
	if err != nil {
		return nil, err
	}

	merged := current.WithoutID()
	modified := false
	for k, v := range fields.WithoutID() {
		if old, ok := merged[k]; !ok || !reflect.DeepEqual(old, v) {
			modified = true
		}
		merged[k] = v
	}
	if !modified {
		if s.config.AllowNoopUpdates {
			return current, nil
		}
		return nil, models.ErrUpdateFailed
	}

	document, err := json.Marshal(merged)
	if err != nil {
		return nil, models.NewError(models.KindInvalidPayload, "Failed to encode configuration", err)
	}

	query := `UPDATE configurations SET document = ?, updated_at = ? WHERE id = ? AND collection = ?`
	result, err := s.db.ExecContext(ctx, query, string(document), time.Now().UTC(), objectID.Hex(), s.config.Collection)
	if err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to update configuration", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to update configuration", err)
	}
	if n == 0 {
		// deleted between the read and the write
		return nil, models.ErrConfigNotFound
	}

	return s.findOne(ctx, objectID.Hex())
}

// DeleteConfig deletes a configuration by ID
func (s *SQLite) DeleteConfig(ctx context.Context, id string) error {
	objectID, err := db.ParseID(id)
	if err != nil {
		return err
	}
	if s.db == nil {
		return models.ErrUnavailable
	}

	query := `DELETE FROM configurations WHERE id = ? AND collection = ?`
	result, err := s.db.ExecContext(ctx, query, objectID.Hex(), s.config.Collection)
	if err != nil {
		return models.NewError(models.KindInternal, "Failed to delete configuration", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return models.NewError(models.KindInternal, "Failed to delete configuration", err)
	}
	if n != 1 {
		return models.ErrConfigNotFound
	}

	logger.Debug("Deleted configuration %s", id)
	return nil
}

func (s *SQLite) findOne(ctx context.Context, id string) (models.Configuration, error) {
	var document string
	query := `SELECT document FROM configurations WHERE id = ? AND collection = ?`
	err := s.db.QueryRowContext(ctx, query, id, s.config.Collection).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrConfigNotFound
	}
	if err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to get configuration", err)
	}
	return s.decode(id, document)
}

func (s *SQLite) decode(id, document string) (models.Configuration, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return nil, models.NewError(models.KindInternal, "Failed to decode configuration", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	doc[models.IDField] = id
	return s.schema.Normalize(doc), nil
}

// dataSourceName passes provider options such as _busy_timeout or
// _journal_mode to the go-sqlite3 driver as DSN parameters
func dataSourceName(dbPath string, opts map[string]string) string {
	if len(opts) == 0 {
		return dbPath
	}
	values := url.Values{}
	for k, v := range opts {
		values.Set(k, v)
	}
	return "file:" + dbPath + "?" + values.Encode()
}

// expandPath resolves ~ and relative paths to an absolute path
func expandPath(dbPath string) (string, error) {
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, dbPath[1:]), nil
	}
	if !filepath.IsAbs(dbPath) {
		absPath, err := filepath.Abs(dbPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		return absPath, nil
	}
	return dbPath, nil
}
