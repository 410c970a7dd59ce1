package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"telecord/internal/config"
	"telecord/internal/constants"
	"telecord/internal/models"

	"github.com/go-sql-driver/mysql"
)

// Database is the persistence store for routing mappings, cached sender
// profiles and the message audit log. All operations go through the shared
// bounded connection pool; database/sql acquires and releases a pooled
// connection per call on every exit path.
type Database struct {
	db *sql.DB
}

// New opens the MySQL pool, verifies connectivity and bootstraps the schema.
func New(cfg config.DatabaseConfig) (*Database, error) {
	dsnCfg := mysql.NewConfig()
	dsnCfg.User = cfg.User
	dsnCfg.Passwd = cfg.Password
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsnCfg.DBName = cfg.Database
	dsnCfg.ParseTime = true

	db, err := sql.Open("mysql", dsnCfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = constants.DefaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(constants.DefaultMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(constants.DefaultConnMaxLifetimeMin) * time.Minute)

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &Database{db: db}
	if err := d.initializeSchema(context.Background()); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

// newWithDB wraps an existing handle. Used by tests.
func newWithDB(db *sql.DB) *Database {
	return &Database{db: db}
}

func (d *Database) initializeSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// GetRoutingMapping resolves the destination webhook for an origin
// (group, topic) pair. Absence of a mapping is a valid, non-error outcome
// and returns (nil, nil); it is the majority case and the first gate in the
// relay pipeline.
func (d *Database) GetRoutingMapping(ctx context.Context, groupID int64, topicID int32) (*models.RoutingMapping, error) {
	mapping := &models.RoutingMapping{}

	err := d.db.QueryRowContext(ctx, selectRoutingMappingQuery, groupID, topicID).Scan(
		&mapping.ID,
		&mapping.GroupID,
		&mapping.TopicID,
		&mapping.DestinationURL,
		&mapping.CreatedAt,
		&mapping.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routing mapping: %w", err)
	}
	return mapping, nil
}

// ListRoutingMappings returns all configured mappings, for the admin surface.
func (d *Database) ListRoutingMappings(ctx context.Context) ([]models.RoutingMapping, error) {
	rows, err := d.db.QueryContext(ctx, selectAllRoutingMappingsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list routing mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.RoutingMapping
	for rows.Next() {
		var m models.RoutingMapping
		if err := rows.Scan(&m.ID, &m.GroupID, &m.TopicID, &m.DestinationURL, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan routing mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routing mappings: %w", err)
	}
	return mappings, nil
}

// UpsertRoutingMapping creates or updates a mapping. This is the external
// administrative path; the relay pipeline itself never writes mappings.
func (d *Database) UpsertRoutingMapping(ctx context.Context, mapping *models.RoutingMapping) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertRoutingMappingQuery,
			mapping.GroupID, mapping.TopicID, mapping.DestinationURL)
		return err
	}, "upsert routing mapping")
}

// GetSenderProfile returns the cached profile for a user, or (nil, nil) when
// none has been materialized yet.
func (d *Database) GetSenderProfile(ctx context.Context, userID int64) (*models.SenderProfile, error) {
	profile := &models.SenderProfile{}

	err := d.db.QueryRowContext(ctx, selectSenderProfileQuery, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarFile,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sender profile: %w", err)
	}
	return profile, nil
}

// UpsertSenderProfile writes a profile, last-write-wins, keyed by user ID.
func (d *Database) UpsertSenderProfile(ctx context.Context, profile *models.SenderProfile) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertSenderProfileQuery,
			profile.UserID, profile.DisplayName, profile.AvatarFile, profile.AvatarURL)
		return err
	}, "upsert sender profile")
}

// AppendMessageLog appends one audit record. Errors propagate to the caller,
// which logs and continues; a failed append never aborts a pipeline run.
func (d *Database) AppendMessageLog(ctx context.Context, entry *models.MessageLogEntry) error {
	forwardedAt := entry.ForwardedAt
	if forwardedAt.IsZero() {
		forwardedAt = time.Now().UTC()
	}

	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, insertMessageLogQuery,
			entry.PlatformMessageID,
			entry.GroupID,
			entry.TopicID,
			entry.UserID,
			entry.DisplayName,
			entry.TextContent,
			entry.MediaCount,
			forwardedAt,
		)
		return err
	}, "append message log")
}
