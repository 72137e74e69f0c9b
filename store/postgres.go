package store

import (
	"context"
	stdsql "database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	agentauth "github.com/agentauth/engine"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver for database/sql
)

//go:embed migrations
var migrationsFS embed.FS

// PostgresConfig holds the connection parameters for PostgresStore.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// PostgresStore is a Store backed by a Postgres table, for deployments that
// already run a relational database and want challenge state durable across
// restarts rather than just shared across replicas.
type PostgresStore struct {
	db *stdsql.DB
}

// NewPostgresStore opens a pgx-backed connection, runs embedded migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := runMigrations(db, cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *stdsql.DB, dbName string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, dbName, driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	// Don't call m.Close(): that closes db too, via the shared driver.
	return sourceDriver.Close()
}

// Set stores a challenge record with an expiry, upserting by id.
func (s *PostgresStore) Set(ctx context.Context, id string, record *agentauth.ChallengeRecord, ttlSeconds int64) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling challenge record: %w", err)
	}
	expiresAt := time.Now().Add(time.Duration(ttlSeconds) * time.Second)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agentauth_challenges (id, record, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, expires_at = EXCLUDED.expires_at
	`, id, data, expiresAt)
	if err != nil {
		return fmt.Errorf("storing challenge record: %w", err)
	}
	return nil
}

// Get retrieves a challenge record by id, returning nil if not found or expired.
func (s *PostgresStore) Get(ctx context.Context, id string) (*agentauth.ChallengeRecord, error) {
	var data []byte
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT record, expires_at FROM agentauth_challenges WHERE id = $1
	`, id).Scan(&data, &expiresAt)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching challenge record: %w", err)
	}
	if time.Now().After(expiresAt) {
		return nil, nil
	}

	var record agentauth.ChallengeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling challenge record: %w", err)
	}
	return &record, nil
}

// Delete removes a challenge record by id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM agentauth_challenges WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting challenge record: %w", err)
	}
	return nil
}

// Close closes the underlying database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
