package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/model"
)

const createPeopleTable = `
CREATE TABLE IF NOT EXISTS people (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	data       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS people_created_at_idx ON people (created_at DESC);`

// PostgresStore keeps records in a single table; one INSERT per record.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ PersonStore = (*PostgresStore)(nil)

// NewPostgresStore connects to databaseURL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createPeopleTable); err != nil {
		return fmt.Errorf("failed to migrate people table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Save(ctx context.Context, rec *model.PersonRecord) (*model.PersonRecord, error) {
	saved := *rec
	saved.ID = uuid.New().String()
	saved.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(&saved)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal person record: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO people (id, created_at, data) VALUES ($1, $2, $3)`,
		saved.ID, saved.CreatedAt, data)
	if err != nil {
		return nil, fmt.Errorf("failed to insert person record: %w", err)
	}
	return &saved, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]model.PersonRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM people ORDER BY created_at DESC LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list person records: %w", err)
	}
	defer rows.Close()

	records := []model.PersonRecord{}
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan person record: %w", err)
		}
		var rec model.PersonRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn("skipping undecodable person record", zap.String("id", id), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate person records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (mo.Option[*model.PersonRecord], error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM people WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*model.PersonRecord](), nil
		}
		return mo.None[*model.PersonRecord](), fmt.Errorf("failed to get person record: %w", err)
	}

	var rec model.PersonRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return mo.None[*model.PersonRecord](), fmt.Errorf("failed to unmarshal person record: %w", err)
	}
	return mo.Some(&rec), nil
}
