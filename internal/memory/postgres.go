package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the turn archive and preferences in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dialogue_turns (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_text TEXT NOT NULL,
			response_text TEXT NOT NULL,
			intent TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_dialogue_turns_session_created ON dialogue_turns (session_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS dialogue_preferences (
			session_id TEXT PRIMARY KEY,
			city TEXT NOT NULL DEFAULT '',
			vehicle_type TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveTurn(ctx context.Context, record TurnRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO dialogue_turns (id, session_id, user_text, response_text, intent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID,
		record.SessionID,
		record.UserText,
		record.ResponseText,
		record.Intent,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, user_text, response_text, intent, created_at
		 FROM dialogue_turns WHERE session_id=$1 ORDER BY created_at DESC LIMIT $2`,
		sessionID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent turns: %w", err)
	}
	defer rows.Close()

	items := make([]TurnRecord, 0, limit)
	for rows.Next() {
		var r TurnRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.UserText, &r.ResponseText, &r.Intent, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	return items, nil
}

func (s *PostgresStore) LoadPreferences(ctx context.Context, sessionID string) (Preferences, error) {
	var p Preferences
	err := s.pool.QueryRow(ctx,
		`SELECT city, vehicle_type FROM dialogue_preferences WHERE session_id=$1`,
		sessionID,
	).Scan(&p.City, &p.VehicleType)
	if errors.Is(err, pgx.ErrNoRows) {
		return Preferences{}, nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) SavePreferences(ctx context.Context, sessionID string, prefs Preferences) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dialogue_preferences (session_id, city, vehicle_type, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (session_id) DO UPDATE
		 SET city=EXCLUDED.city, vehicle_type=EXCLUDED.vehicle_type, updated_at=now()`,
		sessionID,
		prefs.City,
		prefs.VehicleType,
	)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
