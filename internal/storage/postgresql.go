// Хранилище коллекций на основе PostgreSQL: каждая коллекция — одна
// строка таблицы collections с jsonb-содержимым. Load и Save работают
// с коллекцией целиком.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует контракт Store поверх таблицы collections.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Load читает коллекцию name и десериализует её в dest.
func (s *Storage) Load(ctx context.Context, name string, dest any) error {
	const op = "storage.Load"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT payload FROM collections WHERE name = $1`
	var payload []byte
	err := s.DB.QueryRowContext(ctx, query, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Save перезаписывает коллекцию name сериализованными records.
func (s *Storage) Save(ctx context.Context, name string, records any) error {
	const op = "storage.Save"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO collections (name, payload, updated_at)
			  VALUES ($1, $2, now())
			  ON CONFLICT (name) DO UPDATE
			  SET payload = EXCLUDED.payload, updated_at = now()`
	if _, err := s.DB.ExecContext(ctx, query, name, payload); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'collections'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table collections missing or query error: %w", err)
	}
	return nil
}
