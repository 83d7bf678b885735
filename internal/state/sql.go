// internal/state/sql.go
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/user/storeops/internal/types"
)

// SQLStore keeps every table in a single SQLite relation of JSON documents
// keyed by (table, key). Filters are evaluated with json_extract.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (or creates) the SQLite database at path. Use
// ":memory:" for a throwaway database.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)

	s, err := NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore initializes the schema in db and returns a store over it.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	s := &SQLStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			tbl  TEXT NOT NULL,
			rkey TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (tbl, rkey)
		);`,
	)
	return err
}

func (s *SQLStore) Get(ctx context.Context, table types.Table, key string) (types.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE tbl = ? AND rkey = ?`, table.Name, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s/%s: %w", table.Name, key, err)
	}
	return decodeRecord(data)
}

func (s *SQLStore) Put(ctx context.Context, table types.Table, rec types.Record) error {
	key, err := table.KeyOf(rec)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (tbl, rkey, data) VALUES (?, ?, ?)
		ON CONFLICT (tbl, rkey) DO UPDATE SET data = excluded.data`,
		table.Name, key, string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", table.Name, key, err)
	}
	return nil
}

func (s *SQLStore) Scan(ctx context.Context, table types.Table, filter *types.Filter) ([]types.Record, error) {
	query := `SELECT data FROM records WHERE tbl = ?`
	args := []any{table.Name}
	if filter != nil {
		query += ` AND CAST(json_extract(data, ?) AS TEXT) = ?`
		args = append(args, jsonPath(filter.Field), filter.Equals)
	}
	query += ` ORDER BY rkey`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table.Name, err)
	}
	defer rows.Close()

	out := []types.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table.Name, err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", table.Name, err)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// jsonPath quotes a field name as a single JSON path member.
func jsonPath(field string) string {
	quoted, _ := json.Marshal(field)
	return "$." + string(quoted)
}

func decodeRecord(data string) (types.Record, error) {
	var rec types.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
