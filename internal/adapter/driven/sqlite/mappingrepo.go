package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
	"github.com/ericfisherdev/containerproxy/internal/domain/port/driven"
)

// MappingKey is the settings key holding the whole container→proxy mapping.
const MappingKey = "containerProxies"

// Compile-time interface satisfaction check.
var _ driven.MappingStore = (*MappingRepo)(nil)

// MappingRepo is the SQLite implementation of the MappingStore port interface.
// The mapping is stored as a single JSON object document under MappingKey.
type MappingRepo struct {
	db *DB
}

// NewMappingRepo creates a new MappingRepo backed by the given DB.
func NewMappingRepo(db *DB) *MappingRepo {
	return &MappingRepo{db: db}
}

// Load reads the persisted mapping. Returns an empty mapping if nothing has
// been saved yet.
func (r *MappingRepo) Load(ctx context.Context) (model.Mapping, error) {
	const query = `SELECT value FROM settings WHERE key = ?`

	var doc string
	err := r.db.Reader.QueryRowContext(ctx, query, MappingKey).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}

	return decodeMapping(doc)
}

// Save overwrites the persisted mapping document.
func (r *MappingRepo) Save(ctx context.Context, m model.Mapping) error {
	doc, err := encodeMapping(m)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, MappingKey, doc); err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

func encodeMapping(m model.Mapping) (string, error) {
	if m == nil {
		m = model.Mapping{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode mapping: %w", err)
	}
	return string(data), nil
}

func decodeMapping(doc string) (model.Mapping, error) {
	m := model.Mapping{}
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return m, nil
}
