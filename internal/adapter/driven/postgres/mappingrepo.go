package postgres

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

var _ driven.MappingStore = (*MappingRepo)(nil)

// MappingRepo stores the mapping as one JSONB document.
type MappingRepo struct {
	db *sql.DB
}

// NewMappingRepo creates a new MappingRepo backed by db.
func NewMappingRepo(db *sql.DB) *MappingRepo {
	return &MappingRepo{db: db}
}

// Load reads the persisted mapping, or an empty one if none was saved.
func (r *MappingRepo) Load(ctx context.Context) (model.Mapping, error) {
	const query = `SELECT value FROM settings WHERE key = $1`

	var doc []byte
	err := r.db.QueryRowContext(ctx, query, MappingKey).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}

	m := model.Mapping{}
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return m, nil
}

// Save overwrites the persisted mapping document.
func (r *MappingRepo) Save(ctx context.Context, m model.Mapping) error {
	if m == nil {
		m = model.Mapping{}
	}
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	const query = `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, MappingKey, string(doc)); err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}
