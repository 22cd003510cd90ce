package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres reads documents from a single JSONB table:
//
//	documents(org_id, collection, id, data JSONB)
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn, pings and creates the schema if missing.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p.pool == nil {
		return fmt.Errorf("postgres not initialized")
	}
	return p.pool.Ping(ctx)
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			org_id TEXT NOT NULL,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (org_id, collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_manager ON documents ((data->>'managerId')) WHERE collection = 'employees'`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Put upserts doc.
func (p *Postgres) Put(ctx context.Context, orgID, collection string, doc Document) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO documents (org_id, collection, id, data, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (org_id, collection, id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, orgID, collection, doc.ID, data)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

func (p *Postgres) FetchByOrg(ctx context.Context, orgID, collection string) ([]Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, data FROM documents
		WHERE org_id = $1 AND collection = $2
		ORDER BY id
	`, orgID, collection)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}
	return scanDocuments(rows)
}

func (p *Postgres) FetchByKey(ctx context.Context, orgID, collection, id string) (*Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	var d Document
	var data []byte
	err := p.pool.QueryRow(ctx, `
		SELECT id, data FROM documents
		WHERE org_id = $1 AND collection = $2 AND id = $3
	`, orgID, collection, id).Scan(&d.ID, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(data, &d.Fields); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &d, nil
}

func (p *Postgres) Query(ctx context.Context, orgID, collection, field, value string) ([]Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, data FROM documents
		WHERE org_id = $1 AND collection = $2 AND data->>($3::text) = $4::text
		ORDER BY id
	`, orgID, collection, field, value)
	if err != nil {
		return nil, fmt.Errorf("query %s.%s: %w", collection, field, err)
	}
	return scanDocuments(rows)
}

func scanDocuments(rows pgx.Rows) ([]Document, error) {
	defer rows.Close()
	out := make([]Document, 0)
	for rows.Next() {
		var d Document
		var data []byte
		if err := rows.Scan(&d.ID, &data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(data, &d.Fields); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.ID, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

var _ Source = (*Postgres)(nil)
var _ Writer = (*Postgres)(nil)
