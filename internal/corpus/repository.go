package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/postgres"
)

// Repository persists documents outside the process. The store writes
// through it before publishing and reloads from it on start.
type Repository interface {
	Load(ctx context.Context) ([]Document, error)
	Save(ctx context.Context, docs []Document) error
}

const schema = `CREATE TABLE IF NOT EXISTS documents (
	id         BIGINT PRIMARY KEY,
	text       TEXT NOT NULL,
	category   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresRepository stores documents in a single PostgreSQL table.
type PostgresRepository struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewPostgresRepository creates the documents table if needed.
func NewPostgresRepository(ctx context.Context, db *postgres.Client) (*PostgresRepository, error) {
	if _, err := db.DB.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return &PostgresRepository{
		db:     db,
		logger: slog.Default().With("component", "corpus-repository"),
	}, nil
}

// Load returns every stored document ordered by id.
func (r *PostgresRepository) Load(ctx context.Context) ([]Document, error) {
	rows, err := r.db.DB.QueryContext(ctx, `SELECT id, text, category FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Text, &d.Category); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	r.logger.Info("documents loaded", "count", len(docs))
	return docs, nil
}

// Save inserts docs in one transaction. Either all rows are written or none.
func (r *PostgresRepository) Save(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO documents (id, text, category) VALUES ($1, $2, $3)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()
		for _, d := range docs {
			if _, err := stmt.ExecContext(ctx, d.ID, d.Text, d.Category); err != nil {
				return fmt.Errorf("inserting document %d: %w", d.ID, err)
			}
		}
		return nil
	})
}
