// Package credrepo stores the bcrypt hashes of per-identity API secrets. It
// belongs to the request layer, not the core registries, so it keeps its own
// table.
package credrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nebulavault/internal/vaulterr"

	"github.com/jackc/pgx/v5"
)

type CredRepo struct {
	conn *pgx.Conn
}

func New(conn *pgx.Conn) *CredRepo {
	return &CredRepo{conn: conn}
}

func (r *CredRepo) Init(ctx context.Context) error {
	_, err := r.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS credentials (
			identity    TEXT PRIMARY KEY,
			secret_hash TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return storageErr("init credentials", err)
	}
	return nil
}

func (r *CredRepo) Save(ctx context.Context, identity, secretHash string) error {
	_, err := r.conn.Exec(ctx,
		`INSERT INTO credentials (identity, secret_hash, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (identity) DO UPDATE SET secret_hash = EXCLUDED.secret_hash`,
		identity, secretHash, time.Now().UTC())
	if err != nil {
		return storageErr("save credential", err)
	}
	return nil
}

// GetHash returns the stored bcrypt hash, or "" when the identity has none.
func (r *CredRepo) GetHash(ctx context.Context, identity string) (string, error) {
	var hash string
	err := r.conn.QueryRow(ctx,
		`SELECT secret_hash FROM credentials WHERE identity = $1`, identity).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", storageErr("select credential", err)
	}
	return hash, nil
}

func (r *CredRepo) Delete(ctx context.Context, identity string) error {
	_, err := r.conn.Exec(ctx,
		`DELETE FROM credentials WHERE identity = $1`, identity)
	if err != nil {
		return storageErr("delete credential", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", vaulterr.ErrStorageUnavailable, op, err)
}
