// Package userrepo stores user profiles in postgres.
package userrepo

import (
	"context"
	"errors"
	"fmt"

	"nebulavault/internal/model/user"
	"nebulavault/internal/vaulterr"

	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	conn *pgx.Conn
}

func New(conn *pgx.Conn) *UserRepo {
	return &UserRepo{conn: conn}
}

// Init creates the profiles table if it does not exist yet.
func (r *UserRepo) Init(ctx context.Context) error {
	_, err := r.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			identity      TEXT PRIMARY KEY,
			name          TEXT UNIQUE NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL,
			storage_used  BIGINT NOT NULL DEFAULT 0,
			storage_quota BIGINT NOT NULL,
			suspended     BOOLEAN NOT NULL DEFAULT FALSE
		)`)
	if err != nil {
		return storageErr("init profiles", err)
	}
	return nil
}

func (r *UserRepo) Create(ctx context.Context, p *user.Profile) error {
	_, err := r.conn.Exec(ctx,
		`INSERT INTO profiles (identity, name, registered_at, storage_used, storage_quota, suspended)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.Identity, p.Name, p.RegisteredAt, int64(p.StorageUsed), int64(p.StorageQuota), p.Suspended)
	if err != nil {
		return storageErr("insert profile", err)
	}
	return nil
}

func (r *UserRepo) GetByIdentity(ctx context.Context, identity string) (*user.Profile, error) {
	return r.get(ctx, `SELECT identity, name, registered_at, storage_used, storage_quota, suspended
		 FROM profiles WHERE identity = $1`, identity)
}

func (r *UserRepo) GetByName(ctx context.Context, name string) (*user.Profile, error) {
	return r.get(ctx, `SELECT identity, name, registered_at, storage_used, storage_quota, suspended
		 FROM profiles WHERE name = $1`, name)
}

func (r *UserRepo) get(ctx context.Context, query, arg string) (*user.Profile, error) {
	var (
		p     user.Profile
		used  int64
		quota int64
	)
	err := r.conn.QueryRow(ctx, query, arg).
		Scan(&p.Identity, &p.Name, &p.RegisteredAt, &used, &quota, &p.Suspended)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("select profile", err)
	}
	p.StorageUsed = uint64(used)
	p.StorageQuota = uint64(quota)
	return &p, nil
}

func (r *UserRepo) UpdateUsage(ctx context.Context, identity string, used uint64) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE profiles SET storage_used = $1 WHERE identity = $2`, int64(used), identity)
	if err != nil {
		return storageErr("update usage", err)
	}
	return nil
}

func (r *UserRepo) SetSuspended(ctx context.Context, identity string, suspended bool) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE profiles SET suspended = $1 WHERE identity = $2`, suspended, identity)
	if err != nil {
		return storageErr("update suspended", err)
	}
	return nil
}

func (r *UserRepo) SetQuota(ctx context.Context, identity string, quota uint64) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE profiles SET storage_quota = $1 WHERE identity = $2`, int64(quota), identity)
	if err != nil {
		return storageErr("update quota", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", vaulterr.ErrStorageUnavailable, op, err)
}
