// Package filerepo stores file records and their authorization lists in
// postgres.
package filerepo

import (
	"context"
	"errors"
	"fmt"

	"nebulavault/internal/model/fileinfo"
	"nebulavault/internal/vaulterr"

	"github.com/jackc/pgx/v5"
)

type FileRepo struct {
	conn *pgx.Conn
}

func New(conn *pgx.Conn) *FileRepo {
	return &FileRepo{conn: conn}
}

// Init creates the file tables if they do not exist yet.
func (r *FileRepo) Init(ctx context.Context) error {
	_, err := r.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS files (
			file_hash            TEXT PRIMARY KEY,
			filename             TEXT NOT NULL,
			size                 BIGINT NOT NULL,
			merkle_root          TEXT NOT NULL,
			owner                TEXT NOT NULL,
			upload_count         BIGINT NOT NULL DEFAULT 1,
			download_count       BIGINT NOT NULL DEFAULT 0,
			verified_proof_count BIGINT NOT NULL DEFAULT 0,
			created_at           TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return storageErr("init files", err)
	}
	_, err = r.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS file_authorizations (
			file_hash TEXT NOT NULL,
			identity  TEXT NOT NULL,
			PRIMARY KEY (file_hash, identity)
		)`)
	if err != nil {
		return storageErr("init file_authorizations", err)
	}
	return nil
}

// CreateFile inserts the record and its initial authorization list in one
// transaction.
func (r *FileRepo) CreateFile(ctx context.Context, rec *fileinfo.Record) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return storageErr("begin", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO files (file_hash, filename, size, merkle_root, owner,
		                    upload_count, download_count, verified_proof_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.FileHash, rec.Filename, int64(rec.Size), rec.MerkleRoot, rec.Owner,
		int64(rec.UploadCount), int64(rec.DownloadCount), int64(rec.VerifiedProofCount), rec.CreatedAt)
	if err != nil {
		return storageErr("insert file", err)
	}
	for _, identity := range rec.Authorized {
		_, err = tx.Exec(ctx,
			`INSERT INTO file_authorizations (file_hash, identity) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			rec.FileHash, identity)
		if err != nil {
			return storageErr("insert authorization", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (r *FileRepo) GetByHash(ctx context.Context, hash string) (*fileinfo.Record, error) {
	var (
		rec      fileinfo.Record
		size     int64
		uploads  int64
		dls      int64
		verified int64
	)
	err := r.conn.QueryRow(ctx,
		`SELECT file_hash, filename, size, merkle_root, owner,
		        upload_count, download_count, verified_proof_count, created_at
		 FROM files WHERE file_hash = $1`, hash).
		Scan(&rec.FileHash, &rec.Filename, &size, &rec.MerkleRoot, &rec.Owner,
			&uploads, &dls, &verified, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("select file", err)
	}
	rec.Size = uint64(size)
	rec.UploadCount = uint64(uploads)
	rec.DownloadCount = uint64(dls)
	rec.VerifiedProofCount = uint64(verified)

	rows, err := r.conn.Query(ctx,
		`SELECT identity FROM file_authorizations WHERE file_hash = $1`, hash)
	if err != nil {
		return nil, storageErr("select authorizations", err)
	}
	defer rows.Close()
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, storageErr("scan authorization", err)
		}
		rec.Authorized = append(rec.Authorized, identity)
	}
	return &rec, nil
}

func (r *FileRepo) AddAuthorized(ctx context.Context, hash, identity string) error {
	_, err := r.conn.Exec(ctx,
		`INSERT INTO file_authorizations (file_hash, identity) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, hash, identity)
	if err != nil {
		return storageErr("insert authorization", err)
	}
	return nil
}

func (r *FileRepo) IncrementDownloads(ctx context.Context, hash string) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE files SET download_count = download_count + 1 WHERE file_hash = $1`, hash)
	if err != nil {
		return storageErr("increment downloads", err)
	}
	return nil
}

func (r *FileRepo) GetMerkleRoot(ctx context.Context, hash string) (string, error) {
	var root string
	err := r.conn.QueryRow(ctx,
		`SELECT merkle_root FROM files WHERE file_hash = $1`, hash).Scan(&root)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", storageErr("select merkle root", err)
	}
	return root, nil
}

func (r *FileRepo) IncrementVerified(ctx context.Context, hash string) (uint64, error) {
	var count int64
	err := r.conn.QueryRow(ctx,
		`UPDATE files SET verified_proof_count = verified_proof_count + 1
		 WHERE file_hash = $1
		 RETURNING verified_proof_count`, hash).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storageErr("increment verified", err)
	}
	return uint64(count), nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", vaulterr.ErrStorageUnavailable, op, err)
}
