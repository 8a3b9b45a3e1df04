// Package memstore is an in-memory implementation of the profile and file
// stores. It backs the unit tests and single-node runs without postgres.
package memstore

import (
	"context"
	"sync"

	"nebulavault/internal/model/fileinfo"
	"nebulavault/internal/model/user"
)

type Store struct {
	mu       sync.RWMutex
	profiles map[string]*user.Profile   // identity -> profile
	names    map[string]string          // display name -> identity
	files    map[string]*fileinfo.Record // file hash -> record
}

func New() *Store {
	return &Store{
		profiles: make(map[string]*user.Profile),
		names:    make(map[string]string),
		files:    make(map[string]*fileinfo.Record),
	}
}

func (s *Store) Create(ctx context.Context, p *user.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.Identity] = &cp
	s.names[p.Name] = p.Identity
	return nil
}

func (s *Store) GetByIdentity(ctx context.Context, identity string) (*user.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[identity]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (*user.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.names[name]
	if !ok {
		return nil, nil
	}
	cp := *s.profiles[identity]
	return &cp, nil
}

func (s *Store) UpdateUsage(ctx context.Context, identity string, used uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[identity]; ok {
		p.StorageUsed = used
	}
	return nil
}

func (s *Store) SetSuspended(ctx context.Context, identity string, suspended bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[identity]; ok {
		p.Suspended = suspended
	}
	return nil
}

func (s *Store) SetQuota(ctx context.Context, identity string, quota uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[identity]; ok {
		p.StorageQuota = quota
	}
	return nil
}

func (s *Store) CreateFile(ctx context.Context, rec *fileinfo.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.Authorized = append([]string(nil), rec.Authorized...)
	s.files[rec.FileHash] = &cp
	return nil
}

func (s *Store) GetByHash(ctx context.Context, hash string) (*fileinfo.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.files[hash]
	if !ok {
		return nil, nil
	}
	cp := *rec
	cp.Authorized = append([]string(nil), rec.Authorized...)
	return &cp, nil
}

func (s *Store) AddAuthorized(ctx context.Context, hash, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.files[hash]; ok {
		rec.Authorized = append(rec.Authorized, identity)
	}
	return nil
}

func (s *Store) IncrementDownloads(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.files[hash]; ok {
		rec.DownloadCount++
	}
	return nil
}

func (s *Store) GetMerkleRoot(ctx context.Context, hash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.files[hash]
	if !ok {
		return "", nil
	}
	return rec.MerkleRoot, nil
}

func (s *Store) IncrementVerified(ctx context.Context, hash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.files[hash]
	if !ok {
		return 0, nil
	}
	rec.VerifiedProofCount++
	return rec.VerifiedProofCount, nil
}
