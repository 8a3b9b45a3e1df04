package user

import "time"

// Profile is the per-identity record owned by the access registry.
type Profile struct {
	Identity     string    `json:"identity"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
	StorageUsed  uint64    `json:"storage_used"`
	StorageQuota uint64    `json:"storage_quota"`
	Suspended    bool      `json:"suspended"`
}
