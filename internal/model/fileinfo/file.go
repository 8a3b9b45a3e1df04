package fileinfo

import "time"

// Record is the metadata kept for every uploaded file, keyed by content hash.
type Record struct {
	FileHash           string    `json:"file_hash"`
	Filename           string    `json:"filename"`
	Size               uint64    `json:"size"`
	MerkleRoot         string    `json:"merkle_root"`
	Owner              string    `json:"owner"`
	Authorized         []string  `json:"authorized"`
	UploadCount        uint64    `json:"upload_count"`
	DownloadCount      uint64    `json:"download_count"`
	VerifiedProofCount uint64    `json:"verified_proof_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// IsAuthorized reports whether identity may download the file. The owner is
// always authorized; everyone else must appear in the authorized set.
func (r *Record) IsAuthorized(identity string) bool {
	if identity == r.Owner {
		return true
	}
	for _, id := range r.Authorized {
		if id == identity {
			return true
		}
	}
	return false
}

// Verified derives the verification status from the proof counter so there is
// no second flag that can drift from it.
func (r *Record) Verified(threshold uint64) bool {
	return threshold > 0 && r.VerifiedProofCount >= threshold
}
