package gateway_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulavault/internal/registry/access"
	"nebulavault/internal/registry/filereg"
	"nebulavault/internal/registry/gateway"
	"nebulavault/internal/registry/proof"
	"nebulavault/internal/repository/memstore"
	"nebulavault/internal/vaulterr"
	"nebulavault/pkg/merkle"
)

const admin = "admin-id"

func newGateway(t *testing.T) *gateway.Gateway {
	t.Helper()
	store := memstore.New()
	accessReg := access.New(store, 1000, 0)
	fileReg := filereg.New(store, accessReg, admin, 100)
	verifier := proof.New(store, 2)
	return gateway.New(accessReg, fileReg, verifier, admin)
}

// uploadFixture registers an owner and uploads a two-chunk file, returning
// the file hash and its tree for proof calls.
func uploadFixture(t *testing.T, gw *gateway.Gateway) (string, *merkle.Tree) {
	t.Helper()
	ctx := context.Background()

	_, err := gw.RegisterUser(ctx, "owner", "alice")
	require.NoError(t, err)

	tree, err := merkle.Build([]string{
		merkle.HashLeaf([]byte("chunk-0")),
		merkle.HashLeaf([]byte("chunk-1")),
	})
	require.NoError(t, err)

	fileHash := merkle.HashLeaf([]byte("the-file"))
	_, err = gw.UploadFile(ctx, "owner", fileHash, "report.pdf", 500, tree.Root(), 100)
	require.NoError(t, err)
	return fileHash, tree
}

func TestStatsCounting(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)
	fileHash, tree := uploadFixture(t, gw)

	_, err := gw.DownloadFile(ctx, "owner", fileHash)
	require.NoError(t, err)

	stats := gw.GetSystemStats()
	assert.Equal(t, uint64(1), stats.TotalUsers)
	assert.Equal(t, uint64(1), stats.TotalFiles)
	assert.Equal(t, uint64(1), stats.TotalUploads)
	assert.Equal(t, uint64(1), stats.TotalDownloads)
	assert.Equal(t, uint64(0), stats.TotalVerifiedFiles)

	// Failed operations move nothing.
	_, err = gw.DownloadFile(ctx, "stranger", fileHash)
	require.ErrorIs(t, err, vaulterr.ErrNotAuthorized)
	assert.Equal(t, uint64(1), gw.GetSystemStats().TotalDownloads)

	// The file counts as verified exactly once, on the proof that reaches
	// the threshold.
	leaf := merkle.HashLeaf([]byte("chunk-0"))
	path, sides, err := tree.Proof(0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = gw.VerifyFileProof(ctx, fileHash, tree.Root(), leaf, path, sides)
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(1), gw.GetSystemStats().TotalVerifiedFiles)
}

func TestPause(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)
	fileHash, tree := uploadFixture(t, gw)

	assert.ErrorIs(t, gw.Pause("owner"), vaulterr.ErrNotAuthorized)
	require.NoError(t, gw.Pause(admin))
	assert.True(t, gw.Paused())

	// Pausing twice is a no-op success.
	require.NoError(t, gw.Pause(admin))

	// Every mutation is rejected while paused.
	_, err := gw.RegisterUser(ctx, "id-2", "bobby")
	assert.ErrorIs(t, err, vaulterr.ErrSystemPaused)
	_, err = gw.UploadFile(ctx, "owner", merkle.HashLeaf([]byte("other")), "x", 10, tree.Root(), 100)
	assert.ErrorIs(t, err, vaulterr.ErrSystemPaused)
	_, err = gw.DownloadFile(ctx, "owner", fileHash)
	assert.ErrorIs(t, err, vaulterr.ErrSystemPaused)
	path, sides, err := tree.Proof(0)
	require.NoError(t, err)
	_, err = gw.VerifyFileProof(ctx, fileHash, tree.Root(), merkle.HashLeaf([]byte("chunk-0")), path, sides)
	assert.ErrorIs(t, err, vaulterr.ErrSystemPaused)
	assert.ErrorIs(t, gw.AuthorizeUser(ctx, "owner", fileHash, "other"), vaulterr.ErrSystemPaused)
	assert.ErrorIs(t, gw.SetStorageFee(admin, 200), vaulterr.ErrSystemPaused)
	assert.ErrorIs(t, gw.Suspend(ctx, admin, "owner"), vaulterr.ErrSystemPaused)

	// Reads stay available.
	_, err = gw.GetFile(ctx, fileHash)
	assert.NoError(t, err)
	_, err = gw.GetProfile(ctx, "owner")
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), gw.GetSystemStats().TotalFiles)

	assert.ErrorIs(t, gw.Unpause("owner"), vaulterr.ErrNotAuthorized)
	require.NoError(t, gw.Unpause(admin))
	assert.False(t, gw.Paused())

	_, err = gw.DownloadFile(ctx, "owner", fileHash)
	assert.NoError(t, err)
}

func TestAdminSetters(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)

	_, err := gw.RegisterUser(ctx, "owner", "alice")
	require.NoError(t, err)

	assert.ErrorIs(t, gw.SetStorageFee("owner", 1), vaulterr.ErrNotAuthorized)
	assert.ErrorIs(t, gw.SetVerificationThreshold("owner", 1), vaulterr.ErrNotAuthorized)
	assert.ErrorIs(t, gw.SetDefaultQuota("owner", 1), vaulterr.ErrNotAuthorized)
	assert.ErrorIs(t, gw.SetMaxQuota("owner", 1), vaulterr.ErrNotAuthorized)
	assert.ErrorIs(t, gw.SetUserQuota(ctx, "owner", "owner", 1), vaulterr.ErrNotAuthorized)
	assert.ErrorIs(t, gw.Suspend(ctx, "owner", "owner"), vaulterr.ErrNotAuthorized)
	assert.ErrorIs(t, gw.Unsuspend(ctx, "owner", "owner"), vaulterr.ErrNotAuthorized)

	require.NoError(t, gw.SetStorageFee(admin, 250))
	assert.Equal(t, uint64(250), gw.StorageFee())

	require.NoError(t, gw.SetVerificationThreshold(admin, 4))
	assert.Equal(t, uint64(4), gw.VerificationThreshold())

	require.NoError(t, gw.SetUserQuota(ctx, admin, "owner", 2000))
	profile, err := gw.GetProfile(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), profile.StorageQuota)

	require.NoError(t, gw.Suspend(ctx, admin, "owner"))
	require.NoError(t, gw.Unsuspend(ctx, admin, "owner"))
}
