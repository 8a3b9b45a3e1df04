package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulavault/internal/repository/blacklist"
	"nebulavault/internal/repository/refreshtoken"
	"nebulavault/internal/service/auth"
	"nebulavault/internal/vaulterr"
)

// memCreds is a map-backed credential store for the tests.
type memCreds struct {
	hashes map[string]string
}

func (m *memCreds) Save(ctx context.Context, identity, secretHash string) error {
	m.hashes[identity] = secretHash
	return nil
}

func (m *memCreds) GetHash(ctx context.Context, identity string) (string, error) {
	return m.hashes[identity], nil
}

func (m *memCreds) Delete(ctx context.Context, identity string) error {
	delete(m.hashes, identity)
	return nil
}

func setupService(t *testing.T) *auth.Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return auth.New(&memCreds{hashes: map[string]string{}},
		"test-jwt-secret", refreshtoken.New(cli), blacklist.New(cli))
}

func TestLoginRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupService(t)

	identity := s.NewIdentity()
	secret, err := s.CreateCredential(ctx, identity)
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	access, refresh, err := s.Login(ctx, identity, secret)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	got, valid := s.IdentityFromToken(ctx, access)
	assert.True(t, valid)
	assert.Equal(t, identity, got)
}

func TestLogin_Rejections(t *testing.T) {
	ctx := context.Background()
	s := setupService(t)

	_, _, err := s.Login(ctx, "ghost", "whatever")
	assert.ErrorIs(t, err, vaulterr.ErrNotAuthorized)

	identity := s.NewIdentity()
	_, err = s.CreateCredential(ctx, identity)
	require.NoError(t, err)

	_, _, err = s.Login(ctx, identity, "wrong-secret")
	assert.ErrorIs(t, err, vaulterr.ErrNotAuthorized)
}

func TestIdentityFromToken_InvalidAndExpired(t *testing.T) {
	ctx := context.Background()
	s := setupService(t)

	_, valid := s.IdentityFromToken(ctx, "not-a-token")
	assert.False(t, valid)

	// Correct signature, already expired.
	past := time.Now().Add(-time.Hour)
	claims := &jwt.RegisteredClaims{
		Subject:   "some-identity",
		ExpiresAt: jwt.NewNumericDate(past),
		IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-jwt-secret"))
	require.NoError(t, err)

	got, valid := s.IdentityFromToken(ctx, expired)
	assert.False(t, valid)
	assert.Empty(t, got)
}

func TestLogout_BlacklistsAccessToken(t *testing.T) {
	ctx := context.Background()
	s := setupService(t)

	identity := s.NewIdentity()
	secret, err := s.CreateCredential(ctx, identity)
	require.NoError(t, err)
	access, _, err := s.Login(ctx, identity, secret)
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, identity, access))

	_, valid := s.IdentityFromToken(ctx, access)
	assert.False(t, valid)
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	s := setupService(t)

	identity := s.NewIdentity()
	secret, err := s.CreateCredential(ctx, identity)
	require.NoError(t, err)
	_, refresh, err := s.Login(ctx, identity, secret)
	require.NoError(t, err)

	access2, refresh2, err := s.RefreshToken(ctx, identity, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access2)
	assert.NotEqual(t, refresh, refresh2)

	// The old refresh token was rotated out.
	_, _, err = s.RefreshToken(ctx, identity, refresh)
	assert.Error(t, err)
}

func TestRefreshToken_NothingStored(t *testing.T) {
	s := setupService(t)

	_, _, err := s.RefreshToken(context.Background(), "some-identity", "some-random")
	assert.Error(t, err)
}

func TestEnsureCredential(t *testing.T) {
	ctx := context.Background()
	s := setupService(t)

	require.NoError(t, s.EnsureCredential(ctx, "admin-id", "admin-secret"))
	_, _, err := s.Login(ctx, "admin-id", "admin-secret")
	assert.NoError(t, err)

	// A second call must not overwrite the stored credential.
	require.NoError(t, s.EnsureCredential(ctx, "admin-id", "different-secret"))
	_, _, err = s.Login(ctx, "admin-id", "admin-secret")
	assert.NoError(t, err)
}

func TestDeleteCredential(t *testing.T) {
	ctx := context.Background()
	s := setupService(t)

	identity := s.NewIdentity()
	secret, err := s.CreateCredential(ctx, identity)
	require.NoError(t, err)

	require.NoError(t, s.DeleteCredential(ctx, identity))
	_, _, err = s.Login(ctx, identity, secret)
	assert.ErrorIs(t, err, vaulterr.ErrNotAuthorized)
}
