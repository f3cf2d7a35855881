package usecase

import (
	"context"
	"testing"
	"time"

	"contacts-api/internal/data/cached"
	"contacts-api/internal/data/entity"
	"contacts-api/internal/dto/request"
	"contacts-api/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_CachedIdentityEqualsStoreIdentity(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "alice@example.com", entity.RoleUser)
	bearer := f.accessToken(t, u.Email)

	fromStore, err := f.service.Identity.Resolve(ctx, bearer)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Calls("User.FindByEmail"))

	fromCache, err := f.service.Identity.Resolve(ctx, bearer)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Calls("User.FindByEmail"), "second resolve must not reach the store")

	assert.Equal(t, fromStore, fromCache)
	assert.Empty(t, fromStore.PasswordHash)
	assert.Equal(t, u.ID, fromCache.ID)
	assert.Equal(t, entity.RoleUser, fromCache.Role)
}

func TestResolve_Rejections(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice@example.com", entity.RoleUser)

	reset, err := f.tokens.Issue("alice@example.com", token.PurposeReset, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		bearer string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"reset purpose", reset},
		{"unknown subject", f.accessToken(t, "ghost@example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Identity.Resolve(ctx, tt.bearer)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}

	assert.Equal(t, 1, f.store.Calls("User.FindByEmail"), "only the unknown subject reaches the store")
}

func TestResolve_StoreFailure(t *testing.T) {
	f := newMemFixture(t)
	f.store.SetErr(errStoreDown)

	_, err := f.service.Identity.Resolve(context.Background(), f.accessToken(t, "alice@example.com"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestResolve_CacheDownFallsBackToStore(t *testing.T) {
	f := newFixture(t, downBackend{})
	ctx := context.Background()
	u := f.seedUser(t, "alice@example.com", entity.RoleUser)
	bearer := f.accessToken(t, u.Email)

	for i := 0; i < 3; i++ {
		got, err := f.service.Identity.Resolve(ctx, bearer)
		require.NoError(t, err)
		assert.Equal(t, cached.Identity(u), got)
	}
	assert.Equal(t, 3, f.store.Calls("User.FindByEmail"))
}

func TestResolve_SnapshotServedUntilInvalidated(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", entity.RoleAdmin)
	u := f.seedUser(t, "alice@example.com", entity.RoleUser)
	bearer := f.accessToken(t, u.Email)

	_, err := f.service.Identity.Resolve(ctx, bearer)
	require.NoError(t, err)

	_, err = f.service.User.UpdateUser(ctx, u.ID, &request.AdminUpdateUserRequest{IsActive: ptr(false)})
	require.NoError(t, err)

	got, err := f.service.Identity.Resolve(ctx, bearer)
	require.NoError(t, err)
	assert.False(t, got.IsActive, "admin changes invalidate the session key")
	assert.ErrorIs(t, RequireActive(got), ErrForbidden)
	assert.NoError(t, RequireAdmin(cached.Identity(admin)))
}
