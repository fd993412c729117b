package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db/dbtest"
	"github.com/yangtinglin69/saas/internal/db/models"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/utils"
)

func createKey(t *testing.T, svc *APIKeyService, siteID uuid.UUID) (*models.APIKey, string) {
	t.Helper()
	key, plain, err := svc.CreateKey(context.Background(), siteID, "Publisher")
	require.NoError(t, err)
	return key, plain
}

func TestCreateKey(t *testing.T) {
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	svc := NewAPIKeyService(gdb)

	key, plain, err := svc.CreateKey(context.Background(), fx.Site.ID, "  ")
	require.NoError(t, err)

	assert.Contains(t, plain, utils.APIKeyPrefix)
	assert.Equal(t, utils.HashToken(plain), key.KeyHash)
	assert.Equal(t, "Default", key.Name)
	assert.True(t, key.IsActive)

	var stored models.APIKey
	require.NoError(t, gdb.First(&stored, "id = ?", key.ID).Error)
	assert.NotEqual(t, plain, stored.KeyHash)
}

func TestValidateKey(t *testing.T) {
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	svc := NewAPIKeyService(gdb)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	key, plain := createKey(t, svc, fx.Site.ID)

	t.Run("valid key", func(t *testing.T) {
		got, err := svc.ValidateKey(context.Background(), plain)
		require.NoError(t, err)
		assert.Equal(t, key.ID, got.ID)
		require.NotNil(t, got.Site)
		assert.Equal(t, "demo.example.com", got.Site.FullDomain)

		var stored models.APIKey
		require.NoError(t, gdb.First(&stored, "id = ?", key.ID).Error)
		require.NotNil(t, stored.LastUsedAt)
		assert.True(t, stored.LastUsedAt.Equal(fixed))
	})

	t.Run("unknown or empty key", func(t *testing.T) {
		_, err := svc.ValidateKey(context.Background(), "sk_nope")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidAPIKey)

		_, err = svc.ValidateKey(context.Background(), "")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidAPIKey)
	})

	t.Run("inactive site", func(t *testing.T) {
		require.NoError(t, gdb.Model(fx.Site).Update("is_active", false).Error)
		t.Cleanup(func() { gdb.Model(fx.Site).Update("is_active", true) })

		_, err := svc.ValidateKey(context.Background(), plain)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidAPIKey)
	})

	t.Run("revoked key", func(t *testing.T) {
		require.NoError(t, svc.RevokeKey(context.Background(), fx.Site.ID, key.ID))

		_, err := svc.ValidateKey(context.Background(), plain)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidAPIKey)
	})
}

func TestRevokeKey_ScopedToSite(t *testing.T) {
	gdb := dbtest.New(t)
	a := dbtest.Seed(t, gdb, "a")
	b := dbtest.Seed(t, gdb, "b")
	svc := NewAPIKeyService(gdb)

	key, plain := createKey(t, svc, a.Site.ID)

	err := svc.RevokeKey(context.Background(), b.Site.ID, key.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidAPIKey)

	_, err = svc.ValidateKey(context.Background(), plain)
	assert.NoError(t, err)
}

func TestListKeys(t *testing.T) {
	gdb := dbtest.New(t)
	a := dbtest.Seed(t, gdb, "a")
	b := dbtest.Seed(t, gdb, "b")
	svc := NewAPIKeyService(gdb)

	createKey(t, svc, a.Site.ID)
	createKey(t, svc, a.Site.ID)
	createKey(t, svc, b.Site.ID)

	keys, err := svc.ListKeys(context.Background(), a.Site.ID)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	for _, k := range keys {
		assert.Equal(t, a.Site.ID, k.SiteID)
	}
}

func TestListKeys_StoreFailure(t *testing.T) {
	gdb, mock := dbtest.NewMock(t)
	mock.ExpectQuery(`SELECT \* FROM "api_keys"`).WillReturnError(gorm.ErrInvalidDB)

	_, err := NewAPIKeyService(gdb).ListKeys(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	gdb := dbtest.New(t)
	return NewUserService(gdb, NewTOTPService("Test")), gdb
}

func TestEnsureUser(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	user, created, err := svc.EnsureUser(ctx, " Admin@Example.com ", "secret123", "Admin")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.Password)

	again, created, err := svc.EnsureUser(ctx, "admin@example.com", "changed", "Admin")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	// the original password still works
	_, err = svc.Authenticate(ctx, "admin@example.com", "secret123", "")
	assert.NoError(t, err)

	_, _, err = svc.EnsureUser(ctx, "", "x", "")
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	svc, gdb := newUserService(t)
	ctx := context.Background()

	user, _, err := svc.EnsureUser(ctx, "admin@example.com", "secret123", "Admin")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "admin@example.com", "secret123", nil},
		{"case insensitive email", "ADMIN@example.com", "secret123", nil},
		{"wrong password", "admin@example.com", "nope", pkgerrors.ErrUnauthorized},
		{"unknown email", "who@example.com", "secret123", pkgerrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, tt.email, tt.password, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})
	}

	t.Run("disabled account", func(t *testing.T) {
		require.NoError(t, gdb.Model(user).Update("is_active", false).Error)
		_, err := svc.Authenticate(ctx, "admin@example.com", "secret123", "")
		assert.ErrorIs(t, err, pkgerrors.ErrUnauthorized)
	})
}

func TestTwoFactorLifecycle(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	user, _, err := svc.EnsureUser(ctx, "admin@example.com", "secret123", "Admin")
	require.NoError(t, err)

	err = svc.EnableTwoFactor(ctx, user.ID, "123456")
	assert.ErrorIs(t, err, ErrTwoFactorNotStarted)

	secret, url, err := svc.BeginTwoFactor(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Contains(t, url, "otpauth://totp/")
	assert.Contains(t, url, "issuer=Test")

	// pending setup does not gate login
	_, err = svc.Authenticate(ctx, "admin@example.com", "secret123", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.EnableTwoFactor(ctx, user.ID, "000000"), ErrInvalidOTP)

	code, err := svc.totp.CodeAt(secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.EnableTwoFactor(ctx, user.ID, code))

	_, _, err = svc.BeginTwoFactor(ctx, user.ID)
	assert.ErrorIs(t, err, ErrTwoFactorEnabled)

	_, err = svc.Authenticate(ctx, "admin@example.com", "secret123", "")
	assert.ErrorIs(t, err, ErrOTPRequired)

	_, err = svc.Authenticate(ctx, "admin@example.com", "secret123", "000000")
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "admin@example.com", "secret123", code)
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.DisableTwoFactor(ctx, user.ID, "wrong"), pkgerrors.ErrUnauthorized)
	require.NoError(t, svc.DisableTwoFactor(ctx, user.ID, "secret123"))

	_, err = svc.Authenticate(ctx, "admin@example.com", "secret123", "")
	assert.NoError(t, err)
}

func TestTOTP_ValidateCodeWindow(t *testing.T) {
	svc := NewTOTPService("")
	secret, _, err := svc.GenerateSecret("a@example.com")
	require.NoError(t, err)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	current, err := svc.CodeAt(secret, base)
	require.NoError(t, err)
	previous, err := svc.CodeAt(secret, base.Add(-totpPeriod*time.Second))
	require.NoError(t, err)
	stale, err := svc.CodeAt(secret, base.Add(-5*totpPeriod*time.Second))
	require.NoError(t, err)

	assert.True(t, svc.ValidateCode(secret, current))
	assert.True(t, svc.ValidateCode(secret, previous))
	if stale != current && stale != previous {
		assert.False(t, svc.ValidateCode(secret, stale))
	}
	assert.False(t, svc.ValidateCode("", current))
	assert.False(t, svc.ValidateCode(secret, ""))
}
