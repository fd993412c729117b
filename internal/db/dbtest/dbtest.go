// Package dbtest provides migrated throwaway databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db"
	"github.com/yangtinglin69/saas/internal/db/models"
)

// New returns a migrated SQLite database stored in the test's temp dir.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Connect(db.Config{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return gdb
}

// NewMock returns a gorm handle backed by sqlmock using the postgres dialect.
// Callers register expectations on the returned mock.
func NewMock(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := db.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), "silent")
	require.NoError(t, err)

	t.Cleanup(func() { sqlDB.Close() })

	return gdb, mock
}

// Fixture bundles the parent rows most tests need.
type Fixture struct {
	User   *models.User
	Domain *models.Domain
	Site   *models.Site
}

// Seed inserts an owner, an active root domain and an active site named
// after subdomain under "example.com".
func Seed(t testing.TB, gdb *gorm.DB, subdomain string) Fixture {
	t.Helper()

	var domain models.Domain
	err := gdb.Where(models.Domain{Domain: "example.com"}).
		Attrs(models.Domain{Name: "Example", IsActive: true}).
		FirstOrCreate(&domain).Error
	require.NoError(t, err)

	user := &models.User{Email: subdomain + "@example.com", Password: "x", IsActive: true}
	require.NoError(t, gdb.Create(user).Error)

	site := &models.Site{
		UserID:     user.ID,
		DomainID:   domain.ID,
		Subdomain:  subdomain,
		FullDomain: subdomain + ".example.com",
		Name:       subdomain,
		IsActive:   true,
	}
	require.NoError(t, gdb.Create(site).Error)

	return Fixture{User: user, Domain: &domain, Site: site}
}
