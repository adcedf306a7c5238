// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/models/migrations"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with foreign keys
// enforced and the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, migrations.AutoMigrate(db))
	return db
}

const Password = "correct-horse-battery"

var (
	hashOnce     sync.Once
	passwordHash string
)

// CreateUser inserts a user whose password is Password.
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hashOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		passwordHash = string(hashed)
	})
	user := &models.User{Email: email, Password: passwordHash, FirstName: "Test"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateUserWithToken inserts a user holding an API token.
func CreateUserWithToken(t *testing.T, db *gorm.DB, email, token string) *models.User {
	t.Helper()
	user := CreateUser(t, db, email)
	require.NoError(t, db.Model(user).Update("token", token).Error)
	user.Token = &token
	return user
}

func Grant(t *testing.T, db *gorm.DB, user *models.User, caps ...models.Capability) {
	t.Helper()
	for _, c := range caps {
		require.NoError(t, db.Create(&models.UserPermission{UserID: user.ID, Capability: c}).Error)
	}
}

func Ctx() context.Context {
	return context.Background()
}

func UintPtr(v uint) *uint {
	return &v
}
