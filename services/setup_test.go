package services

import (
	"context"
	"testing"

	"downtodine/db"
	"downtodine/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	orm, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(orm))
	return orm
}

func createUser(t *testing.T, orm *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        gofakeit.Email(),
		Username:     username,
		PasswordHash: "x",
	}
	require.NoError(t, orm.Create(user).Error)
	return user
}

func ctx() context.Context {
	return context.Background()
}
