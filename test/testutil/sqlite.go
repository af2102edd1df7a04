package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	catalogdomain "github.com/tesseramedia/tessera/internal/catalog/domain"
	reviewdomain "github.com/tesseramedia/tessera/internal/review/domain"
	userdomain "github.com/tesseramedia/tessera/internal/user/domain"
)

// NewTestDB creates a new in-memory SQLite database with the full
// schema migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&userdomain.User{},
		&catalogdomain.Category{},
		&catalogdomain.Genre{},
		&catalogdomain.Title{},
		&reviewdomain.Review{},
		&reviewdomain.Comment{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	return db
}
