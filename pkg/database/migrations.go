package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	catalogdomain "github.com/tesseramedia/tessera/internal/catalog/domain"
	reviewdomain "github.com/tesseramedia/tessera/internal/review/domain"
	userdomain "github.com/tesseramedia/tessera/internal/user/domain"
)

// Migration represents a database migration record.
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Version   string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// MigrationFunc is a function that performs a migration.
type MigrationFunc func(*gorm.DB) error

// MigrationEntry represents a single migration.
type MigrationEntry struct {
	Version string
	Name    string
	Up      MigrationFunc
}

// Migrator handles database migrations.
type Migrator struct {
	db         *gorm.DB
	migrations []MigrationEntry
}

// NewMigrator creates a new migrator instance.
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getAllMigrations(),
	}
}

// RunMigrations runs all pending migrations on the given database.
func RunMigrations(db *gorm.DB) error {
	return NewMigrator(db).Migrate()
}

// Migrate runs all pending migrations.
func (m *Migrator) Migrate() error {
	if err := m.db.AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var appliedMigrations []Migration
	if err := m.db.Find(&appliedMigrations).Error; err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	applied := make(map[string]bool)
	for _, migration := range appliedMigrations {
		applied[migration.Version] = true
	}

	for _, migration := range m.migrations {
		if applied[migration.Version] {
			continue
		}

		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}

			return tx.Create(&Migration{
				Version:   migration.Version,
				Name:      migration.Name,
				AppliedAt: time.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", migration.Version, err)
		}
	}

	return nil
}

// getAllMigrations returns all migrations in order.
func getAllMigrations() []MigrationEntry {
	return []MigrationEntry{
		{
			Version: "20250601_001",
			Name:    "Create initial schema",
			Up:      migration001CreateInitialSchema,
		},
		{
			Version: "20250601_002",
			Name:    "Add lookup indexes",
			Up:      migration002AddIndexes,
		},
	}
}

// migration001CreateInitialSchema creates the tables for all domain models.
// The composite unique index on reviews (title_id, author_id) is declared on
// the model and created here; it is the authoritative duplicate-review guard.
func migration001CreateInitialSchema(db *gorm.DB) error {
	return db.AutoMigrate(
		&userdomain.User{},
		&catalogdomain.Category{},
		&catalogdomain.Genre{},
		&catalogdomain.Title{},
		&reviewdomain.Review{},
		&reviewdomain.Comment{},
	)
}

// migration002AddIndexes adds lookup indexes for the hot list queries.
func migration002AddIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_titles_year ON titles (year)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_title_id ON reviews (title_id)",
		"CREATE INDEX IF NOT EXISTS idx_comments_review_id ON comments (review_id)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
