// Package testutil holds shared helpers for the integration and acceptance
// suites.
package testutil

import (
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/terra-dine/terra-ordering/models"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}

	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// OpenTestDB opens a fresh in-memory database with the full schema migrated
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Table{},
		&models.Order{},
		&models.KOTLine{},
		&models.MenuItem{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// SeedStore loads one available table and a small menu into the database
// and returns the table
func SeedStore(t *testing.T, db *gorm.DB, slug string) models.Table {
	t.Helper()

	table := models.Table{Number: 12, QRSlug: slug, CartID: "store-1", Status: models.TableAvailable}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("Failed to seed table: %v", err)
	}

	menu := []models.MenuItem{
		{Name: "Masala Dosa", Category: "Mains", Price: 12000, Available: true, CartID: "store-1"},
		{Name: "Filter Coffee", Category: "Drinks", Price: 4000, Available: true, CartID: "store-1"},
	}
	if err := db.Create(&menu).Error; err != nil {
		t.Fatalf("Failed to seed menu: %v", err)
	}
	return table
}
