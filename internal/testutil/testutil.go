// Package testutil provides an isolated in-memory database and seed helpers
// for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vishalpmittal/dratavlibrary/internal/db"
	"github.com/vishalpmittal/dratavlibrary/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:testdb_" + uuid.New().String() + "?mode=memory&cache=shared"

	database, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB from gorm: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return database
}

func SeedAuthor(t *testing.T, database *gorm.DB, firstName, lastName string) model.Author {
	t.Helper()

	author := model.Author{
		FirstName: firstName,
		LastName:  lastName,
	}

	if err := database.Create(&author).Error; err != nil {
		t.Fatalf("failed to seed author %q %q: %v", firstName, lastName, err)
	}

	return author
}

type BookOption func(*model.Book)

func WithAuthor(a model.Author) BookOption {
	return func(b *model.Book) {
		id := a.ID
		b.AuthorID = &id
	}
}

func WithReleaseDate(t time.Time) BookOption {
	return func(b *model.Book) {
		b.ReleaseDate = &t
	}
}

func CheckedOut() BookOption {
	return func(b *model.Book) {
		b.CheckedOut = true
	}
}

func SeedBook(t *testing.T, database *gorm.DB, title string, pageCount int, opts ...BookOption) model.Book {
	t.Helper()

	book := model.Book{
		Title:     title,
		PageCount: pageCount,
	}
	for _, opt := range opts {
		opt(&book)
	}

	if err := database.Create(&book).Error; err != nil {
		t.Fatalf("failed to seed book %q: %v", title, err)
	}

	return book
}

// SeedCatalog loads a small fixed catalog: six books, three authors, and one
// book without an author.
func SeedCatalog(t *testing.T, database *gorm.DB) (alice, bob, carol model.Author) {
	t.Helper()

	alice = SeedAuthor(t, database, "Alice", "Munro")
	bob = SeedAuthor(t, database, "Bob", "Dylan")
	carol = SeedAuthor(t, database, "Carol", "Shields")

	SeedBook(t, database, "Midnight Library", 288, WithAuthor(alice),
		WithReleaseDate(time.Date(2020, 8, 13, 0, 0, 0, 0, time.UTC)))
	SeedBook(t, database, "Runaway", 335, WithAuthor(alice))
	SeedBook(t, database, "Chronicles", 293, WithAuthor(bob))
	SeedBook(t, database, "Tarantula", 137, WithAuthor(bob))
	SeedBook(t, database, "The Stone Diaries", 361, WithAuthor(carol))
	SeedBook(t, database, "Anonymous Tales", 90)

	return alice, bob, carol
}
