// Package storetest opens throwaway databases for tests: in-memory SQLite by
// default, a scratch Postgres schema on request.
package storetest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"haat/internal/models"
	"haat/internal/store"
)

// New returns a migrated store backed by a private in-memory database. It
// runs on a single connection, so goroutines that open transactions take
// turns: concurrency tests on it check the sequential outcome only. Use
// Postgres for real interleaving.
func New(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), store.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	s := store.New(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// User inserts an active user with the given role.
func User(t *testing.T, s *store.Store, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", Name: email, Role: role, IsActive: true}
	if err := s.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// Product inserts an active product.
func Product(t *testing.T, s *store.Store, slug string, price int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Slug:     slug,
		NameEn:   strings.ToUpper(slug[:1]) + slug[1:],
		NameHi:   slug + " (hi)",
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
		IsActive: true,
	}
	if err := s.Catalog.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// PostgresEnv names the DSN of a scratch Postgres database for tests that
// need real concurrent transactions.
const PostgresEnv = "HAAT_TEST_POSTGRES_DSN"

// Postgres returns a migrated store in a fresh schema of the database named by
// PostgresEnv, and skips the test when the variable is unset. The schema is
// dropped on cleanup.
func Postgres(t *testing.T) *store.Store {
	t.Helper()
	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresEnv)
	}
	admin, err := gorm.Open(postgres.Open(dsn), store.GormConfig())
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	schema := "test_" + strings.ReplaceAll(uuid.NewString()[:13], "-", "")
	if err := admin.Exec("CREATE SCHEMA " + schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "search_path=" + schema
	} else {
		dsn += " search_path=" + schema
	}
	db, err := gorm.Open(postgres.Open(dsn), store.GormConfig())
	if err != nil {
		t.Fatalf("open postgres schema: %v", err)
	}
	s := store.New(db)
	t.Cleanup(func() {
		_ = s.Close()
		_ = admin.Exec("DROP SCHEMA " + schema + " CASCADE").Error
		if sqlDB, err := admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}
