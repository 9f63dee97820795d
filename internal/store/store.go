// Package store owns the database handle and the CRUD repositories that sit
// directly on top of it.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"haat/internal/apperr"
	"haat/internal/config"
	"haat/internal/models"
)

// Store is constructed once at startup and closed at shutdown. Repositories
// share its *gorm.DB.
type Store struct {
	DB        *gorm.DB
	Catalog   *Catalog
	Carts     *Carts
	Wishlists *Wishlists
	Users     *Users
	AuditLogs *AuditLogs
}

func dialector(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
}

// GormConfig is shared by every connection the service opens. Driver errors
// are translated so duplicate keys surface as gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true}
}

func Open(cfg config.DBConfig, lg *zap.SugaredLogger) (*Store, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	lg.Infow("database connected", "driver", cfg.Driver)
	return New(db), nil
}

// New wraps an already opened database.
func New(db *gorm.DB) *Store {
	return &Store{
		DB:        db,
		Catalog:   &Catalog{db: db},
		Carts:     &Carts{db: db},
		AuditLogs: &AuditLogs{db: db},
		Wishlists: &Wishlists{db: db},
		Users:     &Users{db: db},
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Audit appends an audit log row. Failures are returned, callers usually ignore them.
func Audit(ctx context.Context, db *gorm.DB, actorID, action string, metadata any) error {
	var uid *string
	if actorID != "" {
		uid = &actorID
	}
	return db.WithContext(ctx).Create(&models.AuditLog{
		UserID:   uid,
		Action:   action,
		Metadata: models.MustJSON(metadata),
	}).Error
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

// isUniqueViolation recognises duplicate-key errors. The message checks cover
// drivers whose translator misses a constraint.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// Page clamps a limit/offset pair.
func Page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
