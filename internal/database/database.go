package database

import (
	"context"
	"fmt"
	"strings"

	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
	log *logger.Logger
}

// Connect ouvre la base. Les URL "sqlite://<chemin>" utilisent SQLite (développement local),
// toutes les autres sont passées au driver postgres.
func Connect(databaseURL string, logLevel string, log *logger.Logger) (*DB, error) {
	var gormLogLevel gormlogger.LogLevel
	switch logLevel {
	case "debug":
		gormLogLevel = gormlogger.Info
	case "warn":
		gormLogLevel = gormlogger.Warn
	case "error":
		gormLogLevel = gormlogger.Error
	default:
		gormLogLevel = gormlogger.Silent
	}

	db, err := gorm.Open(dialector(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if db.Dialector.Name() == "sqlite" {
		if err := prepareSQLite(db); err != nil {
			return nil, err
		}
	}

	log.Info("Database connection established", "driver", db.Dialector.Name())
	return &DB{DB: db, log: log}, nil
}

func dialector(databaseURL string) gorm.Dialector {
	if path, ok := strings.CutPrefix(databaseURL, "sqlite://"); ok {
		return sqlite.Open(path)
	}
	return postgres.Open(databaseURL)
}

// Migrate crée ou met à jour les tables du service
func (db *DB) Migrate() error {
	db.log.Info("Running database migrations")

	if err := Migrate(db.DB); err != nil {
		return err
	}

	db.log.Info("Database migrations completed")
	return nil
}

// OpenSQLite ouvre une base SQLite migrée, utilisée par les tests et le mode local
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := prepareSQLite(db); err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// prepareSQLite sérialise les accès sur une seule connexion et active les clés étrangères
func prepareSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

// Migrate applique les migrations sur une connexion gorm quelconque
func Migrate(gdb *gorm.DB) error {
	for _, model := range []interface{}{&models.CourseWeek{}, &models.CourseWeekFeatures{}, &models.GenerationRun{}} {
		if err := gdb.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping vérifie que la connexion répond
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
