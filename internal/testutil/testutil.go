// Package testutil provides a shared throwaway Postgres for storage-level
// tests. One container is started per test binary and tables are truncated
// between tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/millbrook-county/civic-portal/backend/internal/database"
)

var (
	once     sync.Once
	sharedDB *gorm.DB
	startErr error
)

// SetupTestDB returns a migrated gorm connection to the shared test
// container, with all tables emptied.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	once.Do(start)
	if startErr != nil {
		t.Fatalf("Failed to start test database: %v", startErr)
	}

	err := sharedDB.Exec(`
		TRUNCATE votes, comments, suggestions, poll_options, polls, accounts, voter_registry
		RESTART IDENTITY CASCADE
	`).Error
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return sharedDB
}

func start() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("civic_test"),
		tcpostgres.WithUsername("civic"),
		tcpostgres.WithPassword("civic"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		startErr = fmt.Errorf("starting postgres container: %w", err)
		return
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		startErr = fmt.Errorf("getting connection string: %w", err)
		return
	}

	// Confirm the server accepts connections before handing it to gorm.
	raw, err := sql.Open("pgx", connStr)
	if err != nil {
		startErr = fmt.Errorf("opening raw connection: %w", err)
		return
	}
	defer raw.Close()
	if err := raw.PingContext(ctx); err != nil {
		startErr = fmt.Errorf("pinging test database: %w", err)
		return
	}

	db, err := gorm.Open(gormpostgres.Open(connStr), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		startErr = fmt.Errorf("opening gorm connection: %w", err)
		return
	}

	if err := database.Migrate(db); err != nil {
		startErr = fmt.Errorf("migrating test database: %w", err)
		return
	}

	sharedDB = db
}
