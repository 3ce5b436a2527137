package database

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pesafrisma19/pbbkemang/internal/config"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
)

// Test configuration for local PostgreSQL
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "pbb_test"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func TestPgx5DSN(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"postgres scheme", "postgres://u:p@h:5432/db", "pgx5://u:p@h:5432/db"},
		{"postgresql scheme", "postgresql://u:p@h/db", "pgx5://u:p@h/db"},
		{"already pgx5", "pgx5://u:p@h/db", "pgx5://u:p@h/db"},
		{"other", "host=h user=u", "host=h user=u"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pgx5DSN(tt.input); got != tt.want {
				t.Errorf("pgx5DSN(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatalf("Failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 || len(entries)%2 != 0 {
		t.Errorf("Expected paired up/down migrations, got %d files", len(entries))
	}
}

func TestNewPostgresPool_Success(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := getTestConfig()

	db, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	defer db.Close()

	if db.Pool == nil {
		t.Error("Expected Pool to be initialized")
	}

	stats := db.Stats()
	if stats == nil {
		t.Fatal("Expected stats to be available")
	}
	if stats.MaxConns() != int32(cfg.PoolMax) {
		t.Errorf("Expected MaxConns %d, got %d", cfg.PoolMax, stats.MaxConns())
	}
}

func TestNewPostgresPool_InvalidHost(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Host = "invalid-host-that-does-not-exist"

	_, err := NewPostgresPool(ctx, cfg)
	if err == nil {
		t.Error("Expected error when connecting to invalid host")
	}
}

func TestPing_AfterClose(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	db.Close()
	db.Close()

	if err := db.Ping(ctx); err == nil {
		t.Error("Expected ping to fail after pool is closed")
	}
}

func TestWithTx(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	defer db.Close()

	_, err = db.Pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS tx_check (v INT)`)
	if err != nil {
		t.Fatalf("Failed to create check table: %v", err)
	}
	defer func() {
		_, _ = db.Pool.Exec(ctx, `DROP TABLE IF EXISTS tx_check`)
	}()

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `INSERT INTO tx_check (v) VALUES (1)`); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("Expected boom, got %v", err)
		}

		var count int
		if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tx_check WHERE v = 1`).Scan(&count); err != nil {
			t.Fatalf("Failed to count rows: %v", err)
		}
		if count != 0 {
			t.Errorf("Expected rolled back insert, found %d rows", count)
		}
	})

	t.Run("commits on success", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `INSERT INTO tx_check (v) VALUES (2)`)
			return err
		})
		if err != nil {
			t.Errorf("Expected commit, got %v", err)
		}
	})
}

func TestMigrate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := getTestConfig()
	log := logger.NewWithWriter("test", io.Discard)

	// Second run exercises the no-change path
	for i := 0; i < 2; i++ {
		if err := Migrate(cfg.DSN(), log); err != nil {
			t.Fatalf("Migrate run %d failed: %v", i+1, err)
		}
	}
}
