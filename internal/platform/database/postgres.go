package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"algotutor/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var DB *sql.DB

func Connect(ctx context.Context) error {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.PingContext(ctx); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	slog.Info("connected to postgres", "host", config.AppConfig.DBHost, "db", config.AppConfig.DBName)
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		slog.Info("database connection closed")
	}
}
