package storage

import (
	"database/sql"
	_ "embed"
	"fmt"

	"propcost/internal/server"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schema string

// InitDB opens the record store and makes sure the tables exist.
func InitDB(config server.Config) (*sql.DB, error) {
	db, err := sql.Open(config.DB.Driver, config.DB.Dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := CreateTables(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("driver", config.DB.Driver).Msg("Database ready")
	return db, nil
}

func CreateTables(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
