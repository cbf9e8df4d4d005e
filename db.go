package main

import (
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
)

// openDB opens the SQLite file at path and makes sure the schema exists.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Daily aggregates as delivered by the picks producer
	_, err = db.Exec(`
    CREATE TABLE IF NOT EXISTS daily_performance (
      sport TEXT NOT NULL,
      day TEXT NOT NULL,
      locks INTEGER NOT NULL DEFAULT 0,
      rocks INTEGER NOT NULL DEFAULT 0,
      success_rate REAL NOT NULL DEFAULT 0,
      updated_at TEXT NOT NULL,

      PRIMARY KEY (sport, day)
    );
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create daily_performance: %w", err)
	}

	// One row per import run
	_, err = db.Exec(`
    CREATE TABLE IF NOT EXISTS imports (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        sport TEXT NOT NULL,
        source TEXT NOT NULL,
        days INTEGER NOT NULL,
        created_at TEXT NOT NULL
    );`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create imports: %w", err)
	}

	return db, nil
}
