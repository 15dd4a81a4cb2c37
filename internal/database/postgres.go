package database

import (
	"database/sql"
)

type PgConVoteRepository struct {
	conn *sql.DB
}

func NewPgConVoteRepository(dsn string) (*PgConVoteRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgConVoteRepository{conn: db}, nil
}

func (db *PgConVoteRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgConVoteRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
