// Package sqlite persists the state reports of runs in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	petri "github.com/jt05610/xschema"
	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	rounds     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS firings (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	round      INTEGER NOT NULL,
	transition TEXT NOT NULL,
	PRIMARY KEY (run_id, round)
);
CREATE TABLE IF NOT EXISTS markings (
	run_id     TEXT NOT NULL,
	round      INTEGER NOT NULL,
	place      TEXT NOT NULL,
	token      TEXT NOT NULL,
	count      INTEGER NOT NULL,
	PRIMARY KEY (run_id, round, place, token),
	FOREIGN KEY (run_id, round) REFERENCES firings(run_id, round)
);`

// Store is a report listener writing every round of a run as a firing row
// and its marking rows.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path, creating its tables if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Report(r *petri.StateReport) error {
	return s.Save(context.Background(), r)
}

// Save writes one report in a single transaction.
func (s *Store) Save(ctx context.Context, r *petri.StateReport) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		r.RunID, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.RunID, err)
	}
	_, err = tx.ExecContext(ctx, `UPDATE runs SET rounds = MAX(rounds, ?) WHERE id = ?`, r.Round, r.RunID)
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.RunID, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO firings (run_id, round, transition) VALUES (?, ?, ?)`,
		r.RunID, r.Round, r.Transition,
	)
	if err != nil {
		return fmt.Errorf("save round %d of %s: %w", r.Round, r.RunID, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO markings (run_id, round, place, token, count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare marking insert: %w", err)
	}
	defer stmt.Close()
	for _, m := range r.Marking {
		for token, count := range m.Tokens {
			if _, err := stmt.ExecContext(ctx, r.RunID, r.Round, m.Place, token, count); err != nil {
				return fmt.Errorf("save round %d of %s: %w", r.Round, r.RunID, err)
			}
		}
	}
	return tx.Commit()
}

// Rounds reads a run back as the reports it was saved from.
func (s *Store) Rounds(ctx context.Context, runID string) ([]*petri.StateReport, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT rounds FROM runs WHERE id = ?`, runID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	ret, err := s.firings(ctx, runID, n)
	if err != nil {
		return nil, err
	}
	byRound := make(map[int]*petri.StateReport, len(ret))
	for _, r := range ret {
		byRound[r.Round] = r
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT round, place, token, count FROM markings
		 WHERE run_id = ? ORDER BY round, place, token`, runID)
	if err != nil {
		return nil, fmt.Errorf("list markings of %s: %w", runID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			round        int
			place, token string
			count        int
		)
		if err := rows.Scan(&round, &place, &token, &count); err != nil {
			return nil, fmt.Errorf("scan marking: %w", err)
		}
		cur, found := byRound[round]
		if !found {
			return nil, fmt.Errorf("marking of unknown round %d of %s", round, runID)
		}
		if len(cur.Marking) == 0 || cur.Marking[len(cur.Marking)-1].Place != place {
			cur.Marking = append(cur.Marking, petri.PlaceState{Place: place, Tokens: make(map[string]int)})
		}
		cur.Marking[len(cur.Marking)-1].Tokens[token] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list markings of %s: %w", runID, err)
	}
	return ret, nil
}

func (s *Store) firings(ctx context.Context, runID string, n int) ([]*petri.StateReport, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT round, transition FROM firings WHERE run_id = ? ORDER BY round`, runID)
	if err != nil {
		return nil, fmt.Errorf("list rounds of %s: %w", runID, err)
	}
	defer rows.Close()
	ret := make([]*petri.StateReport, 0, n+1)
	for rows.Next() {
		r := &petri.StateReport{RunID: runID, Marking: make([]petri.PlaceState, 0)}
		if err := rows.Scan(&r.Round, &r.Transition); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		ret = append(ret, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rounds of %s: %w", runID, err)
	}
	return ret, nil
}

// Runs returns the ids of the stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	ret := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ret = append(ret, id)
	}
	return ret, rows.Err()
}
