// Package journal keeps a record of print jobs in a sqlite database.
package journal

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

//go:embed schema.sql
var schema string

type Status string

const (
	Done   Status = "done"
	Failed Status = "failed"
)

type Job struct {
	Uuid    uuid.UUID
	Kind    string
	Summary string
	// Bytes sent to the printer, and how long the printer was estimated to
	// be busy afterwards
	Bytes     int64
	Estimated time.Duration
	Status    Status
	Error     string
	CreatedAt time.Time
}

type Repository struct {
	Db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open database:\n%w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Couldn't initialise database:\n%w", err)
	}
	return &Repository{Db: db}, nil
}

func (r *Repository) Close() error {
	return r.Db.Close()
}

// Record stores a job, filling in its uuid and creation time if unset.
func (r *Repository) Record(j *Job) error {
	if j.Uuid == uuid.Nil {
		j.Uuid = uuid.New()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}

	_, err := r.Db.Exec(`
    INSERT INTO print_job (uuid, kind, summary, bytes, estimated_us, status, error, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.Uuid.String(), j.Kind, j.Summary, j.Bytes, j.Estimated.Microseconds(),
		string(j.Status), j.Error, j.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("Failed to record job:\n%w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (Job, error) {
	var j Job
	var uuidString, status string
	var estimated, createdAt int64
	if err := s.Scan(&uuidString, &j.Kind, &j.Summary, &j.Bytes, &estimated, &status, &j.Error, &createdAt); err != nil {
		return j, err
	}
	u, err := uuid.Parse(uuidString)
	if err != nil {
		return j, fmt.Errorf("Bad job uuid %q:\n%w", uuidString, err)
	}
	j.Uuid = u
	j.Status = Status(status)
	j.Estimated = time.Duration(estimated) * time.Microsecond
	j.CreatedAt = time.UnixMicro(createdAt)
	return j, nil
}

const jobColumns = `uuid, kind, summary, bytes, estimated_us, status, error, created_at`

// Get returns the job with the given uuid, or nil if there isn't one.
func (r *Repository) Get(u uuid.UUID) (*Job, error) {
	row := r.Db.QueryRow(`SELECT `+jobColumns+` FROM print_job WHERE uuid = ?`, u.String())
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("Failed to read job:\n%w", err)
	}
	return &j, nil
}

// Recent lists up to limit jobs, newest first.
func (r *Repository) Recent(limit int) ([]Job, error) {
	rows, err := r.Db.Query(`
    SELECT `+jobColumns+`
    FROM print_job
    ORDER BY created_at DESC, id DESC
    LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("Query execution failed:\n%w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("Row scanning failed:\n%w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Error iterating rows:\n%w", err)
	}
	return jobs, nil
}

// Totals sums the jobs recorded so far.
func (r *Repository) Totals() (count int, bytes int64, err error) {
	row := r.Db.QueryRow(`SELECT COUNT(1), COALESCE(SUM(bytes), 0) FROM print_job`)
	if err := row.Scan(&count, &bytes); err != nil {
		return 0, 0, fmt.Errorf("Failed to query totals:\n%w", err)
	}
	return count, bytes, nil
}

// Prune deletes jobs older than the given time.
func (r *Repository) Prune(before time.Time) (int64, error) {
	var deleted int64
	err := r.Transact(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM print_job WHERE created_at < ?`, before.UnixMicro())
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("Failed to prune jobs:\n%w", err)
	}
	return deleted, nil
}

// Run operations in a transaction, committing afterward, or rolling back if the
// passed function returns an error
func (r *Repository) Transact(f func(*sql.Tx) error) error {
	tx, err := r.Db.Begin()
	if err != nil {
		return err
	}

	if err = f(tx); err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			return fmt.Errorf("Failed to roll back transaction: %w\n\nAfter handling: %v", err2, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Failed to commit transaction:\n%w", err)
	}
	return nil
}
