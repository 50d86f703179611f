package journal

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Repository persists entries in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the scan_outcomes table if missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scan_outcomes (
			id          UUID PRIMARY KEY,
			token       TEXT NOT NULL,
			kind        TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT '',
			message     TEXT NOT NULL DEFAULT '',
			scanned_by  TEXT NOT NULL DEFAULT '',
			members     INTEGER NOT NULL DEFAULT 0,
			occurred_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS scan_outcomes_occurred_at ON scan_outcomes (occurred_at DESC);
	`)
	return err
}

// Record writes a new entry.
func (r *Repository) Record(ctx context.Context, e Entry) (Entry, error) {
	e = prepare(e)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_outcomes (id, token, kind, status, message, scanned_by, members, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, e.ID, e.Token, e.Kind, e.Status, e.Message, e.ScannedBy, e.Members, e.At)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Recent lists entries newest first.
func (r *Repository) Recent(ctx context.Context, q Query) ([]Entry, error) {
	stmt, args := listQuery(q.normalized())
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Token, &e.Kind, &e.Status, &e.Message, &e.ScannedBy, &e.Members, &e.At); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func listQuery(q Query) (string, []any) {
	stmt := `SELECT id, token, kind, status, message, scanned_by, members, occurred_at FROM scan_outcomes`
	args := []any{}
	clauses := []string{}
	if q.Kind != "" {
		args = append(args, q.Kind)
		clauses = append(clauses, "kind = $"+strconv.Itoa(len(args)))
	}
	if q.Token != "" {
		args = append(args, q.Token)
		clauses = append(clauses, "token = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		stmt += " WHERE " + strings.Join(clauses, " AND ")
	}
	stmt += " ORDER BY occurred_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, q.Limit, q.Offset)
	return stmt, args
}
