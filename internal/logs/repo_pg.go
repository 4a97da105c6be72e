package logs

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert stores one entry.
func (r *PGRepo) Insert(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO logs (level, message, source, context)
VALUES ($1, $2, $3, $4)`
	var contextArg any
	if len(entry.Context) > 0 {
		contextArg = string(entry.Context)
	}
	_, err := r.DB.ExecContext(ctx, query, entry.Level, entry.Message, entry.Source, contextArg)
	return err
}

// List returns entries newest first with the pre-paging total.
func (r *PGRepo) List(ctx context.Context, f Filter) ([]Entry, int, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	where := ""
	args := []any{}
	if f.Level != "" {
		args = append(args, f.Level)
		where = ` WHERE level = $1`
	}
	if f.Source != "" {
		args = append(args, f.Source)
		if where == "" {
			where = ` WHERE source = $1`
		} else {
			where += ` AND source = $2`
		}
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, timestamp, level, message, source, context FROM logs` + where +
		` ORDER BY timestamp DESC, id DESC`
	n := len(args)
	query += placeholderPair(n)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var source sql.NullString
		var contextCol sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Level, &e.Message, &source, &contextCol); err != nil {
			return nil, 0, err
		}
		e.Source = source.String
		if contextCol.Valid && contextCol.String != "" {
			e.Context = []byte(contextCol.String)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// PruneKeeping deletes the oldest rows so at most keep remain.
func (r *PGRepo) PruneKeeping(ctx context.Context, keep int) (int64, error) {
	const query = `
DELETE FROM logs
WHERE id IN (
	SELECT id FROM logs ORDER BY id DESC OFFSET $1
)`
	res, err := r.DB.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Clear deletes every stored entry.
func (r *PGRepo) Clear(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM logs`)
	return err
}

func placeholderPair(n int) string {
	switch n {
	case 0:
		return ` LIMIT $1 OFFSET $2`
	case 1:
		return ` LIMIT $2 OFFSET $3`
	default:
		return ` LIMIT $3 OFFSET $4`
	}
}
