package requests

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const requestColumns = `id, user_prompt, image_references, status, error_message, gpt_raw_response, is_success, created_at, updated_at`

// Create inserts a new request and returns it with DB-assigned fields.
func (r *PGRepo) Create(ctx context.Context, req Request) (Request, error) {
	const query = `
INSERT INTO analysis_requests (user_prompt, image_references, status, is_success)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`
	refs, err := marshalRefs(req.ImageReferences)
	if err != nil {
		return Request{}, err
	}
	err = r.DB.QueryRowContext(ctx, query, req.UserPrompt, refs, req.Status, req.IsSuccess).
		Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

// GetByID returns a request by ID.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Request, error) {
	const query = `SELECT ` + requestColumns + ` FROM analysis_requests WHERE id = $1 LIMIT 1`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// List returns requests newest first with an optional status filter.
func (r *PGRepo) List(ctx context.Context, status string, limit, offset int) ([]Request, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}

	var total int
	if status != "" {
		if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_requests WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
	} else {
		if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_requests`).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	query := `SELECT ` + requestColumns + ` FROM analysis_requests`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if status != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

// UpdateStatus sets the status and error message.
func (r *PGRepo) UpdateStatus(ctx context.Context, id int64, status string, errorMessage *string) (Request, error) {
	const query = `
UPDATE analysis_requests
SET status = $2, error_message = $3, updated_at = now()
WHERE id = $1
RETURNING ` + requestColumns
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, id, status, errorMessage))
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// SetOutcome records the raw model response and final status in one update.
func (r *PGRepo) SetOutcome(ctx context.Context, id int64, raw json.RawMessage, isSuccess bool, status string, errorMessage *string) (Request, error) {
	const query = `
UPDATE analysis_requests
SET gpt_raw_response = $2, is_success = $3, status = $4, error_message = $5, updated_at = now()
WHERE id = $1
RETURNING ` + requestColumns
	var rawArg any
	if len(raw) > 0 {
		rawArg = string(raw)
	}
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, id, rawArg, isSuccess, status, errorMessage))
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// Delete removes the request.
func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM analysis_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var req Request
	var refs sql.NullString
	var errorMessage sql.NullString
	var raw sql.NullString
	err := row.Scan(
		&req.ID,
		&req.UserPrompt,
		&refs,
		&req.Status,
		&errorMessage,
		&raw,
		&req.IsSuccess,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return Request{}, err
	}
	if refs.Valid && refs.String != "" {
		if err := json.Unmarshal([]byte(refs.String), &req.ImageReferences); err != nil {
			return Request{}, err
		}
	}
	if errorMessage.Valid {
		req.ErrorMessage = &errorMessage.String
	}
	if raw.Valid && raw.String != "" {
		req.GPTRawResponse = json.RawMessage(raw.String)
	}
	return req, nil
}

func marshalRefs(refs []string) (string, error) {
	if len(refs) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
