package requests

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateReturnsAssignedFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO analysis_requests").
		WithArgs("prompt", `["requests/a.png"]`, StatusQueued, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	req, err := repo.Create(context.Background(), Request{
		UserPrompt:      "prompt",
		ImageReferences: []string{"requests/a.png"},
		Status:          StatusQueued,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.ID != 7 {
		t.Fatalf("id = %d, want 7", req.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDecodesJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_prompt", "image_references", "status", "error_message",
		"gpt_raw_response", "is_success", "created_at", "updated_at",
	}).AddRow(int64(3), "p", `["requests/a.png","requests/b.png"]`, StatusCompleted, nil, `{"modified_code":"x"}`, true, now, now)

	mock.ExpectQuery("SELECT .* FROM analysis_requests WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(rows)

	req, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(req.ImageReferences) != 2 {
		t.Fatalf("refs = %v", req.ImageReferences)
	}
	if string(req.GPTRawResponse) != `{"modified_code":"x"}` {
		t.Fatalf("raw = %s", req.GPTRawResponse)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteMissingRowReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("DELETE FROM analysis_requests").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 9); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
