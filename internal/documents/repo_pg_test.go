package documents

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"attachments-backend/internal/morph"
)

func newPGRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &PGRepo{DB: db}, mock
}

func docRows(docs ...Document) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "documentable_type", "documentable_id", "text", "created_by",
		"original_filename", "mime_type", "storage_key", "size_bytes", "created_at",
	})
	for _, doc := range docs {
		var text any
		if doc.Text != nil {
			text = *doc.Text
		}
		rows.AddRow(doc.ID, doc.DocumentableType, doc.DocumentableID, text, doc.CreatedBy,
			doc.File.OriginalName, doc.File.MimeType, doc.File.StorageKey, doc.File.SizeBytes, doc.CreatedAt)
	}
	return rows
}

func TestPGOwnerExists(t *testing.T) {
	repo, mock := newPGRepo(t)
	owner := morph.Model{Alias: "client", Table: "clients"}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM "clients" WHERE id = $1)`)).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.OwnerExists(context.Background(), owner, "owner-1")
	if err != nil {
		t.Fatalf("owner exists: %v", err)
	}
	if !exists {
		t.Fatal("expected owner to exist")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGCreateBatchCommits(t *testing.T) {
	repo, mock := newPGRepo(t)
	owner := morph.Model{Alias: "client", Table: "clients"}
	now := time.Now().UTC()
	docs := []Document{
		{
			ID: "doc-1", DocumentableType: "clients", DocumentableID: "owner-1",
			CreatedBy: "user-1", CreatedAt: now,
			File: File{OriginalName: "a.txt", MimeType: "text/plain", StorageKey: "k1", SizeBytes: 5},
		},
		{
			ID: "doc-2", DocumentableType: "clients", DocumentableID: "owner-1",
			CreatedBy: "user-1", CreatedAt: now,
			File: File{OriginalName: "b.txt", MimeType: "text/plain", StorageKey: "k2", SizeBytes: 4},
		},
	}

	mock.ExpectBegin()
	for _, doc := range docs {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO documents`)).
			WithArgs(doc.ID, doc.DocumentableType, doc.DocumentableID, sqlmock.AnyArg(),
				doc.CreatedBy, doc.File.OriginalName, doc.File.MimeType, doc.File.StorageKey,
				doc.File.SizeBytes, doc.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "clients" SET updated_at = $1 WHERE id = $2`)).
		WithArgs(sqlmock.AnyArg(), "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.CreateBatch(context.Background(), owner, "owner-1", docs); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGCreateBatchRollsBackOnInsertError(t *testing.T) {
	repo, mock := newPGRepo(t)
	owner := morph.Model{Alias: "client", Table: "clients"}
	docs := []Document{{
		ID: "doc-1", DocumentableType: "clients", DocumentableID: "owner-1",
		CreatedBy: "user-1", CreatedAt: time.Now().UTC(),
		File: File{OriginalName: "a.txt", MimeType: "text/plain", StorageKey: "k1"},
	}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO documents`)).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	if err := repo.CreateBatch(context.Background(), owner, "owner-1", docs); err == nil {
		t.Fatal("expected insert error to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGListWithSearch(t *testing.T) {
	repo, mock := newPGRepo(t)
	text := "annual revenue"
	doc := Document{
		ID: "doc-1", DocumentableType: "clients", DocumentableID: "owner-1",
		Text: &text, CreatedBy: "user-1", CreatedAt: time.Now().UTC(),
		File: File{OriginalName: "report.pdf", MimeType: "application/pdf", StorageKey: "k1", SizeBytes: 9},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`AND (original_filename ILIKE $3 OR text ILIKE $3) ORDER BY created_at DESC`)).
		WithArgs("clients", "owner-1", "%revenue%").
		WillReturnRows(docRows(doc))

	docs, err := repo.List(context.Background(), Query{
		DocumentableType: "clients",
		DocumentableID:   "owner-1",
		Search:           "revenue",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Fatalf("unexpected result %v", docs)
	}
	if docs[0].Text == nil || *docs[0].Text != text {
		t.Fatal("text column must round-trip")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGListWithoutSearchOmitsFilter(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectQuery(`WHERE documentable_type = \$1 AND documentable_id = \$2 ORDER BY created_at DESC`).
		WithArgs("clients", "owner-1").
		WillReturnRows(docRows())

	docs, err := repo.List(context.Background(), Query{DocumentableType: "clients", DocumentableID: "owner-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty result, got %d", len(docs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGGetByIDNotFound(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(docRows())

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGDeleteNotFound(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM documents WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGSetTextOnlyWhileNull(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`SET text = $1 WHERE id = $2 AND text IS NULL`)).
		WithArgs("extracted", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetText(context.Background(), "doc-1", "extracted"); err != nil {
		t.Fatalf("set text: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
