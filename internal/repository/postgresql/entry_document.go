package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const documentColumns = `id, day_entry_id, file_name, content_type, size, storage_path, created_at`

type documentRepositoryImpl struct {
	db *database.DB
}

func NewDocumentRepository(db *database.DB) timesheet.DocumentRepository {
	return &documentRepositoryImpl{db: db}
}

func scanDocument(row pgx.Row) (timesheet.Document, error) {
	var d timesheet.Document
	err := row.Scan(&d.ID, &d.DayEntryID, &d.FileName, &d.ContentType, &d.Size, &d.StoragePath, &d.CreatedAt)
	return d, err
}

func collectDocuments(rows pgx.Rows) ([]timesheet.Document, error) {
	defer rows.Close()
	var docs []timesheet.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetByID implements timesheet.DocumentRepository.
func (r *documentRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.Document, error) {
	if !isUUID(id) {
		return timesheet.Document{}, fmt.Errorf("%w: document %s", timesheet.ErrDocumentNotFound, id)
	}
	q := GetQuerier(ctx, r.db)
	d, err := scanDocument(q.QueryRow(ctx, `SELECT `+documentColumns+` FROM entry_documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return timesheet.Document{}, fmt.Errorf("%w: document %s", timesheet.ErrDocumentNotFound, id)
	}
	return d, err
}

// ListByEntries implements timesheet.DocumentRepository.
func (r *documentRepositoryImpl) ListByEntries(ctx context.Context, entryIDs []string) (map[string][]timesheet.Document, error) {
	out := make(map[string][]timesheet.Document)
	if len(entryIDs) == 0 {
		return out, nil
	}

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT `+documentColumns+`
		FROM entry_documents
		WHERE day_entry_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`, entryIDs)
	if err != nil {
		return nil, err
	}
	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.DayEntryID] = append(out[d.DayEntryID], d)
	}
	return out, nil
}

// Create implements timesheet.DocumentRepository.
func (r *documentRepositoryImpl) Create(ctx context.Context, doc timesheet.Document) (timesheet.Document, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO entry_documents (id, day_entry_id, file_name, content_type, size, storage_path, created_at)
		VALUES (uuidv7(), $1, $2, $3, $4, $5, NOW())
		RETURNING ` + documentColumns
	return scanDocument(q.QueryRow(ctx, query, doc.DayEntryID, doc.FileName, doc.ContentType, doc.Size, doc.StoragePath))
}

// DeleteByEntry implements timesheet.DocumentRepository.
func (r *documentRepositoryImpl) DeleteByEntry(ctx context.Context, entryID string) ([]timesheet.Document, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `DELETE FROM entry_documents WHERE day_entry_id = $1 RETURNING `+documentColumns, entryID)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}
