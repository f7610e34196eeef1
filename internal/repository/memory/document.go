package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
)

type documentRepositoryImpl struct {
	store *Store
}

func NewDocumentRepository(store *Store) timesheet.DocumentRepository {
	return &documentRepositoryImpl{store: store}
}

func (r *documentRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.Document, error) {
	var (
		found timesheet.Document
		ok    bool
	)
	r.store.read(ctx, func() {
		found, ok = r.store.documents[id]
	})
	if !ok {
		return timesheet.Document{}, notFound(timesheet.ErrDocumentNotFound, "document", id)
	}
	return found, nil
}

func (r *documentRepositoryImpl) ListByEntries(ctx context.Context, entryIDs []string) (map[string][]timesheet.Document, error) {
	wanted := make(map[string]bool, len(entryIDs))
	for _, id := range entryIDs {
		wanted[id] = true
	}

	out := make(map[string][]timesheet.Document)
	r.store.read(ctx, func() {
		for _, doc := range r.store.documents {
			if wanted[doc.DayEntryID] {
				out[doc.DayEntryID] = append(out[doc.DayEntryID], doc)
			}
		}
	})
	for _, docs := range out {
		sortDocuments(docs)
	}
	return out, nil
}

func (r *documentRepositoryImpl) Create(ctx context.Context, doc timesheet.Document) (timesheet.Document, error) {
	err := r.store.write(ctx, func() error {
		if _, ok := r.store.entries[doc.DayEntryID]; !ok {
			return notFound(timesheet.ErrEntryNotFound, "entry", doc.DayEntryID)
		}
		doc.ID = newID()
		doc.CreatedAt = r.store.now()
		r.store.documents[doc.ID] = doc
		return nil
	})
	if err != nil {
		return timesheet.Document{}, err
	}
	return doc, nil
}

func (r *documentRepositoryImpl) DeleteByEntry(ctx context.Context, entryID string) ([]timesheet.Document, error) {
	var removed []timesheet.Document
	err := r.store.write(ctx, func() error {
		for id, doc := range r.store.documents {
			if doc.DayEntryID == entryID {
				removed = append(removed, doc)
				delete(r.store.documents, id)
			}
		}
		return nil
	})
	sortDocuments(removed)
	return removed, err
}

func sortDocuments(docs []timesheet.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}
