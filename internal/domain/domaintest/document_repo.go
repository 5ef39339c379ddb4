package domaintest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/documents"
)

// DocumentRepo is a map-backed documents.Repository.
type DocumentRepo[T documents.Doc] struct {
	mu    sync.Mutex
	docs  map[id.ID]T
	lines map[id.ID]documents.Lines
	order []id.ID

	// Match applies document-specific list filters. Nil matches everything.
	Match func(doc T, f documents.ListFilter) bool
	// Err, when set, is returned by every write.
	Err error
}

// NewDocumentRepo creates an empty repository.
func NewDocumentRepo[T documents.Doc]() *DocumentRepo[T] {
	return &DocumentRepo[T]{
		docs:  make(map[id.ID]T),
		lines: make(map[id.ID]documents.Lines),
	}
}

// Len returns the number of stored documents.
func (r *DocumentRepo[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func (r *DocumentRepo[T]) Create(_ context.Context, doc T) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.GetID()]; ok {
		return apperror.NewConflict("document already exists")
	}
	r.docs[doc.GetID()] = doc
	r.order = append(r.order, doc.GetID())
	return nil
}

func (r *DocumentRepo[T]) GetByID(_ context.Context, docID id.ID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("document", docID.String())
	}
	return doc, nil
}

func (r *DocumentRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.GetByID(ctx, docID)
}

func (r *DocumentRepo[T]) Update(_ context.Context, doc T) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.GetID()]; !ok {
		return apperror.NewNotFound("document", doc.GetID().String())
	}
	r.docs[doc.GetID()] = doc
	return nil
}

func (r *DocumentRepo[T]) GetLines(_ context.Context, docID id.ID) (documents.Lines, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(documents.Lines(nil), r.lines[docID]...), nil
}

func (r *DocumentRepo[T]) SaveLines(_ context.Context, docID id.ID, lines documents.Lines) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[docID] = append(documents.Lines(nil), lines...)
	return nil
}

func (r *DocumentRepo[T]) List(_ context.Context, f documents.ListFilter) (domain.ListResult[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, docID := range r.order {
		doc := r.docs[docID]
		if f.Search != "" && !strings.Contains(strings.ToLower(doc.GetNumber()), strings.ToLower(f.Search)) {
			continue
		}
		if f.DateFrom != nil && doc.GetDate().Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && doc.GetDate().After(*f.DateTo) {
			continue
		}
		if r.Match != nil && !r.Match(doc, f) {
			continue
		}
		out = append(out, doc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GetDate().After(out[j].GetDate()) })
	total := int64(len(out))
	if f.Offset < len(out) {
		out = out[f.Offset:]
	} else {
		out = nil
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return domain.ListResult[T]{Items: out, TotalCount: total, Limit: f.Limit, Offset: f.Offset}, nil
}
