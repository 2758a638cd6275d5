package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
)

// Options configures a Store.
type Options struct {
	DefaultCategory string
	MaxTextLength   int
	MaxBulkRows     int
	// Repository is optional; without one documents live only in memory.
	Repository Repository
}

// Store assigns ids and keeps the append-only document list. Each successful
// write produces a new Set; Sets already handed out never change.
type Store struct {
	mu      sync.Mutex
	opts    Options
	current *Set
	nextID  int64
	logger  *slog.Logger
}

// NewStore returns an empty store. Call Restore to load persisted documents.
func NewStore(opts Options) *Store {
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = "Umum"
	}
	return &Store{
		opts:    opts,
		current: newSet(0, nil),
		nextID:  1,
		logger:  slog.Default().With("component", "corpus"),
	}
}

// Snapshot returns the current immutable set.
func (s *Store) Snapshot() *Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Restore replaces the contents with documents loaded from the repository.
// It is meant for startup, before any write.
func (s *Store) Restore(ctx context.Context) (*Set, error) {
	if s.opts.Repository == nil {
		return s.Snapshot(), nil
	}
	docs, err := s.opts.Repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring corpus: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := int64(1)
	for _, d := range docs {
		if d.ID >= next {
			next = d.ID + 1
		}
	}
	s.nextID = next
	s.current = newSet(s.current.Version+1, docs)
	return s.current, nil
}

// Add validates and stores one document.
func (s *Store) Add(ctx context.Context, row Row) (Document, *Set, error) {
	clean, err := validateRow(row, s.opts.DefaultCategory, s.opts.MaxTextLength)
	if err != nil {
		return Document{}, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := Document{ID: s.nextID, Text: clean.Text, Category: clean.Category}
	set, err := s.commit(ctx, []Document{doc})
	if err != nil {
		return Document{}, nil, err
	}
	return doc, set, nil
}

// AddBulk validates each row independently. Valid rows are stored together
// in input order; invalid rows are reported with their 1-based position.
func (s *Store) AddBulk(ctx context.Context, rows []Row) (BulkResult, *Set, error) {
	result := BulkResult{Total: len(rows), Inserted: []Document{}, Failed: []RowError{}}
	if s.opts.MaxBulkRows > 0 && len(rows) > s.opts.MaxBulkRows {
		return result, nil, apperrors.Validation("bulk upload accepts at most %d rows", s.opts.MaxBulkRows)
	}
	valid := make([]Row, 0, len(rows))
	for i, row := range rows {
		clean, err := validateRow(row, s.opts.DefaultCategory, s.opts.MaxTextLength)
		if err != nil {
			result.Failed = append(result.Failed, RowError{Row: i + 1, Error: apperrors.PublicMessage(err)})
			continue
		}
		valid = append(valid, clean)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(valid) == 0 {
		return result, s.current, nil
	}
	docs := make([]Document, len(valid))
	for i, row := range valid {
		docs[i] = Document{ID: s.nextID + int64(i), Text: row.Text, Category: row.Category}
	}
	set, err := s.commit(ctx, docs)
	if err != nil {
		return result, nil, err
	}
	result.Inserted = docs
	return result, set, nil
}

// commit persists docs and publishes a new set. Caller holds mu.
func (s *Store) commit(ctx context.Context, docs []Document) (*Set, error) {
	if s.opts.Repository != nil {
		if err := s.opts.Repository.Save(ctx, docs); err != nil {
			s.logger.Error("persisting documents failed", "count", len(docs), "error", err)
			return nil, fmt.Errorf("persisting documents: %w", err)
		}
	}
	prev := s.current.docs
	all := make([]Document, 0, len(prev)+len(docs))
	all = append(all, prev...)
	all = append(all, docs...)
	s.nextID = docs[len(docs)-1].ID + 1
	s.current = newSet(s.current.Version+1, all)
	s.logger.Debug("documents stored", "count", len(docs), "version", s.current.Version)
	return s.current, nil
}
