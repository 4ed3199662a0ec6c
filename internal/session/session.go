// Package session holds the working state of one interactive browserdb run.
package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"browserdb/internal/browser"
	"browserdb/internal/sorting"
)

// Session owns a dataset, the order it was loaded in and the per-column
// sort toggle.
type Session struct {
	ID   string
	Data *browser.Dataset

	original []browser.Record
	sorter   sorting.Sorter
	toggle   *sorting.ColumnToggle
	logger   *zap.Logger
}

func New(records []browser.Record, sorter sorting.Sorter, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		Data:     browser.NewDataset(records),
		original: browser.Clone(records),
		sorter:   sorter,
		toggle:   sorting.NewColumnToggle(sorter),
		logger:   logger.With(zap.String("session", id)),
	}
}

func (s *Session) Logger() *zap.Logger { return s.logger }

func (s *Session) Records() []browser.Record { return s.Data.Records() }

// Load replaces the working set and makes its order the new original.
func (s *Session) Load(records []browser.Record) {
	s.Data.Replace(records)
	s.original = browser.Clone(records)
	s.toggle.Reset()
	s.logger.Debug("dataset loaded", zap.Int("records", len(records)))
}

// SortBy reorders the working set. On error the order is left unchanged.
func (s *Session) SortBy(spec sorting.SortSpec) error {
	out, err := s.sorter.Sort(s.Data.Records(), spec)
	if err != nil {
		return err
	}
	s.Data.Replace(out)
	s.logger.Debug("sorted", zap.Stringer("spec", spec))
	return nil
}

// SortByColumn sorts by f, alternating direction on repeated calls.
func (s *Session) SortByColumn(f browser.Field) (sorting.Direction, error) {
	out, dir, err := s.toggle.SortByColumn(s.Data.Records(), f)
	if err != nil {
		return dir, err
	}
	s.Data.Replace(out)
	s.logger.Debug("sorted by column", zap.Stringer("field", f), zap.Stringer("direction", dir))
	return dir, nil
}

// QuickSorts are the one-word ascending sorts offered by the shell.
var QuickSorts = map[string]browser.Field{
	"name":      browser.FieldName,
	"date":      browser.FieldReleaseYear,
	"developer": browser.FieldDeveloper,
}

func (s *Session) QuickSort(name string) error {
	f, ok := QuickSorts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fmt.Errorf("unknown quick sort %q (want name, date or developer)", name)
	}
	return s.SortBy(sorting.SortSpec{Primary: sorting.Level{Field: f}})
}

// Restore puts the working set back in load order.
func (s *Session) Restore() {
	s.Data.Replace(s.original)
	s.toggle.Reset()
	s.logger.Debug("original order restored")
}

func (s *Session) Search(query string) []browser.Record {
	return browser.Search(s.Data.Records(), query)
}

// Add inserts r, assigning the next free id when r.ID is empty.
func (s *Session) Add(r browser.Record) (browser.Record, error) {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = strconv.Itoa(s.Data.NextID())
	}
	if err := s.Data.Add(r); err != nil {
		return browser.Record{}, err
	}
	added, _ := s.Data.Get(r.ID)
	s.original = append(s.original, added)
	s.logger.Info("record added", zap.String("id", added.ID), zap.String("name", added.Name))
	return added, nil
}

// Update replaces the record with id in both the working set and the
// original order.
func (s *Session) Update(id string, r browser.Record) error {
	if err := s.Data.Update(id, r); err != nil {
		return err
	}
	id, r = strings.TrimSpace(id), r.Trimmed()
	for i := range s.original {
		if s.original[i].ID == id {
			s.original[i] = r
			break
		}
	}
	s.logger.Info("record updated", zap.String("id", id))
	return nil
}

// Clear drops every record and returns how many there were.
func (s *Session) Clear() int {
	n := s.Data.Len()
	s.Data.Clear()
	s.original = nil
	s.toggle.Reset()
	s.logger.Info("records cleared", zap.Int("count", n))
	return n
}

// Delete removes the given ids and returns how many were found.
func (s *Session) Delete(ids ...string) int {
	n := s.Data.Delete(ids...)
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[strings.TrimSpace(id)] = true
	}
	kept := s.original[:0]
	for _, r := range s.original {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	s.original = kept
	s.logger.Info("records deleted", zap.Int("count", n))
	return n
}
