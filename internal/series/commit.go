package series

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rickgao/symboldb-tools/internal/maturity"
	"github.com/rickgao/symboldb-tools/internal/model"
	"github.com/rickgao/symboldb-tools/internal/sdb"
)

// Folder states reported for the series folder.
const (
	FolderCreated  = "created"
	FolderUpdated  = "updated"
	FolderToCreate = "to_create"
	FolderToUpdate = "to_update"
)

// ReportEntry is the outcome of one series commit.
type ReportEntry struct {
	Folder      string   `json:"folder,omitempty"`
	Created     []string `json:"created,omitempty"`
	Updated     []string `json:"updated,omitempty"`
	CreateError string   `json:"createError,omitempty"`
	UpdateError string   `json:"updateError,omitempty"`
	ToCreate    []string `json:"toCreate,omitempty"`
	ToUpdate    []string `json:"toUpdate,omitempty"`
	Skipped     []string `json:"skipped,omitempty"`
}

// Report maps series names to their commit outcome.
type Report map[string]ReportEntry

// Merge adds the entries of other.
func (r Report) Merge(other Report) {
	for k, v := range other {
		r[k] = v
	}
}

// Commit writes the series. The series folder is created or updated first,
// then new contracts go out in one batch create and changed contracts that
// have not expired in one batch update. A batch error is reported on the
// entry and nothing of that batch is assumed written. With dryRun nothing is
// written and the entry lists what would be.
func (s *Series) Commit(ctx context.Context, dryRun bool) (Report, error) {
	name := s.SeriesName()
	entry := ReportEntry{Skipped: sortedKeys(s.Skipped)}

	folder, err := s.commitFolder(ctx, dryRun)
	if err != nil {
		return nil, err
	}
	entry.Folder = folder

	if s.Kind == KindCalendarSpread {
		s.createGapFolders(ctx, dryRun)
	}
	s.relocate(dryRun)

	updates := s.pendingUpdates()

	if dryRun {
		entry.ToCreate = contractNames(s.NewExpirations)
		entry.ToUpdate = contractNames(updates)
		s.logger.Info("dry run",
			"to_create", len(entry.ToCreate),
			"to_update", len(entry.ToUpdate),
			"folder", folder,
		)
		return Report{name: entry}, nil
	}

	if len(s.NewExpirations) > 0 {
		docs := make([]model.Document, len(s.NewExpirations))
		for i, e := range s.NewExpirations {
			docs[i] = e.Doc
		}
		if err := s.deps.Store.BatchCreate(ctx, docs); err != nil {
			entry.CreateError = batchDescription(err)
			s.logger.Error("cannot create expirations", "count", len(docs), "error", err)
		} else {
			entry.Created = contractNames(s.NewExpirations)
			for _, e := range s.NewExpirations {
				e.Reference = e.Doc.Clone()
				e.stored = true
			}
			s.Contracts = append(s.Contracts, s.NewExpirations...)
			sortExpirations(s.Contracts)
			s.NewExpirations = nil
			s.logger.Info("expirations created", "count", len(entry.Created))
		}
	}

	if len(updates) > 0 {
		docs := make([]model.Document, len(updates))
		for i, e := range updates {
			docs[i] = e.Doc
		}
		if err := s.deps.Store.BatchUpdate(ctx, docs); err != nil {
			entry.UpdateError = batchDescription(err)
			s.logger.Error("cannot update expirations", "count", len(docs), "error", err)
		} else {
			entry.Updated = contractNames(updates)
			for _, e := range updates {
				e.Reference = e.Doc.Clone()
			}
			s.logger.Info("expirations updated", "count", len(entry.Updated))
		}
	}

	return Report{name: entry}, nil
}

// commitFolder creates the series folder when it has no id and updates it
// when it differs from its reference.
func (s *Series) commitFolder(ctx context.Context, dryRun bool) (string, error) {
	if s.Instrument.ID() == "" {
		if dryRun {
			return FolderToCreate, nil
		}
		rev, err := s.deps.Store.Create(ctx, s.Instrument)
		if err != nil {
			return "", fmt.Errorf("create series folder %s: %w", s.SeriesName(), err)
		}
		if rev.ID == "" {
			return "", fmt.Errorf("create series folder %s: no id returned", s.SeriesName())
		}
		s.Instrument[model.KeyID] = rev.ID
		s.Instrument[model.KeyRev] = rev.Rev
		s.Instrument.SetPath(append(s.Instrument.Path(), rev.ID))
		s.Reference = s.Instrument.Clone()
		if s.deps.Tree != nil {
			s.deps.Tree.Add(s.Instrument)
		}
		s.logger.Info("series folder created", "id", rev.ID)
		return FolderCreated, nil
	}

	diff := model.Compare(s.Reference, s.Instrument)
	if diff.Empty() {
		return "", nil
	}
	if dryRun {
		return FolderToUpdate, nil
	}
	rev, err := s.deps.Store.Update(ctx, s.Instrument)
	if err != nil {
		return "", fmt.Errorf("update series folder %s: %w", s.SeriesName(), err)
	}
	if rev.Rev != "" {
		s.Instrument[model.KeyRev] = rev.Rev
	}
	s.Reference = s.Instrument.Clone()
	s.logger.Info("series folder updated", "diff", diff.String())
	return FolderUpdated, nil
}

// relocate points new contracts at the current series path. A dry run of an
// unsaved series uses a named placeholder for the folder id.
func (s *Series) relocate(dryRun bool) {
	base := s.Instrument.Path()
	if s.Instrument.ID() == "" {
		placeholder := seriesPlaceholder
		if dryRun {
			placeholder = fmt.Sprintf("<<new %s folder id>>", s.SeriesName())
		}
		base = append(base, placeholder)
	}
	for _, e := range s.NewExpirations {
		path := append(slices.Clone(base), e.suffix...)
		e.Doc.SetPath(path)
	}
}

// pendingUpdates returns stored contracts that have not expired and differ
// from their reference.
func (s *Series) pendingUpdates() []*Expiration {
	y, m, d := now().Date()
	today := maturity.Date(y, maturity.Month(m), d)

	var out []*Expiration
	for _, e := range s.Contracts {
		if e.Doc.ID() == "" || e.Date.Before(today) {
			continue
		}
		if !e.Diff().Empty() {
			out = append(out, e)
		}
	}
	return out
}

func contractNames(list []*Expiration) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ContractName()
	}
	return out
}

func batchDescription(err error) string {
	var batchErr *sdb.BatchError
	if errors.As(err, &batchErr) && batchErr.Description != "" {
		return batchErr.Description
	}
	return err.Error()
}
