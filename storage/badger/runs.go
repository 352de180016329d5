package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/thematic/core"
	"github.com/poiesic/thematic/storage"
)

// RunStore is a BadgerDB-backed storage.RunRepository.
type RunStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.RunRepository = (*RunStore)(nil)

// NewRunStore creates a run store on a database at path. With inMemory set,
// the path is ignored and nothing touches disk.
func NewRunStore(path string, inMemory bool) (*RunStore, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return &RunStore{
		backend: backend,
		logger:  slog.Default(),
	}, nil
}

// Close closes the underlying database.
func (s *RunStore) Close() error {
	return s.backend.Close()
}

// SaveRun persists a completed run. A zero ID is derived from the run's
// questions and creation time; a zero CreatedAt becomes the current time.
func (s *RunStore) SaveRun(ctx context.Context, run *core.AnalysisRun) (*core.AnalysisRun, error) {
	if run == nil {
		return nil, fmt.Errorf("%w: nil run", storage.ErrInvalidQuery)
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.ID == 0 {
		run.ID = core.IDFromContent(strings.Join(run.Questions, "\n") + run.CreatedAt.Format(time.RFC3339Nano))
	}

	data, err := storage.MarshalAnalysisRun(run)
	if err != nil {
		return nil, err
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeRunKey(run.ID), data); err != nil {
			return err
		}
		if err := tx.Set(makeRunDateKey(run.CreatedAt, run.ID), nil); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("analysis run saved", "id", run.ID, "chunks", run.ChunkCount)
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(ctx context.Context, id core.ID) (*core.AnalysisRun, error) {
	var run *core.AnalysisRun

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			run, err = storage.UnmarshalAnalysisRun(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns retrieves up to limit runs, most recent first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*core.AnalysisRun, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1, got %d", storage.ErrInvalidQuery, limit)
	}

	var runs []*core.AnalysisRun
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runRecordDatePrefix + ":")
		opts.Reverse = true
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration needs a seek past the end of the prefix range
		seek := append([]byte(runRecordDatePrefix+":"), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

		for iter.Seek(seek); iter.Valid() && len(runs) < limit; iter.Next() {
			id := runIDFromDateKey(iter.Item().Key())

			item, err := tx.Get(makeRunKey(id))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue // dangling index entry
				}
				return err
			}

			var run *core.AnalysisRun
			err = item.Value(func(val []byte) error {
				run, err = storage.UnmarshalAnalysisRun(val)
				return err
			})
			if err != nil {
				return err
			}
			runs = append(runs, run)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteRun removes a run and its date index entry.
func (s *RunStore) DeleteRun(ctx context.Context, id core.ID) error {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeRunKey(id)); err != nil {
			return err
		}
		if err := tx.Delete(makeRunDateKey(run.CreatedAt, id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
