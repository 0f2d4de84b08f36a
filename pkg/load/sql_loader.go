package load

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// SQLConnector opens a fresh *sql.DB connection; injected so tests can
// substitute a stub driver without a real database.
type SQLConnector func() (*sql.DB, error)

// SQLLoader batches rows into a parameterised INSERT executed inside
// one transaction per flush. On a transient (operational) connection
// error it reconnects up to MaxReconnects times before surrendering
// the batch; on a permanent (data) error it rolls back and surrenders
// the batch without reconnecting (spec.md §4.3, §7 classes 4 and 5).
type SQLLoader struct {
	Connect       SQLConnector
	InsertSQL     string
	ValuesPaths   []ValuesPath
	BufferSize    int
	MaxReconnects int // defaults to 5 per spec.md §4.3
	Logger        *logrus.Logger

	// IsTransient classifies an error returned by the driver as
	// transient (reconnect-worthy) vs permanent (data error,
	// rollback-and-surrender). Defaults to treating every error as
	// transient, matching generic network drivers.
	IsTransient func(error) bool

	guard  singleWriterGuard
	db     *sql.DB
	buffer [][]any
}

func (s *SQLLoader) ensureConn() error {
	if s.db != nil {
		return nil
	}
	if s.BufferSize <= 0 {
		s.BufferSize = 500
	}
	if s.MaxReconnects <= 0 {
		s.MaxReconnects = 5
	}
	if s.IsTransient == nil {
		s.IsTransient = func(error) bool { return true }
	}

	db, err := s.Connect()
	if err != nil {
		return etlerr.Wrap(etlerr.CodeSinkTransient, "load.sql", "connect", err, false)
	}
	s.db = db
	return nil
}

// Load implements Loader.
func (s *SQLLoader) Load(ctx context.Context, jobID string, records []record.Record, lastCall bool) error {
	if err := s.guard.enter("load.sql"); err != nil {
		return err
	}
	defer s.guard.exit()

	if err := s.ensureConn(); err != nil {
		return err
	}

	for _, r := range records {
		row, ok := rowFromRecord(r, s.ValuesPaths)
		if !ok {
			continue
		}
		s.buffer = append(s.buffer, row)
	}

	if len(s.buffer) >= s.BufferSize || lastCall {
		return s.flush(ctx, jobID)
	}
	return nil
}

func (s *SQLLoader) flush(ctx context.Context, jobID string) error {
	if len(s.buffer) == 0 {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= s.MaxReconnects; attempt++ {
		if s.db == nil {
			lastErr = etlerr.New(etlerr.CodeSinkTransient, "load.sql", "reconnect", "reconnect attempt failed to establish a connection", false)
			s.reconnect()
			continue
		}

		err := s.tryInsertBatch(ctx)
		if err == nil {
			s.buffer = s.buffer[:0]
			return nil
		}

		var dataErr *dataError
		if errors.As(err, &dataErr) {
			if s.Logger != nil {
				s.Logger.WithError(err).WithField("job_id", jobID).Error("sql_loader: permanent data error, surrendering batch")
			}
			s.buffer = s.buffer[:0]
			return etlerr.Wrap(etlerr.CodeSinkPermanent, "load.sql", "insert", err, false)
		}

		lastErr = err
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{
				"job_id": jobID, "attempt": attempt + 1, "max_reconnects": s.MaxReconnects,
			}).Warn("sql_loader: transient error, reconnecting")
		}
		s.reconnect()
	}

	if s.Logger != nil {
		s.Logger.WithError(lastErr).WithField("job_id", jobID).Error("sql_loader: reconnects exhausted, surrendering batch")
	}
	s.buffer = s.buffer[:0]
	return etlerr.Wrap(etlerr.CodeSinkTransient, "load.sql", "insert", lastErr, false)
}

// dataError marks an error as a permanent data violation (constraint
// failure) rather than a transient connection drop.
type dataError struct{ cause error }

func (d *dataError) Error() string { return d.cause.Error() }
func (d *dataError) Unwrap() error { return d.cause }

func (s *SQLLoader) tryInsertBatch(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, s.InsertSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, row := range s.buffer {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			tx.Rollback()
			if !s.IsTransient(err) {
				return &dataError{cause: err}
			}
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLLoader) reconnect() {
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	if db, err := s.Connect(); err == nil {
		s.db = db
	}
}

// LoadWithAck implements Loader.
func (s *SQLLoader) LoadWithAck(ctx context.Context, jobID string, records []record.Record, ackCounter *int64, lastCall bool) error {
	err := s.Load(ctx, jobID, records, lastCall)
	decrementAck(ackCounter, len(records))
	return err
}

// Close implements Loader.
func (s *SQLLoader) Close(ctx context.Context) error {
	if err := s.guard.enter("load.sql"); err != nil {
		return err
	}
	defer s.guard.exit()

	if s.db == nil {
		return nil
	}
	if err := s.flush(ctx, "close"); err != nil {
		return err
	}
	return s.db.Close()
}

// HasBufferedData implements Loader.
func (s *SQLLoader) HasBufferedData() bool {
	return len(s.buffer) > 0
}
