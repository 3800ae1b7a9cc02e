package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// BadgerStore implements Store using BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerStore opens (or creates) a BadgerDB at dbPath.
func NewBadgerStore(dbPath string, logger logrus.FieldLogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	return openBadger(opts, logger)
}

// NewInMemoryBadger opens a BadgerDB that lives only in memory.
func NewInMemoryBadger(logger logrus.FieldLogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	return openBadger(opts, logger)
}

func openBadger(opts badger.Options, logger logrus.FieldLogger) (*BadgerStore, error) {
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %q: %w", opts.Dir, err)
	}
	logger.WithField("path", opts.Dir).Info("BadgerDB opened")

	return &BadgerStore{
		db:  db,
		log: logger.WithField("component", "store"),
	}, nil
}

// Close closes the BadgerDB database.
func (s *BadgerStore) Close() error {
	s.log.Info("Closing BadgerDB...")
	if err := s.db.Close(); err != nil {
		s.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	s.log.Info("BadgerDB closed.")
	return nil
}

// recordKey namespaces record names.
// Format: record:{name}
func recordKey(name string) []byte {
	return []byte("record:" + name)
}

// Get reads a record. Missing records yield (nil, nil).
func (s *BadgerStore) Get(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(name))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		s.log.WithError(err).WithField("record", name).Error("Failed to read record")
		return nil, fmt.Errorf("failed to read record %s: %w", name, err)
	}
	return value, nil
}

// Set overwrites a record.
func (s *BadgerStore) Set(ctx context.Context, name string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(recordKey(name), value))
	})
	if err != nil {
		s.log.WithError(err).WithField("record", name).Error("Failed to write record")
		return fmt.Errorf("failed to write record %s: %w", name, err)
	}
	s.log.WithFields(logrus.Fields{"record": name, "bytes": len(value)}).Debug("Record saved")
	return nil
}

// Remove deletes a record. Delete is idempotent in Badger.
func (s *BadgerStore) Remove(ctx context.Context, name string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(name))
	})
	if err != nil {
		s.log.WithError(err).WithField("record", name).Error("Failed to remove record")
		return fmt.Errorf("failed to remove record %s: %w", name, err)
	}
	return nil
}

// RunGC reclaims value log space once. ErrNoRewrite is not an error.
func (s *BadgerStore) RunGC() error {
	err := s.db.RunValueLogGC(0.7)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
		s.log.WithError(err).Error("BadgerDB GC failed")
		return err
	}
	return nil
}

// --- BadgerDB Internal Logger ---

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
