// Package portfoliodb persists the portfolio record in an embedded
// badgerhold store. The whole record lives under one key and is replaced
// wholesale on every save; corrupt or missing state loads as an empty
// record rather than failing startup.
package portfoliodb

import (
	"context"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/models"
)

// recordKey is the single document key for the portfolio record
const recordKey = "portfolio"

// storedRecord wraps the portfolio record with storage metadata.
type storedRecord struct {
	Key       string `badgerhold:"key"`
	Record    *models.PortfolioRecord
	UpdatedAt time.Time
}

// Store implements interfaces.PortfolioStore over badgerhold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// Open creates or opens the store at the given directory.
func Open(path string, logger *common.Logger) (*Store, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("path", path).Msg("Portfolio store opened")
	return &Store{db: db, logger: logger}, nil
}

// Load returns the stored record. Missing or corrupt state yields an empty
// record; the record is shape-repaired before returning.
func (s *Store) Load(ctx context.Context) (*models.PortfolioRecord, error) {
	var stored storedRecord
	err := s.db.Get(recordKey, &stored)
	switch {
	case err == badgerhold.ErrNotFound:
		return models.NewPortfolioRecord(), nil
	case err != nil:
		s.logger.Warn().Err(err).Msg("Portfolio record unreadable, defaulting to empty")
		return models.NewPortfolioRecord(), nil
	case stored.Record == nil:
		return models.NewPortfolioRecord(), nil
	}

	stored.Record.Normalize()
	return stored.Record, nil
}

// Save replaces the stored record.
func (s *Store) Save(ctx context.Context, record *models.PortfolioRecord) error {
	return s.db.Upsert(recordKey, &storedRecord{
		Key:       recordKey,
		Record:    record,
		UpdatedAt: time.Now(),
	})
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements PortfolioStore
var _ interfaces.PortfolioStore = (*Store)(nil)
