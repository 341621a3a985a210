package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/model"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/parsers"
)

type importServiceImpl struct {
	db          *sql.DB
	invalidates []CacheInvalidator
}

// NewImportService returns an ImportService that flushes the given caches
// after every successful import.
func NewImportService(db *sql.DB, invalidates ...CacheInvalidator) ImportService {
	return &importServiceImpl{db: db, invalidates: invalidates}
}

func (s *importServiceImpl) Import(ctx context.Context, table string, file io.Reader) (models.ImportResponse, error) {
	log := logger.FromContext(ctx)
	overallStartTime := time.Now()
	log.Info("Import START", "table", table)

	parser, err := parsers.GetParser(table)
	if err != nil {
		return models.ImportResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	batch, err := parser.Parse(file)
	if err != nil {
		return models.ImportResponse{}, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if batch.Len() == 0 {
		log.Info("Import file has no data rows", "table", table)
		return models.ImportResponse{Table: table}, nil
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ImportResponse{}, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := writeBatch(ctx, dbTx, batch); err != nil {
		return models.ImportResponse{}, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	if err := dbTx.Commit(); err != nil {
		return models.ImportResponse{}, fmt.Errorf("error committing import: %w", err)
	}

	for _, c := range s.invalidates {
		c.InvalidateCache()
	}

	log.Info("Import END", "table", table, "rows", batch.Len(), "duration", time.Since(overallStartTime))
	return models.ImportResponse{Table: table, RowsImported: batch.Len()}, nil
}

func writeBatch(ctx context.Context, tx *sql.Tx, batch models.ImportBatch) error {
	switch batch.Table {
	case parsers.TableAccounts:
		return model.UpsertAccounts(ctx, tx, batch.Accounts)
	case parsers.TableSecurities:
		return model.UpsertSecurities(ctx, tx, batch.Securities)
	case parsers.TableHoldings:
		return model.InsertHoldings(ctx, tx, batch.Holdings)
	case parsers.TableTransactions:
		return model.InsertTransactions(ctx, tx, batch.Transactions)
	case parsers.TableFxRates:
		return model.InsertFxRates(ctx, tx, batch.FxRates)
	case parsers.TableCashFlows:
		return model.InsertDailyCashFlows(ctx, tx, batch.CashFlows)
	default:
		return fmt.Errorf("no writer for table %s", batch.Table)
	}
}
