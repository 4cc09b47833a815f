// Package ledger records sales against expiry-dated stock lots.
//
// A sale depletes lots strictly in first-expiry-first-out order and appends
// the sale record in the same database transaction, so stock levels and the
// sales history can never disagree. Concurrent sales against the same
// medicine are serialized by row locks on the lots they touch.
package ledger

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eczanem/pharmatrack-backend/internal/sales/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// SaleRequest describes one sale to record
type SaleRequest struct {
	OwnerID      string
	MedicineID   string
	CustomerName *string
	SaleDate     time.Time
	Quantity     int
}

// LotDepletion records how much of a sale came out of one lot
type LotDepletion struct {
	LotID      string    `json:"lot_id"`
	ExpiryDate time.Time `json:"expiry_date"`
	Taken      int       `json:"taken"`
}

// SaleResult is the outcome of a committed sale
type SaleResult struct {
	Sale       *repository.Sale `json:"sale"`
	Depletions []LotDepletion   `json:"depletions"`
	// Remaining is the stock left across all lots of the medicine after
	// the sale, used for low stock alerting.
	Remaining int `json:"remaining"`
}

type lockedLot struct {
	ID         string    `db:"id"`
	ExpiryDate time.Time `db:"expiry_date"`
	Quantity   int       `db:"quantity"`
}

// StockLedger depletes stock and records sales atomically
type StockLedger struct {
	db     *database.DB
	sales  *repository.SaleRepository
	logger *logger.Logger
}

// NewStockLedger creates a new stock ledger
func NewStockLedger(db *database.DB, sales *repository.SaleRepository, log *logger.Logger) *StockLedger {
	return &StockLedger{
		db:     db,
		sales:  sales,
		logger: log.WithComponent("stock_ledger"),
	}
}

// RecordSale depletes stock lots in expiry order and appends the sale record
// in one transaction. It returns InsufficientStock when the owner's total
// available quantity cannot cover the request, in which case nothing is
// written. Serialization failures and lost lock races surface as
// ConcurrencyConflict so callers can retry.
func (l *StockLedger) RecordSale(ctx context.Context, req SaleRequest) (*SaleResult, error) {
	if req.Quantity <= 0 {
		return nil, errors.Validation(map[string]string{"quantity": "must be greater than zero"})
	}
	if req.SaleDate.IsZero() {
		req.SaleDate = time.Now().UTC()
	}

	var result SaleResult
	err := l.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		lots, err := l.lockLots(ctx, tx, req.OwnerID, req.MedicineID)
		if err != nil {
			return err
		}

		available := 0
		for _, lot := range lots {
			available += lot.Quantity
		}
		if available < req.Quantity {
			return errors.InsufficientStock(req.Quantity, available)
		}

		remaining := req.Quantity
		depletions := make([]LotDepletion, 0, len(lots))
		for _, lot := range lots {
			if remaining == 0 {
				break
			}
			take := lot.Quantity
			if take > remaining {
				take = remaining
			}
			if err := l.depleteLot(ctx, tx, lot.ID, take); err != nil {
				return err
			}
			depletions = append(depletions, LotDepletion{
				LotID:      lot.ID,
				ExpiryDate: lot.ExpiryDate,
				Taken:      take,
			})
			remaining -= take
		}

		sale := &repository.Sale{
			OwnerID:      req.OwnerID,
			MedicineID:   req.MedicineID,
			CustomerName: req.CustomerName,
			SaleDate:     req.SaleDate,
			Quantity:     req.Quantity,
		}
		if err := l.sales.InsertTx(ctx, tx, sale); err != nil {
			return err
		}

		result = SaleResult{
			Sale:       sale,
			Depletions: depletions,
			Remaining:  available - req.Quantity,
		}
		return nil
	})
	if err != nil {
		return nil, l.mapError(err)
	}

	l.logger.Info().
		Str("sale_id", result.Sale.ID).
		Str("medicine_id", req.MedicineID).
		Int("quantity", req.Quantity).
		Int("lots_used", len(result.Depletions)).
		Int("remaining", result.Remaining).
		Msg("Sale recorded")

	return &result, nil
}

// lockLots loads the medicine's non-empty lots in expiry order and takes row
// locks on them for the rest of the transaction. The secondary sort on id
// keeps the lock order deterministic across concurrent transactions.
func (l *StockLedger) lockLots(ctx context.Context, tx *sqlx.Tx, ownerID, medicineID string) ([]lockedLot, error) {
	var lots []lockedLot
	query := `
		SELECT id, expiry_date, quantity FROM medicine_stock
		WHERE owner_id = $1 AND medicine_id = $2 AND quantity > 0
		ORDER BY expiry_date ASC, id ASC
		FOR UPDATE
	`
	if err := tx.SelectContext(ctx, &lots, query, ownerID, medicineID); err != nil {
		return nil, err
	}
	return lots, nil
}

// depleteLot decrements one lot, guarded against the quantity having dropped
// below the amount we planned for under the lock.
func (l *StockLedger) depleteLot(ctx context.Context, tx *sqlx.Tx, lotID string, take int) error {
	query := `
		UPDATE medicine_stock
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2
	`
	res, err := tx.ExecContext(ctx, query, lotID, take)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.ConcurrencyConflict()
	}
	return nil
}

func (l *StockLedger) mapError(err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if mapped := database.MapPQError(err); mapped != nil {
		return mapped
	}
	return errors.PersistenceFailure(err)
}
