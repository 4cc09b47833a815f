package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
)

// StockLot represents a distinct batch of a medicine from one supplier with
// one expiry date. A lot with quantity 0 remains a valid record until it is
// explicitly removed.
type StockLot struct {
	ID                string    `db:"id" json:"id"`
	OwnerID           string    `db:"owner_id" json:"owner_id"`
	MedicineID        string    `db:"medicine_id" json:"medicine_id"`
	SupplierID        string    `db:"supplier_id" json:"supplier_id"`
	ExpiryDate        time.Time `db:"expiry_date" json:"expiry_date"`
	Quantity          int       `db:"quantity" json:"quantity"`
	StorageConditions *string   `db:"storage_conditions" json:"storage_conditions,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// LotRepository handles stock lot persistence
type LotRepository struct {
	db *database.DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *database.DB) *LotRepository {
	return &LotRepository{db: db}
}

// Create records a supplier delivery. Deliveries of the same medicine from the
// same supplier with the same expiry date merge into the existing lot: the
// (owner, medicine, supplier, expiry) triple is unique per owner.
func (r *LotRepository) Create(ctx context.Context, lot *StockLot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}

	query := `
		INSERT INTO medicine_stock (
			id, owner_id, medicine_id, supplier_id, expiry_date, quantity, storage_conditions
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, medicine_id, supplier_id, expiry_date)
		DO UPDATE SET quantity = medicine_stock.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, quantity, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		lot.ID, lot.OwnerID, lot.MedicineID, lot.SupplierID,
		lot.ExpiryDate, lot.Quantity, lot.StorageConditions,
	).Scan(&lot.ID, &lot.Quantity, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return nil
}

// GetByID gets a lot by ID
func (r *LotRepository) GetByID(ctx context.Context, id string) (*StockLot, error) {
	var lot StockLot
	query := `SELECT * FROM medicine_stock WHERE id = $1`
	if err := r.db.GetContext(ctx, &lot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("stock lot")
		}
		return nil, err
	}
	return &lot, nil
}

// ListByMedicine lists an owner's lots for a medicine, soonest expiry first
func (r *LotRepository) ListByMedicine(ctx context.Context, ownerID, medicineID string) ([]*StockLot, error) {
	var lots []*StockLot
	query := `
		SELECT * FROM medicine_stock
		WHERE owner_id = $1 AND medicine_id = $2
		ORDER BY expiry_date, id
	`
	if err := r.db.SelectContext(ctx, &lots, query, ownerID, medicineID); err != nil {
		return nil, err
	}
	return lots, nil
}

// TotalAvailable sums the sellable quantity across an owner's lots for a medicine
func (r *LotRepository) TotalAvailable(ctx context.Context, ownerID, medicineID string) (int, error) {
	var total sql.NullInt64
	query := `
		SELECT SUM(quantity) FROM medicine_stock
		WHERE owner_id = $1 AND medicine_id = $2 AND quantity > 0
	`
	if err := r.db.GetContext(ctx, &total, query, ownerID, medicineID); err != nil {
		return 0, err
	}
	if !total.Valid {
		return 0, nil
	}
	return int(total.Int64), nil
}

// Update applies an administrative correction to a lot
func (r *LotRepository) Update(ctx context.Context, lot *StockLot) error {
	query := `
		UPDATE medicine_stock SET
			quantity = $2, expiry_date = $3, storage_conditions = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		lot.ID, lot.Quantity, lot.ExpiryDate, lot.StorageConditions,
	)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("stock lot")
	}

	return nil
}

// Delete removes a lot
func (r *LotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medicine_stock WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("stock lot")
	}

	return nil
}

// GetExpiringLots lists an owner's lots expiring within the given number of days
func (r *LotRepository) GetExpiringLots(ctx context.Context, ownerID string, withinDays int) ([]*StockLot, error) {
	var lots []*StockLot
	query := `
		SELECT * FROM medicine_stock
		WHERE owner_id = $1 AND quantity > 0
		AND expiry_date <= NOW() + INTERVAL '1 day' * $2
		ORDER BY expiry_date
	`
	if err := r.db.SelectContext(ctx, &lots, query, ownerID, withinDays); err != nil {
		return nil, err
	}
	return lots, nil
}
