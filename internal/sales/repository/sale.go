package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
)

// Sale is an immutable record of a completed sale. Corrections are new
// records; there is no update path.
type Sale struct {
	ID           string    `db:"id" json:"id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	MedicineID   string    `db:"medicine_id" json:"medicine_id"`
	CustomerName *string   `db:"customer_name" json:"customer_name,omitempty"`
	SaleDate     time.Time `db:"sale_date" json:"sale_date"`
	Quantity     int       `db:"quantity" json:"quantity"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SaleRepository handles sale persistence
type SaleRepository struct {
	db *database.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *database.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// InsertTx appends a sale record inside an existing transaction. The caller
// owns commit and rollback.
func (r *SaleRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, sale *Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}

	query := `
		INSERT INTO medicine_sales (id, owner_id, medicine_id, customer_name, sale_date, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	return tx.QueryRowxContext(ctx, query,
		sale.ID, sale.OwnerID, sale.MedicineID, sale.CustomerName, sale.SaleDate, sale.Quantity,
	).Scan(&sale.CreatedAt)
}

// GetByID gets a sale by ID
func (r *SaleRepository) GetByID(ctx context.Context, id string) (*Sale, error) {
	var sale Sale
	query := `SELECT * FROM medicine_sales WHERE id = $1`
	if err := r.db.GetContext(ctx, &sale, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("sale")
		}
		return nil, err
	}
	return &sale, nil
}

// ListByOwner lists an owner's sales, most recent first, with pagination
func (r *SaleRepository) ListByOwner(ctx context.Context, ownerID string, page, perPage int) ([]*Sale, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM medicine_sales WHERE owner_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, ownerID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	var sales []*Sale
	query := `
		SELECT * FROM medicine_sales
		WHERE owner_id = $1
		ORDER BY sale_date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &sales, query, ownerID, perPage, offset); err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}
