package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
)

// Supplier represents a medicine supplier
type Supplier struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ContactInfo *string   `db:"contact_info" json:"contact_info,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SupplierRepository handles supplier persistence
type SupplierRepository struct {
	db *database.DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *database.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// Create creates a new supplier
func (r *SupplierRepository) Create(ctx context.Context, s *Supplier) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	query := `
		INSERT INTO supplier (id, name, contact_info)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query, s.ID, s.Name, s.ContactInfo).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetByID gets a supplier by ID
func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*Supplier, error) {
	var s Supplier
	query := `SELECT * FROM supplier WHERE id = $1`
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("supplier")
		}
		return nil, err
	}
	return &s, nil
}

// List lists all suppliers
func (r *SupplierRepository) List(ctx context.Context) ([]*Supplier, error) {
	var suppliers []*Supplier
	query := `SELECT * FROM supplier ORDER BY name`
	if err := r.db.SelectContext(ctx, &suppliers, query); err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Update updates a supplier
func (r *SupplierRepository) Update(ctx context.Context, s *Supplier) error {
	query := `
		UPDATE supplier SET name = $2, contact_info = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.ContactInfo)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("supplier")
	}

	return nil
}

// Delete deletes a supplier
func (r *SupplierRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM supplier WHERE id = $1`, id)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("supplier")
	}

	return nil
}
