package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
)

// Medicine represents a registered medicine
type Medicine struct {
	ID                      string    `db:"id" json:"id"`
	PublicNumber            string    `db:"public_number" json:"public_number"`
	Name                    string    `db:"name" json:"name"`
	Brand                   string    `db:"brand" json:"brand"`
	Form                    *string   `db:"form" json:"form,omitempty"`
	ReorderLevel            int       `db:"reorder_level" json:"reorder_level"`
	Barcode                 string    `db:"barcode" json:"barcode"`
	EquivalentMedicineGroup *string   `db:"equivalent_medicine_group" json:"equivalent_medicine_group,omitempty"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// ActiveIngredient represents an active ingredient of a medicine
type ActiveIngredient struct {
	ID         string `db:"id" json:"id"`
	MedicineID string `db:"medicine_id" json:"medicine_id"`
	Name       string `db:"name" json:"name"`
	Amount     string `db:"amount" json:"amount"`
}

// MedicineRepository handles medicine persistence
type MedicineRepository struct {
	db *database.DB
}

// NewMedicineRepository creates a new medicine repository
func NewMedicineRepository(db *database.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

// Create creates a new medicine
func (r *MedicineRepository) Create(ctx context.Context, m *Medicine) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO medicine (
			id, public_number, name, brand, form, reorder_level, barcode, equivalent_medicine_group
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID, m.PublicNumber, m.Name, m.Brand, m.Form, m.ReorderLevel,
		m.Barcode, m.EquivalentMedicineGroup,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return nil
}

// GetByID gets a medicine by ID
func (r *MedicineRepository) GetByID(ctx context.Context, id string) (*Medicine, error) {
	var m Medicine
	query := `SELECT * FROM medicine WHERE id = $1`
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("medicine")
		}
		return nil, err
	}
	return &m, nil
}

// GetByBarcode gets a medicine by barcode
func (r *MedicineRepository) GetByBarcode(ctx context.Context, barcode string) (*Medicine, error) {
	var m Medicine
	query := `SELECT * FROM medicine WHERE barcode = $1`
	if err := r.db.GetContext(ctx, &m, query, barcode); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("medicine")
		}
		return nil, err
	}
	return &m, nil
}

// FindByName finds medicines whose name matches exactly (case-insensitive).
// More than one row is possible: the same name may be sold under several brands.
func (r *MedicineRepository) FindByName(ctx context.Context, name string) ([]*Medicine, error) {
	var medicines []*Medicine
	query := `SELECT * FROM medicine WHERE LOWER(name) = LOWER($1) ORDER BY name, brand`
	if err := r.db.SelectContext(ctx, &medicines, query, name); err != nil {
		return nil, err
	}
	return medicines, nil
}

// List lists medicines with pagination
func (r *MedicineRepository) List(ctx context.Context, page, perPage int) ([]*Medicine, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM medicine`); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	var medicines []*Medicine
	query := `SELECT * FROM medicine ORDER BY name LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &medicines, query, perPage, offset); err != nil {
		return nil, 0, err
	}

	return medicines, total, nil
}

// Update updates a medicine
func (r *MedicineRepository) Update(ctx context.Context, m *Medicine) error {
	query := `
		UPDATE medicine SET
			public_number = $2, name = $3, brand = $4, form = $5, reorder_level = $6,
			barcode = $7, equivalent_medicine_group = $8, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		m.ID, m.PublicNumber, m.Name, m.Brand, m.Form, m.ReorderLevel,
		m.Barcode, m.EquivalentMedicineGroup,
	)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("medicine")
	}

	return nil
}

// Delete deletes a medicine
func (r *MedicineRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medicine WHERE id = $1`, id)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("medicine")
	}

	return nil
}

// AddIngredient adds an active ingredient to a medicine
func (r *MedicineRepository) AddIngredient(ctx context.Context, ing *ActiveIngredient) error {
	if ing.ID == "" {
		ing.ID = uuid.New().String()
	}

	query := `
		INSERT INTO active_ingredient (id, medicine_id, name, amount)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, ing.ID, ing.MedicineID, ing.Name, ing.Amount); err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return nil
}

// ListIngredients lists the active ingredients of a medicine
func (r *MedicineRepository) ListIngredients(ctx context.Context, medicineID string) ([]*ActiveIngredient, error) {
	var ingredients []*ActiveIngredient
	query := `SELECT * FROM active_ingredient WHERE medicine_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &ingredients, query, medicineID); err != nil {
		return nil, err
	}
	return ingredients, nil
}
