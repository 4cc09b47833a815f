package repository

import (
	"context"
	"time"
)

// PeriodTotal is the total quantity sold over a named period
type PeriodTotal struct {
	Period string `json:"period"`
	Total  int64  `json:"total"`
}

// MonthlyTotal is the quantity sold in one calendar month
type MonthlyTotal struct {
	Month string `db:"month" json:"month"`
	Total int64  `db:"total" json:"total"`
}

// MedicineTotal is the quantity of one medicine sold, with its name for display
type MedicineTotal struct {
	MedicineID string `db:"medicine_id" json:"medicine_id"`
	Name       string `db:"name" json:"name"`
	Total      int64  `db:"total" json:"total"`
}

// TotalSince sums the quantity sold by an owner since the given time
func (r *SaleRepository) TotalSince(ctx context.Context, ownerID string, since time.Time) (int64, error) {
	var total int64
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM medicine_sales
		WHERE owner_id = $1 AND sale_date >= $2
	`
	if err := r.db.GetContext(ctx, &total, query, ownerID, since); err != nil {
		return 0, err
	}
	return total, nil
}

// MonthlyTotals groups an owner's sales by calendar month since the given
// time, oldest month first. Months with no sales are absent.
func (r *SaleRepository) MonthlyTotals(ctx context.Context, ownerID string, since time.Time) ([]*MonthlyTotal, error) {
	var totals []*MonthlyTotal
	query := `
		SELECT to_char(date_trunc('month', sale_date), 'YYYY-MM') AS month,
		       COALESCE(SUM(quantity), 0) AS total
		FROM medicine_sales
		WHERE owner_id = $1 AND sale_date >= $2
		GROUP BY date_trunc('month', sale_date)
		ORDER BY date_trunc('month', sale_date)
	`
	if err := r.db.SelectContext(ctx, &totals, query, ownerID, since); err != nil {
		return nil, err
	}
	return totals, nil
}

// TopMedicines returns the owner's best selling medicines by total quantity
func (r *SaleRepository) TopMedicines(ctx context.Context, ownerID string, limit int) ([]*MedicineTotal, error) {
	var totals []*MedicineTotal
	query := `
		SELECT s.medicine_id, m.name, COALESCE(SUM(s.quantity), 0) AS total
		FROM medicine_sales s
		JOIN medicine m ON m.id = s.medicine_id
		WHERE s.owner_id = $1
		GROUP BY s.medicine_id, m.name
		ORDER BY total DESC, m.name
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &totals, query, ownerID, limit); err != nil {
		return nil, err
	}
	return totals, nil
}

// MedicineTotalBetween sums one medicine's sales over a date range. A zero
// `until` means no upper bound.
func (r *SaleRepository) MedicineTotalBetween(ctx context.Context, ownerID, medicineID string, since, until time.Time) (int64, error) {
	var total int64
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM medicine_sales
		WHERE owner_id = $1 AND medicine_id = $2 AND sale_date >= $3
	`
	args := []any{ownerID, medicineID, since}
	if !until.IsZero() {
		query += ` AND sale_date < $4`
		args = append(args, until)
	}
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}
