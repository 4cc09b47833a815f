package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eczanem/pharmatrack-backend/internal/sales/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
	"github.com/eczanem/pharmatrack-backend/pkg/testutil"
)

var saleColumns = []string{
	"id", "owner_id", "medicine_id", "customer_name", "sale_date", "quantity", "created_at",
}

func newSaleRepo(t *testing.T) (*repository.SaleRepository, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	db := database.NewWithDB(mockDB.DB, logger.New("test", "test"))
	return repository.NewSaleRepository(db), mockDB
}

func TestSaleGetByID_NotFound(t *testing.T) {
	repo, mockDB := newSaleRepo(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT * FROM medicine_sales WHERE id = $1").
		WithArgs("ghost").
		WillReturnRows(testutil.MockRows(saleColumns...))

	_, err := repo.GetByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}

func TestSaleListByOwner_Pagination(t *testing.T) {
	repo, mockDB := newSaleRepo(t)
	defer mockDB.Close()

	now := time.Now()

	mockDB.ExpectQuery("SELECT COUNT(*) FROM medicine_sales WHERE owner_id = $1").
		WithArgs("owner-1").
		WillReturnRows(testutil.MockRows("count").AddRow(42))
	mockDB.ExpectQuery("SELECT * FROM medicine_sales").
		WithArgs("owner-1", 20, 20).
		WillReturnRows(testutil.MockRows(saleColumns...).
			AddRow("sale-1", "owner-1", "med-1", nil, now, 3, now))

	sales, total, err := repo.ListByOwner(context.Background(), "owner-1", 2, 20)
	require.NoError(t, err)

	assert.EqualValues(t, 42, total)
	require.Len(t, sales, 1)
	assert.Equal(t, "sale-1", sales[0].ID)

	mockDB.ExpectationsWereMet(t)
}

func TestTotalSince(t *testing.T) {
	repo, mockDB := newSaleRepo(t)
	defer mockDB.Close()

	since := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectQuery("SELECT COALESCE(SUM(quantity), 0) FROM medicine_sales").
		WithArgs("owner-1", since).
		WillReturnRows(testutil.MockRows("coalesce").AddRow(120))

	total, err := repo.TotalSince(context.Background(), "owner-1", since)
	require.NoError(t, err)
	assert.EqualValues(t, 120, total)

	mockDB.ExpectationsWereMet(t)
}

func TestMonthlyTotals(t *testing.T) {
	repo, mockDB := newSaleRepo(t)
	defer mockDB.Close()

	since := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectQuery("SELECT to_char(date_trunc('month', sale_date), 'YYYY-MM') AS month").
		WithArgs("owner-1", since).
		WillReturnRows(testutil.MockRows("month", "total").
			AddRow("2026-06", 80).
			AddRow("2026-07", 95))

	totals, err := repo.MonthlyTotals(context.Background(), "owner-1", since)
	require.NoError(t, err)

	require.Len(t, totals, 2)
	assert.Equal(t, "2026-06", totals[0].Month)
	assert.EqualValues(t, 95, totals[1].Total)

	mockDB.ExpectationsWereMet(t)
}

func TestTopMedicines(t *testing.T) {
	repo, mockDB := newSaleRepo(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT s.medicine_id, m.name, COALESCE(SUM(s.quantity), 0) AS total").
		WithArgs("owner-1", 5).
		WillReturnRows(testutil.MockRows("medicine_id", "name", "total").
			AddRow("med-1", "Parol", 300).
			AddRow("med-2", "Aspirin", 120))

	top, err := repo.TopMedicines(context.Background(), "owner-1", 5)
	require.NoError(t, err)

	require.Len(t, top, 2)
	assert.Equal(t, "Parol", top[0].Name)
	assert.EqualValues(t, 120, top[1].Total)

	mockDB.ExpectationsWereMet(t)
}

func TestMedicineTotalBetween_WithUpperBound(t *testing.T) {
	repo, mockDB := newSaleRepo(t)
	defer mockDB.Close()

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectQuery("SELECT COALESCE(SUM(quantity), 0) FROM medicine_sales").
		WithArgs("owner-1", "med-1", since, until).
		WillReturnRows(testutil.MockRows("coalesce").AddRow(45))

	total, err := repo.MedicineTotalBetween(context.Background(), "owner-1", "med-1", since, until)
	require.NoError(t, err)
	assert.EqualValues(t, 45, total)

	mockDB.ExpectationsWereMet(t)
}
