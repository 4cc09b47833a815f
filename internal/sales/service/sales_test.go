package service_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogrepo "github.com/eczanem/pharmatrack-backend/internal/catalog/repository"
	catalogservice "github.com/eczanem/pharmatrack-backend/internal/catalog/service"
	"github.com/eczanem/pharmatrack-backend/internal/sales/ledger"
	"github.com/eczanem/pharmatrack-backend/internal/sales/repository"
	"github.com/eczanem/pharmatrack-backend/internal/sales/service"
	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
	"github.com/eczanem/pharmatrack-backend/pkg/testutil"
)

var medicineColumns = []string{
	"id", "public_number", "name", "brand", "form", "reorder_level",
	"barcode", "equivalent_medicine_group", "created_at", "updated_at",
}

func medicineRow(id, name, barcode string, reorderLevel int) []driver.Value {
	now := time.Now()
	return []driver.Value{id, "PN-" + id, name, "Brand", nil, reorderLevel, barcode, nil, now, now}
}

func newSalesService(t *testing.T) (*service.Service, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	db := database.NewWithDB(mockDB.DB, log)

	medicineRepo := catalogrepo.NewMedicineRepository(db)
	resolver := catalogservice.NewResolver(medicineRepo, log)
	saleRepo := repository.NewSaleRepository(db)
	stockLedger := ledger.NewStockLedger(db, saleRepo, log)

	svc := service.NewService(resolver, stockLedger, saleRepo, nil, nil, log)
	return svc, mockDB
}

func TestRecordSale_ResolvesIDAndDepletes(t *testing.T) {
	svc, mockDB := newSalesService(t)
	defer mockDB.Close()

	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectQuery("SELECT * FROM medicine WHERE id = $1").
		WithArgs("med-1").
		WillReturnRows(testutil.MockRows(medicineColumns...).
			AddRow(medicineRow("med-1", "Parol", "869000000001", 10)...))

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id, expiry_date, quantity FROM medicine_stock").
		WithArgs("owner-1", "med-1").
		WillReturnRows(testutil.MockRows("id", "expiry_date", "quantity").
			AddRow("lot-1", expiry, 30))
	mockDB.ExpectExec("UPDATE medicine_stock").
		WithArgs("lot-1", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("INSERT INTO medicine_sales").
		WithArgs(sqlmock.AnyArg(), "owner-1", "med-1", nil, sqlmock.AnyArg(), 5).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.ExpectCommit()

	result, err := svc.RecordSale(context.Background(), service.RecordSaleInput{
		OwnerID:    "owner-1",
		Identifier: "med-1",
		Quantity:   5,
	})
	require.NoError(t, err)

	assert.Equal(t, "med-1", result.Sale.MedicineID)
	assert.Equal(t, 25, result.Remaining)

	mockDB.ExpectationsWereMet(t)
}

func TestRecordSale_UnknownIdentifier(t *testing.T) {
	svc, mockDB := newSalesService(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT * FROM medicine WHERE id = $1").
		WithArgs("ghost").
		WillReturnRows(testutil.MockRows(medicineColumns...))
	mockDB.ExpectQuery("SELECT * FROM medicine WHERE barcode = $1").
		WithArgs("ghost").
		WillReturnRows(testutil.MockRows(medicineColumns...))
	mockDB.ExpectQuery("SELECT * FROM medicine WHERE LOWER(name) = LOWER($1)").
		WithArgs("ghost").
		WillReturnRows(testutil.MockRows(medicineColumns...))

	_, err := svc.RecordSale(context.Background(), service.RecordSaleInput{
		OwnerID:    "owner-1",
		Identifier: "ghost",
		Quantity:   1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}

func TestRecordSale_AmbiguousName(t *testing.T) {
	svc, mockDB := newSalesService(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT * FROM medicine WHERE id = $1").
		WithArgs("Parol").
		WillReturnRows(testutil.MockRows(medicineColumns...))
	mockDB.ExpectQuery("SELECT * FROM medicine WHERE barcode = $1").
		WithArgs("Parol").
		WillReturnRows(testutil.MockRows(medicineColumns...))
	mockDB.ExpectQuery("SELECT * FROM medicine WHERE LOWER(name) = LOWER($1)").
		WithArgs("Parol").
		WillReturnRows(testutil.MockRows(medicineColumns...).
			AddRow(medicineRow("med-1", "Parol", "869000000001", 10)...).
			AddRow(medicineRow("med-2", "Parol", "869000000002", 10)...))

	_, err := svc.RecordSale(context.Background(), service.RecordSaleInput{
		OwnerID:    "owner-1",
		Identifier: "Parol",
		Quantity:   1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAmbiguousIdentifier))

	// The candidates ride along so the caller can disambiguate.
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Len(t, appErr.Details, 2)

	mockDB.ExpectationsWereMet(t)
}

func TestRecordSale_InsufficientStockLeavesNothingBehind(t *testing.T) {
	svc, mockDB := newSalesService(t)
	defer mockDB.Close()

	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectQuery("SELECT * FROM medicine WHERE id = $1").
		WithArgs("med-1").
		WillReturnRows(testutil.MockRows(medicineColumns...).
			AddRow(medicineRow("med-1", "Parol", "869000000001", 10)...))

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id, expiry_date, quantity FROM medicine_stock").
		WithArgs("owner-1", "med-1").
		WillReturnRows(testutil.MockRows("id", "expiry_date", "quantity").
			AddRow("lot-1", expiry, 2))
	mockDB.ExpectRollback()

	_, err := svc.RecordSale(context.Background(), service.RecordSaleInput{
		OwnerID:    "owner-1",
		Identifier: "med-1",
		Quantity:   10,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	mockDB.ExpectationsWereMet(t)
}
