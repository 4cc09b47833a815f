package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eczanem/pharmatrack-backend/internal/inventory/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
	"github.com/eczanem/pharmatrack-backend/pkg/testutil"
)

var lotColumns = []string{
	"id", "owner_id", "medicine_id", "supplier_id", "expiry_date",
	"quantity", "storage_conditions", "created_at", "updated_at",
}

func newLotRepo(t *testing.T) (*repository.LotRepository, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	db := database.NewWithDB(mockDB.DB, logger.New("test", "test"))
	return repository.NewLotRepository(db), mockDB
}

func TestLotCreate_NewLot(t *testing.T) {
	repo, mockDB := newLotRepo(t)
	defer mockDB.Close()

	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mockDB.ExpectQuery("INSERT INTO medicine_stock").
		WithArgs(sqlmock.AnyArg(), "owner-1", "med-1", "sup-1", expiry, 50, nil).
		WillReturnRows(testutil.MockRows("id", "quantity", "created_at", "updated_at").
			AddRow("lot-1", 50, now, now))

	lot := &repository.StockLot{
		OwnerID:    "owner-1",
		MedicineID: "med-1",
		SupplierID: "sup-1",
		ExpiryDate: expiry,
		Quantity:   50,
	}
	require.NoError(t, repo.Create(context.Background(), lot))

	assert.Equal(t, "lot-1", lot.ID)
	assert.Equal(t, 50, lot.Quantity)

	mockDB.ExpectationsWereMet(t)
}

func TestLotCreate_MergesIntoExistingLot(t *testing.T) {
	repo, mockDB := newLotRepo(t)
	defer mockDB.Close()

	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	// A second delivery with the same (owner, medicine, supplier, expiry)
	// tuple lands on the existing lot and comes back with the summed
	// quantity and the original lot id.
	mockDB.ExpectQuery("INSERT INTO medicine_stock").
		WithArgs(sqlmock.AnyArg(), "owner-1", "med-1", "sup-1", expiry, 30, nil).
		WillReturnRows(testutil.MockRows("id", "quantity", "created_at", "updated_at").
			AddRow("lot-existing", 80, now, now))

	lot := &repository.StockLot{
		OwnerID:    "owner-1",
		MedicineID: "med-1",
		SupplierID: "sup-1",
		ExpiryDate: expiry,
		Quantity:   30,
	}
	require.NoError(t, repo.Create(context.Background(), lot))

	assert.Equal(t, "lot-existing", lot.ID)
	assert.Equal(t, 80, lot.Quantity)

	mockDB.ExpectationsWereMet(t)
}

func TestLotListByMedicine_ExpiryOrder(t *testing.T) {
	repo, mockDB := newLotRepo(t)
	defer mockDB.Close()

	now := time.Now()
	early := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectQuery("SELECT * FROM medicine_stock").
		WithArgs("owner-1", "med-1").
		WillReturnRows(testutil.MockRows(lotColumns...).
			AddRow("lot-a", "owner-1", "med-1", "sup-1", early, 5, nil, now, now).
			AddRow("lot-b", "owner-1", "med-1", "sup-2", late, 12, nil, now, now))

	lots, err := repo.ListByMedicine(context.Background(), "owner-1", "med-1")
	require.NoError(t, err)

	require.Len(t, lots, 2)
	assert.Equal(t, "lot-a", lots[0].ID)
	assert.Equal(t, "lot-b", lots[1].ID)

	mockDB.ExpectationsWereMet(t)
}

func TestLotTotalAvailable_NoLots(t *testing.T) {
	repo, mockDB := newLotRepo(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT SUM(quantity) FROM medicine_stock").
		WithArgs("owner-1", "med-1").
		WillReturnRows(testutil.MockRows("sum").AddRow(nil))

	total, err := repo.TotalAvailable(context.Background(), "owner-1", "med-1")
	require.NoError(t, err)
	assert.Zero(t, total)

	mockDB.ExpectationsWereMet(t)
}

func TestLotUpdate_NotFound(t *testing.T) {
	repo, mockDB := newLotRepo(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE medicine_stock SET").
		WithArgs("ghost", 10, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &repository.StockLot{
		ID:         "ghost",
		Quantity:   10,
		ExpiryDate: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}

func TestLotDelete(t *testing.T) {
	repo, mockDB := newLotRepo(t)
	defer mockDB.Close()

	mockDB.ExpectExec("DELETE FROM medicine_stock WHERE id = $1").
		WithArgs("lot-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "lot-1"))

	mockDB.ExpectationsWereMet(t)
}

func TestGetExpiringLots(t *testing.T) {
	repo, mockDB := newLotRepo(t)
	defer mockDB.Close()

	now := time.Now()
	soon := now.AddDate(0, 0, 14)

	mockDB.ExpectQuery("SELECT * FROM medicine_stock").
		WithArgs("owner-1", 30).
		WillReturnRows(testutil.MockRows(lotColumns...).
			AddRow("lot-a", "owner-1", "med-1", "sup-1", soon, 5, nil, now, now))

	lots, err := repo.GetExpiringLots(context.Background(), "owner-1", 30)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "lot-a", lots[0].ID)

	mockDB.ExpectationsWereMet(t)
}
