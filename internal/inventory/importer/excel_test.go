package importer_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eczanem/pharmatrack-backend/internal/inventory/importer"
	"github.com/eczanem/pharmatrack-backend/internal/inventory/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
	"github.com/eczanem/pharmatrack-backend/pkg/testutil"
)

func newImporter(t *testing.T) (*importer.ExcelImporter, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	db := database.NewWithDB(mockDB.DB, logger.New("test", "test"))
	return importer.NewExcelImporter(repository.NewLotRepository(db), logger.New("test", "test")), mockDB
}

func buildSheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := []interface{}{"medicine_id", "supplier_id", "expiry_date", "quantity", "storage_conditions"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func expectLotInsert(mockDB *testutil.MockDB, medicineID, supplierID string, quantity int, storage interface{}) {
	mockDB.ExpectQuery("INSERT INTO medicine_stock").
		WithArgs(sqlmock.AnyArg(), "owner-1", medicineID, supplierID, sqlmock.AnyArg(), quantity, storage).
		WillReturnRows(testutil.MockRows("id", "quantity", "created_at", "updated_at").
			AddRow("lot-1", quantity, time.Now(), time.Now()))
}

func TestImport_ValidRows(t *testing.T) {
	imp, mockDB := newImporter(t)
	defer mockDB.Close()

	buf := buildSheet(t, [][]interface{}{
		{"med-1", "sup-1", "2027-03-01", 50, "cool and dry"},
		{"med-2", "sup-1", "2027-06-15", 20},
	})

	expectLotInsert(mockDB, "med-1", "sup-1", 50, "cool and dry")
	expectLotInsert(mockDB, "med-2", "sup-1", 20, nil)

	result, err := imp.Import(context.Background(), "owner-1", buf)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Errors)

	mockDB.ExpectationsWereMet(t)
}

func TestImport_SkipsBadRowsAndKeepsGoing(t *testing.T) {
	imp, mockDB := newImporter(t)
	defer mockDB.Close()

	buf := buildSheet(t, [][]interface{}{
		{"med-1", "sup-1", "not a date", 50},
		{"med-2", "", "2027-06-15", 20},
		{"med-3", "sup-1", "2027-06-15", -4},
		{"med-4", "sup-1", "2027-06-15", 10},
	})

	expectLotInsert(mockDB, "med-4", "sup-1", 10, nil)

	result, err := imp.Import(context.Background(), "owner-1", buf)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 3, result.Skipped)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 2, result.Errors[0].Row)

	mockDB.ExpectationsWereMet(t)
}

func TestImport_NotAnExcelFile(t *testing.T) {
	imp, mockDB := newImporter(t)
	defer mockDB.Close()

	_, err := imp.Import(context.Background(), "owner-1", bytes.NewBufferString("just text"))
	assert.Error(t, err)
}

func TestImport_HeaderOnly(t *testing.T) {
	imp, mockDB := newImporter(t)
	defer mockDB.Close()

	buf := buildSheet(t, nil)

	_, err := imp.Import(context.Background(), "owner-1", buf)
	assert.Error(t, err)
}
