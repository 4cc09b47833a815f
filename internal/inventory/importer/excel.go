package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/eczanem/pharmatrack-backend/internal/inventory/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// Expected column layout of a stock import sheet. The first row is a header.
const (
	colMedicineID = iota
	colSupplierID
	colExpiryDate
	colQuantity
	colStorageConditions
	minColumns = 4
)

// RowError describes a row that could not be imported
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result summarizes an import run
type Result struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

// ExcelImporter maps spreadsheet rows onto stock lots
type ExcelImporter struct {
	lotRepo *repository.LotRepository
	logger  *logger.Logger
}

// NewExcelImporter creates a new Excel stock importer
func NewExcelImporter(lotRepo *repository.LotRepository, log *logger.Logger) *ExcelImporter {
	return &ExcelImporter{
		lotRepo: lotRepo,
		logger:  log,
	}
}

// Import reads an .xlsx stream and records one stock lot per data row for the
// given owner. Rows that fail to parse are skipped and reported; valid rows
// are still imported.
func (i *ExcelImporter) Import(ctx context.Context, ownerID string, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.BadRequest("could not read Excel file (corrupt or not .xlsx)")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) < 2 {
		return nil, errors.BadRequest("file contains no stock rows")
	}

	if len(rows[0]) < minColumns {
		return nil, errors.BadRequest("unexpected format: expected columns medicine_id, supplier_id, expiry_date, quantity")
	}

	result := &Result{}

	for idx := 1; idx < len(rows); idx++ {
		lot, rowErr := parseRow(rows[idx], idx+1)
		if rowErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, *rowErr)
			continue
		}

		lot.OwnerID = ownerID
		if err := i.lotRepo.Create(ctx, lot); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: idx + 1, Message: err.Error()})
			continue
		}
		result.Imported++
	}

	i.logger.Info().
		Str("owner_id", ownerID).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("stock import finished")

	return result, nil
}

func parseRow(row []string, rowNum int) (*repository.StockLot, *RowError) {
	if len(row) < minColumns {
		return nil, &RowError{Row: rowNum, Message: "too few columns"}
	}

	medicineID := strings.TrimSpace(row[colMedicineID])
	supplierID := strings.TrimSpace(row[colSupplierID])
	if medicineID == "" || supplierID == "" {
		return nil, &RowError{Row: rowNum, Message: "medicine_id and supplier_id are required"}
	}

	expiry, err := parseExpiry(strings.TrimSpace(row[colExpiryDate]))
	if err != nil {
		return nil, &RowError{Row: rowNum, Message: fmt.Sprintf("invalid expiry date: %v", err)}
	}

	qty, err := strconv.Atoi(strings.TrimSpace(row[colQuantity]))
	if err != nil || qty <= 0 {
		return nil, &RowError{Row: rowNum, Message: "quantity must be a positive integer"}
	}

	lot := &repository.StockLot{
		MedicineID: medicineID,
		SupplierID: supplierID,
		ExpiryDate: expiry,
		Quantity:   qty,
	}

	if len(row) > colStorageConditions {
		if cond := strings.TrimSpace(row[colStorageConditions]); cond != "" {
			lot.StorageConditions = &cond
		}
	}

	return lot, nil
}

// parseExpiry accepts ISO dates plus the slash formats Excel tends to produce.
func parseExpiry(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty")
	}

	for _, layout := range []string{"2006-01-02", "02/01/2006", "01-02-06", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
