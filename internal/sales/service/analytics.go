package service

import (
	"context"
	"time"

	"github.com/eczanem/pharmatrack-backend/internal/sales/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// SalesSummary aggregates an owner's recent sales activity
type SalesSummary struct {
	LastMonthTotal     int64                       `json:"last_month_total"`
	LastQuarterTotal   int64                       `json:"last_quarter_total"`
	MonthlyAverageYear float64                     `json:"monthly_average_year"`
	MonthlyAverageHalf float64                     `json:"monthly_average_half_year"`
	TopMedicines       []*repository.MedicineTotal `json:"top_medicines"`
}

// Analytics answers aggregate questions about an owner's sales history
type Analytics struct {
	sales  *repository.SaleRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewAnalytics creates a new sales analytics service
func NewAnalytics(sales *repository.SaleRepository, log *logger.Logger) *Analytics {
	return &Analytics{
		sales:  sales,
		logger: log.WithComponent("sales_analytics"),
		now:    time.Now,
	}
}

// Summary computes the owner's rolling totals, monthly averages and best
// selling medicines.
func (a *Analytics) Summary(ctx context.Context, ownerID string) (*SalesSummary, error) {
	now := a.now().UTC()

	lastMonth, err := a.sales.TotalSince(ctx, ownerID, now.AddDate(0, -1, 0))
	if err != nil {
		return nil, err
	}

	lastQuarter, err := a.sales.TotalSince(ctx, ownerID, now.AddDate(0, -3, 0))
	if err != nil {
		return nil, err
	}

	yearAvg, err := a.monthlyAverage(ctx, ownerID, now, 12)
	if err != nil {
		return nil, err
	}

	halfAvg, err := a.monthlyAverage(ctx, ownerID, now, 6)
	if err != nil {
		return nil, err
	}

	top, err := a.sales.TopMedicines(ctx, ownerID, 5)
	if err != nil {
		return nil, err
	}

	return &SalesSummary{
		LastMonthTotal:     lastMonth,
		LastQuarterTotal:   lastQuarter,
		MonthlyAverageYear: yearAvg,
		MonthlyAverageHalf: halfAvg,
		TopMedicines:       top,
	}, nil
}

// Trend returns per-month totals over the past `months` months, oldest first
func (a *Analytics) Trend(ctx context.Context, ownerID string, months int) ([]*repository.MonthlyTotal, error) {
	since := a.now().UTC().AddDate(0, -months, 0)
	return a.sales.MonthlyTotals(ctx, ownerID, since)
}

// MedicineTotal sums one medicine's sales between two dates. A zero `until`
// means up to now.
func (a *Analytics) MedicineTotal(ctx context.Context, ownerID, medicineID string, since, until time.Time) (int64, error) {
	return a.sales.MedicineTotalBetween(ctx, ownerID, medicineID, since, until)
}

// monthlyAverage averages total quantity over the whole window, so months
// without sales pull it down.
func (a *Analytics) monthlyAverage(ctx context.Context, ownerID string, now time.Time, months int) (float64, error) {
	totals, err := a.sales.MonthlyTotals(ctx, ownerID, now.AddDate(0, -months, 0))
	if err != nil {
		return 0, err
	}

	var sum int64
	for _, t := range totals {
		sum += t.Total
	}
	return float64(sum) / float64(months), nil
}
