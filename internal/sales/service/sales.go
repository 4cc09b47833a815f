package service

import (
	"context"
	"strings"
	"time"

	catalogservice "github.com/eczanem/pharmatrack-backend/internal/catalog/service"
	inventoryevents "github.com/eczanem/pharmatrack-backend/internal/inventory/events"
	"github.com/eczanem/pharmatrack-backend/internal/sales/events"
	"github.com/eczanem/pharmatrack-backend/internal/sales/ledger"
	"github.com/eczanem/pharmatrack-backend/internal/sales/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// RecordSaleInput describes a sale as the caller states it. Identifier may be
// a medicine id, a barcode or an exact medicine name.
type RecordSaleInput struct {
	OwnerID      string
	Identifier   string
	Quantity     int
	CustomerName *string
	SaleDate     time.Time
}

// Service coordinates identifier resolution, the stock ledger and event
// publication for sales.
type Service struct {
	resolver    *catalogservice.Resolver
	ledger      *ledger.StockLedger
	sales       *repository.SaleRepository
	saleEvents  *events.SaleEventPublisher
	stockEvents *inventoryevents.StockEventPublisher
	logger      *logger.Logger
}

// NewService creates a new sales service
func NewService(
	resolver *catalogservice.Resolver,
	stockLedger *ledger.StockLedger,
	sales *repository.SaleRepository,
	saleEvents *events.SaleEventPublisher,
	stockEvents *inventoryevents.StockEventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		resolver:    resolver,
		ledger:      stockLedger,
		sales:       sales,
		saleEvents:  saleEvents,
		stockEvents: stockEvents,
		logger:      log.WithComponent("sales_service"),
	}
}

// RecordSale resolves the medicine identifier, records the sale through the
// ledger and publishes the resulting events. An identifier matching several
// medicines is rejected rather than guessed at.
func (s *Service) RecordSale(ctx context.Context, input RecordSaleInput) (*ledger.SaleResult, error) {
	resolution, err := s.resolver.Resolve(ctx, strings.TrimSpace(input.Identifier))
	if err != nil {
		return nil, err
	}

	switch resolution.Status {
	case catalogservice.StatusNotFound:
		return nil, errors.NotFound("medicine")
	case catalogservice.StatusAmbiguous:
		details := make(map[string]string, len(resolution.Matches))
		for _, m := range resolution.Matches {
			details[m.ID] = m.Name
		}
		return nil, errors.AmbiguousIdentifier(input.Identifier).WithDetails(details)
	}

	medicine := resolution.Matches[0]

	result, err := s.ledger.RecordSale(ctx, ledger.SaleRequest{
		OwnerID:      input.OwnerID,
		MedicineID:   resolution.MedicineID,
		CustomerName: input.CustomerName,
		SaleDate:     input.SaleDate,
		Quantity:     input.Quantity,
	})
	if err != nil {
		return nil, err
	}

	s.saleEvents.PublishSaleRecorded(ctx, result)
	if result.Remaining <= medicine.ReorderLevel {
		s.stockEvents.PublishStockLow(ctx, input.OwnerID, medicine.ID, result.Remaining, medicine.ReorderLevel)
	}

	return result, nil
}

// GetSale gets one sale by id
func (s *Service) GetSale(ctx context.Context, id string) (*repository.Sale, error) {
	return s.sales.GetByID(ctx, id)
}

// ListSales lists an owner's sales, newest first
func (s *Service) ListSales(ctx context.Context, ownerID string, page, perPage int) ([]*repository.Sale, int64, error) {
	return s.sales.ListByOwner(ctx, ownerID, page, perPage)
}
