package events

import (
	"context"

	"github.com/eczanem/pharmatrack-backend/internal/inventory/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
	"github.com/eczanem/pharmatrack-backend/pkg/messaging"
)

// StockEventPublisher publishes stock-related events
type StockEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewStockEventPublisher creates a new stock event publisher
func NewStockEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StockEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, "pharmatrack", log)
	if err != nil {
		return nil, err
	}

	return &StockEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockReceived publishes a stock received event
func (p *StockEventPublisher) PublishStockReceived(ctx context.Context, lot *repository.StockLot) {
	if p == nil {
		return
	}

	data := messaging.StockReceivedEvent{
		LotID:      lot.ID,
		OwnerID:    lot.OwnerID,
		MedicineID: lot.MedicineID,
		SupplierID: lot.SupplierID,
		ExpiryDate: lot.ExpiryDate,
		Quantity:   lot.Quantity,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockReceived, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish stock received event")
	}
}

// PublishStockAdjusted publishes a stock adjusted event
func (p *StockEventPublisher) PublishStockAdjusted(ctx context.Context, lot *repository.StockLot) {
	if p == nil {
		return
	}

	data := messaging.StockAdjustedEvent{
		LotID:       lot.ID,
		OwnerID:     lot.OwnerID,
		MedicineID:  lot.MedicineID,
		NewQuantity: lot.Quantity,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish stock adjusted event")
	}
}

// PublishStockLow publishes a low stock event
func (p *StockEventPublisher) PublishStockLow(ctx context.Context, ownerID, medicineID string, remaining, reorderLevel int) {
	if p == nil {
		return
	}

	data := messaging.StockLowEvent{
		OwnerID:      ownerID,
		MedicineID:   medicineID,
		Remaining:    remaining,
		ReorderLevel: reorderLevel,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockLow, data); err != nil {
		p.logger.Error().Err(err).Str("medicine_id", medicineID).Msg("failed to publish low stock event")
	}
}
