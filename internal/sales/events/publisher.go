package events

import (
	"context"

	"github.com/eczanem/pharmatrack-backend/internal/sales/ledger"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
	"github.com/eczanem/pharmatrack-backend/pkg/messaging"
)

// SaleEventPublisher publishes sale-related events
type SaleEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewSaleEventPublisher creates a new sale event publisher
func NewSaleEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*SaleEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeSalesEvents, "pharmatrack", log)
	if err != nil {
		return nil, err
	}

	return &SaleEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishSaleRecorded publishes a sale recorded event after the sale commits
func (p *SaleEventPublisher) PublishSaleRecorded(ctx context.Context, result *ledger.SaleResult) {
	if p == nil {
		return
	}

	data := messaging.SaleRecordedEvent{
		SaleID:     result.Sale.ID,
		OwnerID:    result.Sale.OwnerID,
		MedicineID: result.Sale.MedicineID,
		Quantity:   result.Sale.Quantity,
		SaleDate:   result.Sale.SaleDate,
		LotsUsed:   len(result.Depletions),
	}

	if err := p.publisher.Publish(ctx, messaging.EventSaleRecorded, data); err != nil {
		p.logger.Error().Err(err).Str("sale_id", result.Sale.ID).Msg("failed to publish sale recorded event")
	}
}
