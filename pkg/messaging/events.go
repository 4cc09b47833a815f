package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Sales events
	EventSaleRecorded = "sales.sale.recorded"

	// Stock events
	EventStockReceived  = "stock.lot.received"
	EventStockAdjusted  = "stock.lot.adjusted"
	EventStockLow       = "stock.level.low"
	EventStockExpiring  = "stock.lot.expiring"

	// User events
	EventUserRegistered = "user.registered"
)

// Exchange names
const (
	ExchangeSalesEvents = "sales.events"
	ExchangeStockEvents = "stock.events"
	ExchangeUserEvents  = "user.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// SaleRecordedEvent is published after a sale commits
type SaleRecordedEvent struct {
	SaleID     string    `json:"sale_id"`
	OwnerID    string    `json:"owner_id"`
	MedicineID string    `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
	SaleDate   time.Time `json:"sale_date"`
	LotsUsed   int       `json:"lots_used"`
}

// StockReceivedEvent is published when a supplier delivery is recorded
type StockReceivedEvent struct {
	LotID      string    `json:"lot_id"`
	OwnerID    string    `json:"owner_id"`
	MedicineID string    `json:"medicine_id"`
	SupplierID string    `json:"supplier_id"`
	ExpiryDate time.Time `json:"expiry_date"`
	Quantity   int       `json:"quantity"`
}

// StockAdjustedEvent is published on an administrative quantity correction
type StockAdjustedEvent struct {
	LotID       string `json:"lot_id"`
	OwnerID     string `json:"owner_id"`
	MedicineID  string `json:"medicine_id"`
	NewQuantity int    `json:"new_quantity"`
}

// StockLowEvent is published when remaining stock falls to or below the
// medicine's reorder level after a sale
type StockLowEvent struct {
	OwnerID      string `json:"owner_id"`
	MedicineID   string `json:"medicine_id"`
	Remaining    int    `json:"remaining"`
	ReorderLevel int    `json:"reorder_level"`
}

// UserRegisteredEvent is published when a pharmacy user registers
type UserRegisteredEvent struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
