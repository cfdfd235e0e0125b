package cart

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventItemAdded       = "ItemAddedToCart"
	EventQuantityUpdated = "CartItemQuantityUpdated"
	EventItemRemoved     = "ItemRemovedFromCart"
	EventCartCleared     = "CartCleared"
)

// Event is the envelope published for every applied cart mutation.
type Event struct {
	Type       string          `json:"type"`
	SessionID  string          `json:"session_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type ItemAddedToCart struct {
	LineID       string          `json:"line_id"`
	ProductID    int64           `json:"product_id"`
	Size         string          `json:"size"`
	Color        string          `json:"color"`
	Quantity     int             `json:"quantity"`
	LineQuantity int             `json:"line_quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type CartItemQuantityUpdated struct {
	LineID    string `json:"line_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ItemRemovedFromCart struct {
	LineID    string `json:"line_id"`
	ProductID int64  `json:"product_id"`
}

type CartCleared struct {
	LinesRemoved int `json:"lines_removed"`
}

func newEvent(eventType, sessionID string, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, SessionID: sessionID, OccurredAt: at, Data: data}, nil
}
