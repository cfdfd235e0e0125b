// Package activity consumes published cart events.
package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/metrics"
)

// Handler turns cart events into structured activity log entries and
// per-type counters.
type Handler struct {
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewHandler(log *logger.Logger, m *metrics.Metrics) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{log: log.Component("cart-activity"), metrics: m}
}

// HandleEvent processes one message from the cart events topic. Unknown
// event types are counted and skipped.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event cart.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decoding cart event: %w", err)
	}
	if event.SessionID == "" {
		event.SessionID = string(key)
	}

	fields, err := payloadFields(event)
	if err != nil {
		return fmt.Errorf("decoding %s payload: %w", event.Type, err)
	}
	h.metrics.IncCartEvent(event.Type)

	fields["event_type"] = event.Type
	fields["occurred_at"] = event.OccurredAt
	ctx = h.log.WithSessionID(h.log.WithFields(ctx, fields), event.SessionID)
	h.log.Info(ctx, "cart.activity")
	return nil
}

func payloadFields(event cart.Event) (map[string]any, error) {
	switch event.Type {
	case cart.EventItemAdded:
		var e cart.ItemAddedToCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return nil, err
		}
		return map[string]any{
			"line_id":       e.LineID,
			"product_id":    e.ProductID,
			"size":          e.Size,
			"color":         e.Color,
			"quantity":      e.Quantity,
			"line_quantity": e.LineQuantity,
			"unit_price":    e.UnitPrice.String(),
		}, nil

	case cart.EventQuantityUpdated:
		var e cart.CartItemQuantityUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return nil, err
		}
		return map[string]any{"line_id": e.LineID, "product_id": e.ProductID, "quantity": e.Quantity}, nil

	case cart.EventItemRemoved:
		var e cart.ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return nil, err
		}
		return map[string]any{"line_id": e.LineID, "product_id": e.ProductID}, nil

	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return nil, err
		}
		return map[string]any{"lines_removed": e.LinesRemoved}, nil
	}
	return map[string]any{"unknown": true}, nil
}
