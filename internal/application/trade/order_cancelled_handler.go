package trade

import (
	"context"
	"fmt"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// OrderCancelledHandler handles OrderStatusChangedEvent and returns the
// reserved stock of cancelled orders to the product
type OrderCancelledHandler struct {
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewOrderCancelledHandler creates a new handler for cancelled orders
func NewOrderCancelledHandler(products catalog.ProductRepository, logger *zap.Logger) *OrderCancelledHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderCancelledHandler{products: products, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCancelledHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderStatusChanged}
}

// Handle restocks the product when the order moved to cancelled. Other
// transitions are ignored.
func (h *OrderCancelledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*trade.OrderStatusChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", trade.EventTypeOrderStatusChanged),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeOrderStatusChanged, event.EventType())
	}
	if changed.To != trade.OrderStatusCancelled {
		return nil
	}

	h.logger.Info("processing cancelled order",
		zap.String("order_id", changed.AggregateID().String()),
		zap.String("product_id", changed.ProductID.String()),
		zap.Int("quantity", changed.Quantity),
		zap.String("from", string(changed.From)),
	)

	if err := restock(ctx, h.products, changed.ProductID, changed.Quantity); err != nil {
		h.logger.Error("failed to restock cancelled order",
			zap.String("order_id", changed.AggregateID().String()),
			zap.Error(err),
		)
		return fmt.Errorf("restock product %s: %w", changed.ProductID, err)
	}
	return nil
}
