package trade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrderService handles product orders between clients and sellers
type OrderService struct {
	orders         trade.OrderRepository
	products       catalog.ProductRepository
	eventPublisher shared.EventPublisher
	tx             shared.TxRunner
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orders trade.OrderRepository, products catalog.ProductRepository, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{orders: orders, products: products, tx: shared.NoTx{}, logger: logger}
}

// SetTxRunner makes a reservation and its order, or a cancellation and its
// restock, commit together
func (s *OrderService) SetTxRunner(tx shared.TxRunner) {
	if tx != nil {
		s.tx = tx
	}
}

// SetEventPublisher sets the event publisher for publishing domain events.
// Without a publisher, cancelled orders are restocked inline.
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create places an order for an active product and reserves its stock. The
// reservation and the order are stored as one unit of work.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID))
	defer span.End()

	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if me.Role != identity.RoleClient {
		return nil, ErrNotAllowedForRole
	}

	var (
		product *catalog.Product
		order   *trade.Order
	)
	for attempt := 1; ; attempt++ {
		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			var err error
			product, order, err = s.reserve(ctx, me.UserID, req)
			if err != nil {
				return err
			}
			return s.orders.Save(ctx, order)
		})
		if !errors.Is(err, shared.ErrConflict) || attempt == reserveAttempts {
			break
		}
		s.logger.Debug("stock reservation raced, retrying",
			zap.String("product_id", req.ProductID.String()),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, order.ID)
	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int("quantity", order.Quantity),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	if product.IsLowStock() {
		s.logger.Warn("product is low on stock",
			zap.String("product_id", product.ID.String()),
			zap.Int("stock", product.Stock))
	}

	resp := ToOrderResponse(order)
	return &resp, nil
}

// reserveAttempts bounds retries of a stock reservation that lost an
// optimistic lock race
const reserveAttempts = 3

// reserve loads the product, builds the order and takes its quantity out of
// stock
func (s *OrderService) reserve(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*catalog.Product, *trade.Order, error) {
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, ErrListingNotFound
		}
		return nil, nil, err
	}
	if product.Status != catalog.ListingStatusActive {
		return nil, nil, ErrListingNotFound
	}

	order, err := trade.NewOrder(buyerID, product.SellerID, product.ID, req.Quantity, product.Price, req.ShippingAddress)
	if err != nil {
		return nil, nil, err
	}
	if err := product.AdjustStock(-req.Quantity); err != nil {
		return nil, nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, nil, err
	}
	return product, order, nil
}

// ListMine lists orders placed by the calling client, or received by the
// calling seller
func (s *OrderService) ListMine(ctx context.Context, req ListRequest) (*shared.Paginated[OrderResponse], error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	filter := req.Filter()

	var (
		items []trade.Order
		total int64
	)
	switch me.Role {
	case identity.RoleClient:
		items, total, err = s.orders.FindByBuyer(ctx, me.UserID, filter)
	case identity.RoleSeller:
		items, total, err = s.orders.FindBySeller(ctx, me.UserID, filter)
	default:
		return nil, ErrNotAllowedForRole
	}
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToOrderResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns an order the caller is a party to
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, id, me)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Process starts fulfilment of a pending order. Seller only.
func (s *OrderService) Process(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, id, trade.OrderStatusProcessing, true)
}

// Ship marks a processing order as shipped. Seller only.
func (s *OrderService) Ship(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, id, trade.OrderStatusShipped, true)
}

// Deliver marks a shipped order as delivered. Seller only.
func (s *OrderService) Deliver(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, id, trade.OrderStatusDelivered, true)
}

// Cancel cancels a pending or processing order. Either party may cancel.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, id, trade.OrderStatusCancelled, false)
}

func (s *OrderService) transition(ctx context.Context, id uuid.UUID, target trade.OrderStatus, sellerOnly bool) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", string(target),
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, id))
	defer span.End()

	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, id, me)
	if err != nil {
		return nil, err
	}
	if sellerOnly && order.SellerID != me.UserID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the seller can move this order to "+string(target))
	}
	if err := order.TransitionTo(target, me.UserID); err != nil {
		return nil, err
	}
	// without a publisher the cancelled stock goes back in the same unit of work
	restockInline := s.eventPublisher == nil && target == trade.OrderStatusCancelled
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Save(ctx, order); err != nil {
			return err
		}
		if restockInline {
			return restock(ctx, s.products, order.ProductID, order.Quantity)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, order.GetDomainEvents()...); err != nil {
			s.logger.Warn("failed to publish order events",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		}
	}
	order.ClearDomainEvents()

	s.logger.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("status", string(order.Status)),
		zap.String("actor_id", me.UserID.String()))
	telemetry.SetOK(span)

	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) load(ctx context.Context, id uuid.UUID, me identity.Identity) (*trade.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !order.IsParty(me.UserID) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// restock returns quantity units to a product's stock, reloading the
// product when a concurrent write wins
func restock(ctx context.Context, products catalog.ProductRepository, productID uuid.UUID, quantity int) error {
	var err error
	for range reserveAttempts {
		var product *catalog.Product
		product, err = products.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if err = product.AdjustStock(quantity); err != nil {
			return err
		}
		if err = products.Save(ctx, product); !errors.Is(err, shared.ErrConflict) {
			return err
		}
	}
	return err
}
