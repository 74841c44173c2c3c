package trade

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProduct(t *testing.T, seller uuid.UUID, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(seller, "Mop", "supplies", decimal.NewFromFloat(12.5), stock)
	require.NoError(t, err)
	return p
}

func newOrder(t *testing.T, buyer uuid.UUID, product *catalog.Product, qty int) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(buyer, product.SellerID, product.ID, qty, product.Price, "1 Main St")
	require.NoError(t, err)
	return o
}

func TestOrderService_Create(t *testing.T) {
	buyer := uuid.New()

	t.Run("reserves stock", func(t *testing.T) {
		product := newProduct(t, uuid.New(), 5)
		products := new(MockProductRepository)
		products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		products.On("Save", mock.Anything, product).Return(nil).Once()
		orders := new(MockOrderRepository)
		orders.On("Save", mock.Anything, mock.AnythingOfType("*trade.Order")).Return(nil)

		svc := NewOrderService(orders, products, nil)
		resp, err := svc.Create(as(buyer, identity.RoleClient), CreateOrderRequest{
			ProductID:       product.ID,
			Quantity:        2,
			ShippingAddress: "1 Main St",
		})
		require.NoError(t, err)
		assert.Equal(t, 3, product.Stock)
		assert.Equal(t, product.SellerID, resp.SellerID)
		assert.Equal(t, "25.00", resp.TotalAmount.StringFixed(2))
		assert.Equal(t, "pending", resp.Status)
		products.AssertExpectations(t)
		orders.AssertExpectations(t)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		product := newProduct(t, uuid.New(), 1)
		products := new(MockProductRepository)
		products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		orders := new(MockOrderRepository)

		svc := NewOrderService(orders, products, nil)
		_, err := svc.Create(as(buyer, identity.RoleClient), CreateOrderRequest{ProductID: product.ID, Quantity: 2, ShippingAddress: "x"})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 1, product.Stock)
		products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("order save failure rolls back the reservation", func(t *testing.T) {
		product := newProduct(t, uuid.New(), 5)
		products := new(MockProductRepository)
		products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		products.On("Save", mock.Anything, product).Return(nil).Once()
		orders := new(MockOrderRepository)
		orders.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
		tx := &recordingTx{}

		svc := NewOrderService(orders, products, zap.NewNop())
		svc.SetTxRunner(tx)
		_, err := svc.Create(as(buyer, identity.RoleClient), CreateOrderRequest{ProductID: product.ID, Quantity: 4, ShippingAddress: "x"})
		assert.EqualError(t, err, "db down")
		assert.Zero(t, tx.commits)
		assert.Equal(t, 1, tx.rollbacks)
		products.AssertExpectations(t)
		orders.AssertExpectations(t)
	})

	t.Run("retries a lost stock race", func(t *testing.T) {
		seller := uuid.New()
		stale := newProduct(t, seller, 5)
		fresh := newProduct(t, seller, 4)
		fresh.ID = stale.ID
		products := new(MockProductRepository)
		products.On("FindByID", mock.Anything, stale.ID).Return(stale, nil).Once()
		products.On("FindByID", mock.Anything, stale.ID).Return(fresh, nil).Once()
		products.On("Save", mock.Anything, mock.Anything).Return(shared.ErrConflict).Once()
		products.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
		orders := new(MockOrderRepository)
		orders.On("Save", mock.Anything, mock.Anything).Return(nil)

		svc := NewOrderService(orders, products, nil)
		_, err := svc.Create(as(buyer, identity.RoleClient), CreateOrderRequest{ProductID: stale.ID, Quantity: 2, ShippingAddress: "x"})
		require.NoError(t, err)
		assert.Equal(t, 2, fresh.Stock)
		products.AssertExpectations(t)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		product := newProduct(t, uuid.New(), 10)
		products := new(MockProductRepository)
		products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		products.On("Save", mock.Anything, mock.Anything).Return(shared.ErrConflict)
		orders := new(MockOrderRepository)

		svc := NewOrderService(orders, products, nil)
		_, err := svc.Create(as(buyer, identity.RoleClient), CreateOrderRequest{ProductID: product.ID, Quantity: 1, ShippingAddress: "x"})
		assert.ErrorIs(t, err, shared.ErrConflict)
		products.AssertNumberOfCalls(t, "Save", reserveAttempts)
		orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inactive product", func(t *testing.T) {
		product := newProduct(t, uuid.New(), 5)
		product.ToggleStatus()
		products := new(MockProductRepository)
		products.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		svc := NewOrderService(new(MockOrderRepository), products, nil)
		_, err := svc.Create(as(buyer, identity.RoleClient), CreateOrderRequest{ProductID: product.ID, Quantity: 1, ShippingAddress: "x"})
		assert.Equal(t, ErrListingNotFound, err)
	})

	t.Run("seller cannot buy", func(t *testing.T) {
		products := new(MockProductRepository)
		svc := NewOrderService(new(MockOrderRepository), products, nil)
		_, err := svc.Create(as(uuid.New(), identity.RoleSeller), CreateOrderRequest{ProductID: uuid.New(), Quantity: 1})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestOrderService_Fulfilment(t *testing.T) {
	buyer := uuid.New()
	product := newProduct(t, uuid.New(), 5)
	order := newOrder(t, buyer, product, 1)
	seller := as(product.SellerID, identity.RoleSeller)

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Save", mock.Anything, order).Return(nil)
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	svc := NewOrderService(orders, new(MockProductRepository), nil)
	svc.SetEventPublisher(publisher)

	// buyers cannot advance fulfilment
	_, err := svc.Process(as(buyer, identity.RoleClient), order.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// shipping skips processing
	_, err = svc.Ship(seller, order.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	for _, step := range []func() (*OrderResponse, error){
		func() (*OrderResponse, error) { return svc.Process(seller, order.ID) },
		func() (*OrderResponse, error) { return svc.Ship(seller, order.ID) },
		func() (*OrderResponse, error) { return svc.Deliver(seller, order.ID) },
	} {
		_, err := step()
		require.NoError(t, err)
	}
	assert.Equal(t, trade.OrderStatusDelivered, order.Status)

	_, err = svc.Cancel(as(buyer, identity.RoleClient), order.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	publisher.AssertNumberOfCalls(t, "Publish", 3)
}

func TestOrderService_CancelPublishesEvent(t *testing.T) {
	buyer := uuid.New()
	product := newProduct(t, uuid.New(), 5)
	order := newOrder(t, buyer, product, 2)

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Save", mock.Anything, order).Return(nil)
	products := new(MockProductRepository)
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		e, ok := events[0].(*trade.OrderStatusChangedEvent)
		return ok && e.To == trade.OrderStatusCancelled && e.ProductID == product.ID && e.Quantity == 2
	})).Return(nil)

	svc := NewOrderService(orders, products, nil)
	svc.SetEventPublisher(publisher)

	resp, err := svc.Cancel(as(buyer, identity.RoleClient), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	publisher.AssertExpectations(t)
	// restocking is left to the event handler
	products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOrderService_CancelWithoutPublisherRestocks(t *testing.T) {
	buyer := uuid.New()
	product := newProduct(t, uuid.New(), 3)
	order := newOrder(t, buyer, product, 2)

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Save", mock.Anything, order).Return(nil)
	products := new(MockProductRepository)
	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	products.On("Save", mock.Anything, product).Return(nil)

	svc := NewOrderService(orders, products, nil)
	_, err := svc.Cancel(as(product.SellerID, identity.RoleSeller), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, product.Stock)
}

func TestOrderService_CancelRestockFailureRollsBack(t *testing.T) {
	buyer := uuid.New()
	product := newProduct(t, uuid.New(), 3)
	order := newOrder(t, buyer, product, 2)

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Save", mock.Anything, order).Return(nil).Once()
	products := new(MockProductRepository)
	products.On("FindByID", mock.Anything, product.ID).Return(nil, errors.New("db down"))
	tx := &recordingTx{}

	svc := NewOrderService(orders, products, nil)
	svc.SetTxRunner(tx)
	_, err := svc.Cancel(as(buyer, identity.RoleClient), order.ID)
	assert.EqualError(t, err, "db down")
	assert.Equal(t, 1, tx.rollbacks)
	assert.Zero(t, tx.commits)
}

func TestOrderService_StaleTransitionConflicts(t *testing.T) {
	buyer := uuid.New()
	product := newProduct(t, uuid.New(), 3)
	order := newOrder(t, buyer, product, 1)

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("Save", mock.Anything, order).Return(shared.ErrConflict)
	products := new(MockProductRepository)

	svc := NewOrderService(orders, products, nil)
	_, err := svc.Cancel(as(buyer, identity.RoleClient), order.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
	products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOrderService_StrangerSeesNotFound(t *testing.T) {
	product := newProduct(t, uuid.New(), 3)
	order := newOrder(t, uuid.New(), product, 1)

	orders := new(MockOrderRepository)
	orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	svc := NewOrderService(orders, new(MockProductRepository), nil)

	_, err := svc.Get(as(uuid.New(), identity.RoleSeller), order.ID)
	assert.Equal(t, ErrOrderNotFound, err)

	orders.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	_, err = svc.Get(as(uuid.New(), identity.RoleClient), uuid.New())
	assert.Equal(t, ErrOrderNotFound, err)
}

func TestOrderService_ListMine(t *testing.T) {
	seller := uuid.New()
	product := newProduct(t, seller, 3)

	orders := new(MockOrderRepository)
	orders.On("FindBySeller", mock.Anything, seller, mock.Anything).
		Return([]trade.Order{*newOrder(t, uuid.New(), product, 1)}, int64(1), nil)
	svc := NewOrderService(orders, new(MockProductRepository), nil)

	page, err := svc.ListMine(as(seller, identity.RoleSeller), ListRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, seller, page.Items[0].SellerID)

	_, err = svc.ListMine(as(seller, identity.RoleProvider), ListRequest{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestOrderCancelledHandler(t *testing.T) {
	product := newProduct(t, uuid.New(), 1)
	order := newOrder(t, uuid.New(), product, 3)

	t.Run("restocks on cancel", func(t *testing.T) {
		require.NoError(t, order.TransitionTo(trade.OrderStatusCancelled, order.BuyerID))
		event := order.GetDomainEvents()[0]
		order.ClearDomainEvents()

		products := new(MockProductRepository)
		products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		products.On("Save", mock.Anything, product).Return(nil)

		h := NewOrderCancelledHandler(products, nil)
		assert.Equal(t, []string{trade.EventTypeOrderStatusChanged}, h.EventTypes())
		require.NoError(t, h.Handle(as(uuid.New(), identity.RoleClient), event))
		assert.Equal(t, 4, product.Stock)
	})

	t.Run("ignores other transitions", func(t *testing.T) {
		o := newOrder(t, uuid.New(), product, 1)
		require.NoError(t, o.TransitionTo(trade.OrderStatusProcessing, o.SellerID))

		products := new(MockProductRepository)
		h := NewOrderCancelledHandler(products, nil)
		require.NoError(t, h.Handle(as(uuid.New(), identity.RoleSeller), o.GetDomainEvents()[0]))
		products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("repository failure is returned", func(t *testing.T) {
		o := newOrder(t, uuid.New(), product, 1)
		require.NoError(t, o.TransitionTo(trade.OrderStatusCancelled, o.BuyerID))

		products := new(MockProductRepository)
		products.On("FindByID", mock.Anything, product.ID).Return(nil, errors.New("db down"))
		h := NewOrderCancelledHandler(products, nil)
		err := h.Handle(as(uuid.New(), identity.RoleClient), o.GetDomainEvents()[0])
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("wrong event type", func(t *testing.T) {
		b, err := trade.NewBooking(uuid.New(), uuid.New(), uuid.New(), time.Now().Add(time.Hour), decimal.NewFromInt(1), "")
		require.NoError(t, err)
		require.NoError(t, b.TransitionTo(trade.BookingStatusConfirmed, b.ProviderID))

		h := NewOrderCancelledHandler(new(MockProductRepository), nil)
		assert.Error(t, h.Handle(as(uuid.New(), identity.RoleClient), b.GetDomainEvents()[0]))
	})
}
