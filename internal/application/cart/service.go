// Package cart implements the shopper cart persisted per user in the KV store.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	tradeapp "github.com/marketplace/backend/internal/application/trade"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrProductUnavailable is returned for unknown or inactive products
var ErrProductUnavailable = shared.NewDomainError("NOT_FOUND", "Product not found or no longer available")

// OrderPlacer places a single product order
type OrderPlacer interface {
	Create(ctx context.Context, req tradeapp.CreateOrderRequest) (*tradeapp.OrderResponse, error)
}

// AddItemRequest adds units of a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// SetQuantityRequest sets the quantity of a product in the cart
type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// CheckoutRequest turns the cart into orders
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required,max=500"`
}

// ItemResponse is one cart line
type ItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// CartResponse is the whole cart
type CartResponse struct {
	Items     []ItemResponse  `json:"items"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CheckoutResponse lists the placed orders and what stayed in the cart
type CheckoutResponse struct {
	Orders []tradeapp.OrderResponse `json:"orders"`
	Cart   CartResponse             `json:"cart"`
}

// ToCartResponse converts a cart to its response
func ToCartResponse(c *cart.Cart) CartResponse {
	total := c.Total()
	return CartResponse{
		Items: lo.Map(c.Items, func(i cart.Item, _ int) ItemResponse {
			return ItemResponse{
				ProductID: i.ProductID,
				SellerID:  i.SellerID,
				Name:      i.Name,
				UnitPrice: i.UnitPrice,
				Quantity:  i.Quantity,
				LineTotal: i.LineTotal(),
				ImageURL:  i.ImageURL,
			}
		}),
		Count:     c.Count(),
		Total:     total.Amount(),
		Currency:  string(total.Currency()),
		UpdatedAt: c.UpdatedAt,
	}
}

// Service handles the caller's cart
type Service struct {
	store    cart.Store
	products catalog.ProductRepository
	orders   OrderPlacer
	logger   *zap.Logger
}

// NewService creates a new cart Service
func NewService(store cart.Store, products catalog.ProductRepository, orders OrderPlacer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, products: products, orders: orders, logger: logger}
}

// Get returns the caller's cart
func (s *Service) Get(ctx context.Context) (*CartResponse, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(c)
	return &resp, nil
}

// AddItem adds units of an active product, priced from the catalog
func (s *Service) AddItem(ctx context.Context, req AddItemRequest) (*CartResponse, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	if p.Status != catalog.ListingStatusActive {
		return nil, ErrProductUnavailable
	}
	if p.IsOwnedBy(c.UserID) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cannot add your own product")
	}
	inCart := 0
	if line, ok := lo.Find(c.Items, func(i cart.Item) bool { return i.ProductID == p.ID }); ok {
		inCart = line.Quantity
	}
	if inCart+req.Quantity > p.Stock {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock for the requested quantity")
	}

	if err := c.Add(cart.Item{
		ProductID: p.ID,
		SellerID:  p.SellerID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  req.Quantity,
		ImageURL:  p.ImageURL,
	}); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// SetQuantity sets the quantity of a product already in the cart; zero removes it
func (s *Service) SetQuantity(ctx context.Context, productID uuid.UUID, req SetQuantityRequest) (*CartResponse, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.SetQuantity(productID, req.Quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// RemoveItem drops a product from the cart
func (s *Service) RemoveItem(ctx context.Context, productID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Remove(productID); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context) error {
	me, err := identity.Require(ctx)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, me.UserID)
}

// Checkout places one order per cart line. Lines are ordered in sequence;
// on the first failure the placed lines are removed from the cart and the
// error is returned with the rest left in place.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "Cart is empty")
	}

	placed := make([]tradeapp.OrderResponse, 0, len(c.Items))
	var placeErr error
	for _, item := range append([]cart.Item(nil), c.Items...) {
		order, err := s.orders.Create(ctx, tradeapp.CreateOrderRequest{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			ShippingAddress: req.ShippingAddress,
		})
		if err != nil {
			placeErr = err
			break
		}
		placed = append(placed, *order)
		_ = c.Remove(item.ProductID)
	}

	if len(placed) > 0 {
		if _, err := s.save(ctx, c); err != nil {
			s.logger.Error("failed to save cart after checkout",
				zap.String("user_id", c.UserID.String()),
				zap.Int("orders_placed", len(placed)),
				zap.Error(err))
			if placeErr == nil {
				placeErr = err
			}
		}
	}
	if placeErr != nil {
		return nil, placeErr
	}

	s.logger.Info("cart checked out",
		zap.String("user_id", c.UserID.String()),
		zap.Int("orders", len(placed)))
	return &CheckoutResponse{Orders: placed, Cart: ToCartResponse(c)}, nil
}

func (s *Service) load(ctx context.Context) (*cart.Cart, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Load(ctx, me.UserID)
}

func (s *Service) save(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCartResponse(c)
	return &resp, nil
}
