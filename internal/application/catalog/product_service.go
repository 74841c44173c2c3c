package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProductService handles products and inventory owned by sellers
type ProductService struct {
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(products catalog.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{products: products, logger: logger}
}

// Browse lists active products of every seller
func (s *ProductService) Browse(ctx context.Context, req ListRequest) (*shared.Paginated[ProductResponse], error) {
	filter := req.Filter()
	delete(filter.Filters, "status")
	items, total, err := s.products.FindActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToProductResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListMine lists the caller's products
func (s *ProductService) ListMine(ctx context.Context, req ListRequest) (*shared.Paginated[ProductResponse], error) {
	me, err := requireRole(ctx, identity.RoleSeller)
	if err != nil {
		return nil, err
	}
	filter := req.Filter()
	items, total, err := s.products.FindBySeller(ctx, me.UserID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToProductResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetByID returns a product. Inactive products are only visible to their owner.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != catalog.ListingStatusActive {
		me, ok := identity.FromContext(ctx)
		if !ok || !p.IsOwnedBy(me.UserID) {
			return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
		}
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// Create creates a product owned by the caller
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "create")
	defer span.End()

	me, err := requireRole(ctx, identity.RoleSeller)
	if err != nil {
		return nil, err
	}
	p, err := catalog.NewProduct(me.UserID, req.Name, req.Category, req.Price, req.Stock)
	if err != nil {
		return nil, err
	}
	if req.Description != "" || req.ImageURL != "" {
		if err := p.Update(req.Name, req.Description, req.Category, req.Price, req.ImageURL); err != nil {
			return nil, err
		}
	}
	if req.LowStockThreshold != nil {
		if err := p.SetLowStockThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if err := s.products.Save(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrProductID, p.ID)
	s.logger.Info("product created", zap.String("product_id", p.ID.String()), zap.String("seller_id", me.UserID.String()))
	resp := ToProductResponse(p)
	return &resp, nil
}

// Update replaces the descriptive fields of one of the caller's products
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	p, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Name, req.Description, req.Category, req.Price, req.ImageURL); err != nil {
		return nil, err
	}
	if req.LowStockThreshold != nil {
		if err := p.SetLowStockThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// ToggleStatus flips a product between active and inactive
func (s *ProductService) ToggleStatus(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ToggleStatus()
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// Delete removes one of the caller's products
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

// AdjustStock changes the stock of one of the caller's products. Stock never
// goes below zero.
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "adjust",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, id))
	defer span.End()

	if req.Delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment cannot be zero")
	}
	p, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	before := p.Stock
	if err := p.AdjustStock(req.Delta); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("stock adjusted",
		zap.String("product_id", id.String()),
		zap.Int("before", before),
		zap.Int("after", p.Stock),
		zap.String("reason", req.Reason))
	if p.IsLowStock() {
		s.logger.Warn("product is low on stock",
			zap.String("product_id", id.String()),
			zap.Int("stock", p.Stock),
			zap.Int("threshold", p.LowStockThreshold))
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// LowStock lists the caller's products at or below their threshold
func (s *ProductService) LowStock(ctx context.Context) ([]ProductResponse, error) {
	me, err := requireRole(ctx, identity.RoleSeller)
	if err != nil {
		return nil, err
	}
	items, err := s.products.FindLowStock(ctx, me.UserID)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(items), nil
}

func (s *ProductService) owned(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	me, err := requireRole(ctx, identity.RoleSeller)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(me.UserID) {
		return nil, ErrNotOwner
	}
	return p, nil
}
