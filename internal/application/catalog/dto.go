package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListRequest pages and filters a listing query
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	Category string `form:"category" binding:"omitempty,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name price created_at updated_at stock"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Filter converts the request into a repository filter
func (r ListRequest) Filter() shared.Filter {
	f := shared.DefaultFilter().
		WithPage(r.Page, r.PageSize).
		WithOrder(r.OrderBy, r.OrderDir).
		Where("category", r.Category).
		Where("status", r.Status)
	f.Search = r.Search
	return f
}

// CreateServiceRequest creates a service listing
type CreateServiceRequest struct {
	Name            string          `json:"name" binding:"required,min=1,max=200"`
	Description     string          `json:"description"`
	Category        string          `json:"category" binding:"omitempty,max=100"`
	Price           decimal.Decimal `json:"price" binding:"required"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,min=1"`
}

// UpdateServiceRequest replaces a service listing's fields
type UpdateServiceRequest = CreateServiceRequest

// ServiceResponse is a service listing
type ServiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProviderID      uuid.UUID       `json:"provider_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Category        string          `json:"category,omitempty"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// ToServiceResponse converts a service to its response
func ToServiceResponse(s *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		ProviderID:      s.ProviderID,
		Name:            s.Name,
		Description:     s.Description,
		Category:        s.Category,
		Price:           s.Price,
		DurationMinutes: s.DurationMinutes,
		Status:          string(s.Status),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.Version,
	}
}

// ToServiceResponses converts a slice of services
func ToServiceResponses(services []catalog.Service) []ServiceResponse {
	out := make([]ServiceResponse, len(services))
	for i := range services {
		out[i] = ToServiceResponse(&services[i])
	}
	return out
}

// CreateProductRequest creates a product listing
type CreateProductRequest struct {
	Name              string          `json:"name" binding:"required,min=1,max=200"`
	Description       string          `json:"description"`
	Category          string          `json:"category" binding:"omitempty,max=100"`
	Price             decimal.Decimal `json:"price" binding:"required"`
	Stock             int             `json:"stock" binding:"min=0"`
	LowStockThreshold *int            `json:"low_stock_threshold" binding:"omitempty,min=0"`
	ImageURL          string          `json:"image_url" binding:"omitempty,url,max=500"`
}

// UpdateProductRequest replaces a product's descriptive fields. Stock is
// changed through AdjustStock only.
type UpdateProductRequest struct {
	Name              string          `json:"name" binding:"required,min=1,max=200"`
	Description       string          `json:"description"`
	Category          string          `json:"category" binding:"omitempty,max=100"`
	Price             decimal.Decimal `json:"price" binding:"required"`
	LowStockThreshold *int            `json:"low_stock_threshold" binding:"omitempty,min=0"`
	ImageURL          string          `json:"image_url" binding:"omitempty,url,max=500"`
}

// AdjustStockRequest adds (positive) or removes (negative) units
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"omitempty,max=200"`
}

// ProductResponse is a product listing
type ProductResponse struct {
	ID                uuid.UUID       `json:"id"`
	SellerID          uuid.UUID       `json:"seller_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Category          string          `json:"category,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	LowStock          bool            `json:"low_stock"`
	ImageURL          string          `json:"image_url,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToProductResponse converts a product to its response
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		SellerID:          p.SellerID,
		Name:              p.Name,
		Description:       p.Description,
		Category:          p.Category,
		Price:             p.Price,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
		ImageURL:          p.ImageURL,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}
