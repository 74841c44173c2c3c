package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/marketplace/backend/internal/application/catalog"
	reviewapp "github.com/marketplace/backend/internal/application/review"
	tradeapp "github.com/marketplace/backend/internal/application/trade"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type marketplaceFixture struct {
	db       *gorm.DB
	listings *ListingHandler
	products *ProductHandler
	bookings *BookingHandler
	orders   *OrderHandler
	reviews  *ReviewHandler
}

func newMarketplaceFixture(t *testing.T) *marketplaceFixture {
	t.Helper()
	db := setupTestDB(t)
	log := zap.NewNop()
	serviceRepo := persistence.NewGormServiceRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	bookingRepo := persistence.NewGormBookingRepository(db)
	orders := tradeapp.NewOrderService(persistence.NewGormOrderRepository(db), productRepo, log)
	orders.SetTxRunner(&persistence.Database{DB: db})

	return &marketplaceFixture{
		db:       db,
		listings: NewListingHandler(catalogapp.NewListingService(serviceRepo, log)),
		products: NewProductHandler(catalogapp.NewProductService(productRepo, log)),
		bookings: NewBookingHandler(tradeapp.NewBookingService(bookingRepo, serviceRepo, log)),
		orders:   NewOrderHandler(orders),
		reviews:  NewReviewHandler(reviewapp.NewService(persistence.NewGormReviewRepository(db), serviceRepo, bookingRepo, log)),
	}
}

func (f *marketplaceFixture) router(caller *identity.Identity) *gin.Engine {
	r := gin.New()
	r.Use(withIdentity(caller))

	r.GET("/services", f.listings.Browse)
	r.GET("/services/:id", f.listings.GetByID)
	r.GET("/services/:id/reviews", f.reviews.ListForService)
	r.GET("/provider/services", f.listings.ListMine)
	r.POST("/provider/services", f.listings.Create)
	r.PUT("/provider/services/:id", f.listings.Update)
	r.POST("/provider/services/:id/toggle", f.listings.ToggleStatus)
	r.DELETE("/provider/services/:id", f.listings.Delete)

	r.GET("/products", f.products.Browse)
	r.GET("/products/:id", f.products.GetByID)
	r.POST("/seller/products", f.products.Create)
	r.POST("/seller/inventory/:id/adjust", f.products.AdjustStock)
	r.GET("/seller/inventory/low-stock", f.products.LowStock)

	r.POST("/bookings", f.bookings.Create)
	r.GET("/bookings", f.bookings.ListMine)
	r.POST("/bookings/:id/confirm", f.bookings.Confirm)
	r.POST("/bookings/:id/complete", f.bookings.Complete)
	r.POST("/bookings/:id/cancel", f.bookings.Cancel)

	r.POST("/orders", f.orders.Create)
	r.GET("/orders/:id", f.orders.Get)
	r.POST("/orders/:id/ship", f.orders.Ship)
	r.POST("/orders/:id/cancel", f.orders.Cancel)

	r.POST("/reviews", f.reviews.Create)
	r.POST("/reviews/:id/reply", f.reviews.Reply)
	r.GET("/providers/:id/reviews/summary", f.reviews.Summary)
	return r
}

func TestListingHandler_ProviderPublishesAndClientBrowses(t *testing.T) {
	f := newMarketplaceFixture(t)
	provider := newUser(t, f.db, identity.RoleProvider, "Pat")
	client := newUser(t, f.db, identity.RoleClient, "Cam")

	w := doJSON(f.router(provider), http.MethodPost, "/provider/services", map[string]any{
		"name": "Deep clean", "category": "cleaning", "price": "80.00", "duration_minutes": 120,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc := decodeData[catalogapp.ServiceResponse](t, w)
	assert.Equal(t, provider.UserID, svc.ProviderID)

	w = doJSON(f.router(client), http.MethodGet, "/services?search=clean", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]catalogapp.ServiceResponse](t, w), 1)

	// Inactive services disappear from browse but stay in the owner's list
	w = doJSON(f.router(provider), http.MethodPost, "/provider/services/"+svc.ID.String()+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(f.router(client), http.MethodGet, "/services", nil)
	assert.Empty(t, decodeData[[]catalogapp.ServiceResponse](t, w))
	w = doJSON(f.router(provider), http.MethodGet, "/provider/services", nil)
	assert.Len(t, decodeData[[]catalogapp.ServiceResponse](t, w), 1)
}

func TestListingHandler_Errors(t *testing.T) {
	f := newMarketplaceFixture(t)
	provider := newUser(t, f.db, identity.RoleProvider, "Pat")
	other := newUser(t, f.db, identity.RoleProvider, "Quinn")
	client := newUser(t, f.db, identity.RoleClient, "Cam")

	w := doJSON(f.router(provider), http.MethodPost, "/provider/services", map[string]any{
		"name": "Garden care", "price": "40", "duration_minutes": 60,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	svc := decodeData[catalogapp.ServiceResponse](t, w)

	tests := []struct {
		name   string
		caller *identity.Identity
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"missing name", provider, http.MethodPost, "/provider/services", map[string]any{"price": "10", "duration_minutes": 30}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"client cannot publish", client, http.MethodPost, "/provider/services", map[string]any{"name": "x", "price": "10", "duration_minutes": 30}, http.StatusForbidden, dto.ErrCodeForbidden},
		{"other provider cannot delete", other, http.MethodDelete, "/provider/services/" + svc.ID.String(), nil, http.StatusForbidden, dto.ErrCodeForbidden},
		{"unknown service", client, http.MethodGet, "/services/00000000-0000-0000-0000-000000000001", nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"malformed id", client, http.MethodGet, "/services/abc", nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"bad sort field", client, http.MethodGet, "/services?order_by=password", nil, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(f.router(tt.caller), tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestBookingHandler_Lifecycle(t *testing.T) {
	f := newMarketplaceFixture(t)
	provider := newUser(t, f.db, identity.RoleProvider, "Pat")
	client := newUser(t, f.db, identity.RoleClient, "Cam")

	w := doJSON(f.router(provider), http.MethodPost, "/provider/services", map[string]any{
		"name": "Window wash", "price": "55.50", "duration_minutes": 45,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	svc := decodeData[catalogapp.ServiceResponse](t, w)

	w = doJSON(f.router(provider), http.MethodPost, "/bookings", map[string]any{
		"service_id": svc.ID, "scheduled_at": time.Now().Add(48 * time.Hour),
	})
	assert.Equal(t, http.StatusForbidden, w.Code, "providers do not book")

	w = doJSON(f.router(client), http.MethodPost, "/bookings", map[string]any{
		"service_id": svc.ID, "scheduled_at": time.Now().Add(48 * time.Hour), "notes": "Side door",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decodeData[tradeapp.BookingResponse](t, w)
	assert.Equal(t, "pending", booking.Status)
	assert.Equal(t, "55.50", booking.TotalPrice.StringFixed(2))

	path := "/bookings/" + booking.ID.String()
	w = doJSON(f.router(client), http.MethodPost, path+"/confirm", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(f.router(provider), http.MethodPost, path+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(f.router(provider), http.MethodPost, path+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decodeData[tradeapp.BookingResponse](t, w).Status)

	w = doJSON(f.router(client), http.MethodPost, path+"/cancel", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, w))

	// Completed bookings can be reviewed once
	w = doJSON(f.router(client), http.MethodPost, "/reviews", map[string]any{
		"service_id": svc.ID, "booking_id": booking.ID, "rating": 5, "comment": "Spotless",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decodeData[reviewapp.ReviewResponse](t, w)

	w = doJSON(f.router(provider), http.MethodPost, "/reviews/"+review.ID.String()+"/reply", map[string]any{"reply": "Thank you!"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Thank you!", decodeData[reviewapp.ReviewResponse](t, w).ProviderReply)

	w = doJSON(f.router(client), http.MethodGet, "/providers/"+provider.UserID.String()+"/reviews/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeData[reviewapp.SummaryResponse](t, w)
	assert.Equal(t, int64(1), summary.Count)
	assert.InDelta(t, 5.0, summary.Average, 0.001)

	w = doJSON(f.router(client), http.MethodGet, "/services/"+svc.ID.String()+"/reviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]reviewapp.ReviewResponse](t, w), 1)

	w = doJSON(f.router(client), http.MethodPost, "/reviews", map[string]any{"service_id": svc.ID, "rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_StockFollowsOrders(t *testing.T) {
	f := newMarketplaceFixture(t)
	seller := newUser(t, f.db, identity.RoleSeller, "Sam")
	client := newUser(t, f.db, identity.RoleClient, "Cam")

	w := doJSON(f.router(seller), http.MethodPost, "/seller/products", map[string]any{
		"name": "Lavender soap", "price": "4.25", "stock": 5, "low_stock_threshold": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decodeData[catalogapp.ProductResponse](t, w)

	stock := func() int {
		w := doJSON(f.router(client), http.MethodGet, "/products/"+product.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		return decodeData[catalogapp.ProductResponse](t, w).Stock
	}

	w = doJSON(f.router(client), http.MethodPost, "/orders", map[string]any{
		"product_id": product.ID, "quantity": 9, "shipping_address": "1 Main St",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, 5, stock())

	w = doJSON(f.router(client), http.MethodPost, "/orders", map[string]any{
		"product_id": product.ID, "quantity": 3, "shipping_address": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decodeData[tradeapp.OrderResponse](t, w)
	assert.Equal(t, "12.75", order.TotalAmount.StringFixed(2))
	assert.Equal(t, 2, stock())

	w = doJSON(f.router(seller), http.MethodGet, "/seller/inventory/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]catalogapp.ProductResponse](t, w), 1)

	w = doJSON(f.router(client), http.MethodPost, "/orders/"+order.ID.String()+"/ship", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(f.router(client), http.MethodPost, "/orders/"+order.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decodeData[tradeapp.OrderResponse](t, w).Status)
	assert.Equal(t, 5, stock())

	w = doJSON(f.router(seller), http.MethodPost, "/seller/inventory/"+product.ID.String()+"/adjust", map[string]any{"delta": -6})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = doJSON(f.router(seller), http.MethodPost, "/seller/inventory/"+product.ID.String()+"/adjust", map[string]any{"delta": 10, "reason": "restock"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 15, decodeData[catalogapp.ProductResponse](t, w).Stock)
}
