package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	assistantapp "github.com/marketplace/backend/internal/application/assistant"
	cartapp "github.com/marketplace/backend/internal/application/cart"
	catalogapp "github.com/marketplace/backend/internal/application/catalog"
	identityapp "github.com/marketplace/backend/internal/application/identity"
	onboardingapp "github.com/marketplace/backend/internal/application/onboarding"
	tradeapp "github.com/marketplace/backend/internal/application/trade"
	"github.com/marketplace/backend/internal/domain/assistant"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/storage"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type accountFixture struct {
	db         *gorm.DB
	objects    *storage.MemoryObjectStorage
	products   *ProductHandler
	cart       *CartHandler
	assistant  *AssistantHandler
	onboarding *OnboardingHandler
	profiles   *ProfileHandler
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	db := setupTestDB(t)
	log := zap.NewNop()
	kv := cache.NewInMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })

	productRepo := persistence.NewGormProductRepository(db)
	profileRepo := persistence.NewGormProfileRepository(db)
	orders := tradeapp.NewOrderService(persistence.NewGormOrderRepository(db), productRepo, log)
	orders.SetTxRunner(&persistence.Database{DB: db})
	responder, err := assistant.NewResponder(assistant.DefaultRules)
	require.NoError(t, err)
	objects := storage.NewMemoryObjectStorage("https://cdn.test/uploads")

	return &accountFixture{
		db:         db,
		objects:    objects,
		products:   NewProductHandler(catalogapp.NewProductService(productRepo, log)),
		cart:       NewCartHandler(cartapp.NewService(cache.NewCartStore(kv, time.Hour), productRepo, orders, log)),
		assistant:  NewAssistantHandler(assistantapp.NewService(cache.NewHistoryStore(kv), responder, log)),
		onboarding: NewOnboardingHandler(onboardingapp.NewService(profileRepo, cache.NewOnboardingStore(kv, time.Hour), log)),
		profiles: NewProfileHandler(identityapp.NewProfileService(
			profileRepo, persistence.NewGormDirectoryRepository(db), objects, log)),
	}
}

func (f *accountFixture) router(caller *identity.Identity) *gin.Engine {
	r := gin.New()
	r.Use(withIdentity(caller))

	r.POST("/seller/products", f.products.Create)
	r.GET("/products/:id", f.products.GetByID)

	r.GET("/cart", f.cart.Get)
	r.DELETE("/cart", f.cart.Clear)
	r.POST("/cart/items", f.cart.AddItem)
	r.PUT("/cart/items/:product_id", f.cart.SetQuantity)
	r.DELETE("/cart/items/:product_id", f.cart.RemoveItem)
	r.POST("/cart/checkout", f.cart.Checkout)

	r.POST("/assistant/messages", f.assistant.Send)
	r.GET("/assistant/messages", f.assistant.History)
	r.DELETE("/assistant/messages", f.assistant.Clear)

	r.GET("/onboarding", f.onboarding.GetWizard)
	r.POST("/onboarding/next", f.onboarding.Advance)
	r.POST("/onboarding/back", f.onboarding.Back)
	r.GET("/onboarding/tour", f.onboarding.Tour)
	r.POST("/onboarding/tour/complete", f.onboarding.CompleteTour)

	r.GET("/profiles/me", f.profiles.GetMe)
	r.PUT("/profiles/me", f.profiles.UpdateMe)
	r.POST("/profiles/me/avatar", f.profiles.UploadAvatar)
	r.POST("/profiles/me/logo", f.profiles.UploadShopLogo)
	return r
}

func (f *accountFixture) createProduct(t *testing.T, seller *identity.Identity, name, price string, stock int) catalogapp.ProductResponse {
	t.Helper()
	w := doJSON(f.router(seller), http.MethodPost, "/seller/products", map[string]any{
		"name": name, "price": price, "stock": stock,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[catalogapp.ProductResponse](t, w)
}

func TestCartHandler_AddAdjustAndCheckout(t *testing.T) {
	f := newAccountFixture(t)
	seller := newUser(t, f.db, identity.RoleSeller, "Sam")
	client := newUser(t, f.db, identity.RoleClient, "Cam")
	candle := f.createProduct(t, seller, "Beeswax candle", "6.00", 10)
	jam := f.createProduct(t, seller, "Plum jam", "3.50", 4)

	w := doJSON(f.router(client), http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[cartapp.CartResponse](t, w).Items)

	w = doJSON(f.router(client), http.MethodPost, "/cart/items", map[string]any{"product_id": candle.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(f.router(client), http.MethodPost, "/cart/items", map[string]any{"product_id": jam.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(f.router(client), http.MethodPut, "/cart/items/"+jam.ID.String(), map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart := decodeData[cartapp.CartResponse](t, w)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 5, cart.Count)
	assert.Equal(t, "22.50", cart.Total.StringFixed(2))

	w = doJSON(f.router(client), http.MethodPost, "/cart/checkout", map[string]any{"shipping_address": "1 Hive Lane"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decodeData[cartapp.CheckoutResponse](t, w)
	assert.Len(t, out.Orders, 2)
	assert.Empty(t, out.Cart.Items)

	w = doJSON(f.router(client), http.MethodGet, "/products/"+jam.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeData[catalogapp.ProductResponse](t, w).Stock)
}

func TestCartHandler_Errors(t *testing.T) {
	f := newAccountFixture(t)
	seller := newUser(t, f.db, identity.RoleSeller, "Sam")
	client := newUser(t, f.db, identity.RoleClient, "Cam")
	soap := f.createProduct(t, seller, "Oat soap", "4.00", 2)

	tests := []struct {
		name   string
		caller *identity.Identity
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"no identity", nil, http.MethodGet, "/cart", nil, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"unknown product", client, http.MethodPost, "/cart/items", map[string]any{"product_id": "00000000-0000-0000-0000-000000000001", "quantity": 1}, http.StatusNotFound, dto.ErrCodeNotFound},
		{"more than stock", client, http.MethodPost, "/cart/items", map[string]any{"product_id": soap.ID, "quantity": 3}, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"zero quantity", client, http.MethodPost, "/cart/items", map[string]any{"product_id": soap.ID, "quantity": 0}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"own product", seller, http.MethodPost, "/cart/items", map[string]any{"product_id": soap.ID, "quantity": 1}, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"malformed product id", client, http.MethodDelete, "/cart/items/abc", nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"empty checkout", client, http.MethodPost, "/cart/checkout", map[string]any{"shipping_address": "Somewhere"}, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"checkout without address", client, http.MethodPost, "/cart/checkout", map[string]any{}, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(f.router(tt.caller), tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestCartHandler_Clear(t *testing.T) {
	f := newAccountFixture(t)
	seller := newUser(t, f.db, identity.RoleSeller, "Sam")
	client := newUser(t, f.db, identity.RoleClient, "Cam")
	soap := f.createProduct(t, seller, "Oat soap", "4.00", 2)

	w := doJSON(f.router(client), http.MethodPost, "/cart/items", map[string]any{"product_id": soap.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f.router(client), http.MethodDelete, "/cart", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(f.router(client), http.MethodGet, "/cart", nil)
	assert.Empty(t, decodeData[cartapp.CartResponse](t, w).Items)
}

func TestAssistantHandler_Conversation(t *testing.T) {
	f := newAccountFixture(t)
	client := newUser(t, f.db, identity.RoleClient, "Cam")

	w := doJSON(f.router(client), http.MethodPost, "/assistant/messages", map[string]string{"message": "How do I reschedule an appointment?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decodeData[assistantapp.SendResponse](t, w)
	assert.Equal(t, "booking", reply.Answer.Intent)
	assert.Equal(t, assistant.SpeakerAssistant, reply.Answer.Speaker)

	w = doJSON(f.router(client), http.MethodPost, "/assistant/messages", map[string]string{"message": "zzz"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, assistant.FallbackAnswer, decodeData[assistantapp.SendResponse](t, w).Answer.Content)

	w = doJSON(f.router(client), http.MethodGet, "/assistant/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[assistantapp.HistoryResponse](t, w).Turns, 4)

	w = doJSON(f.router(client), http.MethodPost, "/assistant/messages", map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(f.router(client), http.MethodDelete, "/assistant/messages", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(f.router(client), http.MethodGet, "/assistant/messages", nil)
	assert.Empty(t, decodeData[assistantapp.HistoryResponse](t, w).Turns)
}

func TestOnboardingHandler_ProviderWizard(t *testing.T) {
	f := newAccountFixture(t)
	provider := newUser(t, f.db, identity.RoleProvider, "Pat")
	r := f.router(provider)

	w := doJSON(r, http.MethodGet, "/onboarding", nil)
	require.Equal(t, http.StatusOK, w.Code)
	wizard := decodeData[onboardingapp.WizardResponse](t, w)
	assert.Equal(t, onboarding.StepProfileBasics, wizard.Current)
	assert.Contains(t, wizard.Steps, onboarding.StepBusinessInfo)

	w = doJSON(r, http.MethodPost, "/onboarding/next", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "full name is required")
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))

	w = doJSON(r, http.MethodPost, "/onboarding/next", map[string]string{"full_name": "Pat Provider"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, onboarding.StepLocationBio, decodeData[onboardingapp.WizardResponse](t, w).Current)

	w = doJSON(r, http.MethodPost, "/onboarding/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	back := decodeData[onboardingapp.WizardResponse](t, w)
	assert.Equal(t, onboarding.StepProfileBasics, back.Current)
	assert.Equal(t, "Pat Provider", back.Draft.FullName, "draft survives going back")

	for _, body := range []map[string]string{
		{"full_name": "Pat Provider"},
		{"location": "Lisbon"},
		{"business_name": "Pat's Plumbing"},
	} {
		w = doJSON(r, http.MethodPost, "/onboarding/next", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	assert.Equal(t, onboarding.StepTour, decodeData[onboardingapp.WizardResponse](t, w).Current)

	// Leaving the last profile step persisted the profile
	w = doJSON(r, http.MethodGet, "/profiles/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeData[identityapp.ProfileResponse](t, w)
	assert.Equal(t, "Lisbon", me.Location)
	assert.Equal(t, "Pat's Plumbing", me.BusinessName)
	assert.False(t, me.OnboardingCompleted)

	w = doJSON(r, http.MethodGet, "/onboarding/tour", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeData[onboardingapp.TourResponse](t, w).Slides)

	w = doJSON(r, http.MethodPost, "/onboarding/tour/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decodeData[onboardingapp.WizardResponse](t, w).Completed)

	w = doJSON(r, http.MethodGet, "/profiles/me", nil)
	assert.True(t, decodeData[identityapp.ProfileResponse](t, w).OnboardingCompleted)
}

func TestProfileHandler_UpdateMe(t *testing.T) {
	f := newAccountFixture(t)
	client := newUser(t, f.db, identity.RoleClient, "Cam")

	w := doJSON(f.router(client), http.MethodPut, "/profiles/me", map[string]string{"full_name": "Cam Client"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "location is required")

	w = doJSON(f.router(client), http.MethodPut, "/profiles/me", map[string]string{
		"full_name": "Cam Client", "location": "Porto", "bio": "Likes tidy gardens",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decodeData[identityapp.ProfileResponse](t, w)
	assert.Equal(t, "Cam Client", me.FullName)
	assert.Equal(t, identity.RoleClient, me.Role)
}

var pngHeader = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func uploadRequest(t *testing.T, path, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, "picture.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProfileHandler_Uploads(t *testing.T) {
	f := newAccountFixture(t)
	client := newUser(t, f.db, identity.RoleClient, "Cam")
	seller := newUser(t, f.db, identity.RoleSeller, "Sam")

	w := httptest.NewRecorder()
	f.router(client).ServeHTTP(w, uploadRequest(t, "/profiles/me/avatar", uploadField, pngHeader))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	url := decodeData[identityapp.UploadResponse](t, w).URL
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/uploads/avatars/"+client.UserID.String()+"/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
	assert.Equal(t, 1, f.objects.Len())

	w = httptest.NewRecorder()
	f.router(client).ServeHTTP(w, uploadRequest(t, "/profiles/me/logo", uploadField, pngHeader))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	f.router(seller).ServeHTTP(w, uploadRequest(t, "/profiles/me/logo", uploadField, pngHeader))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(f.router(seller), http.MethodGet, "/profiles/me", nil)
	assert.NotEmpty(t, decodeData[identityapp.ProfileResponse](t, w).ShopLogoURL)

	t.Run("missing file", func(t *testing.T) {
		w := httptest.NewRecorder()
		f.router(client).ServeHTTP(w, uploadRequest(t, "/profiles/me/avatar", "", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
	})

	t.Run("not an image", func(t *testing.T) {
		w := httptest.NewRecorder()
		f.router(client).ServeHTTP(w, uploadRequest(t, "/profiles/me/avatar", uploadField, []byte("just some text")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
	})
}

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Pinger
		status int
		want   string
	}{
		{
			name:   "all healthy",
			checks: map[string]Pinger{"database": func(context.Context) error { return nil }, "redis": nil},
			status: http.StatusOK,
			want:   "healthy",
		},
		{
			name: "one failing",
			checks: map[string]Pinger{
				"database": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
			status: http.StatusServiceUnavailable,
			want:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.checks).Check)
			w := doJSON(r, http.MethodGet, "/health", nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}
