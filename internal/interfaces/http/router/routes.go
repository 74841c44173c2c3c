package router

import (
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers mounted under the versioned API
type Handlers struct {
	Listings      *handler.ListingHandler
	Products      *handler.ProductHandler
	Bookings      *handler.BookingHandler
	Orders        *handler.OrderHandler
	Reviews       *handler.ReviewHandler
	Conversations *handler.ConversationHandler
	Profiles      *handler.ProfileHandler
	Cart          *handler.CartHandler
	Assistant     *handler.AssistantHandler
	Onboarding    *handler.OnboardingHandler
	Documents     *handler.DocumentHandler
}

// MarketplaceGroups builds the domain route groups. Role checks here mirror
// the ones in the application services; they reject early and keep whole
// sections of the API out of reach of the wrong role.
func MarketplaceGroups(h Handlers) []*DomainGroup {
	catalog := NewDomainGroup("catalog", "")
	catalog.GET("/services", h.Listings.Browse).
		GET("/services/:id", h.Listings.GetByID).
		GET("/services/:id/reviews", h.Reviews.ListForService).
		GET("/products", h.Products.Browse).
		GET("/products/:id", h.Products.GetByID)

	provider := NewDomainGroup("provider", "/provider").
		Use(middleware.RequireRole(identity.RoleProvider))
	provider.GET("/services", h.Listings.ListMine).
		POST("/services", h.Listings.Create).
		PUT("/services/:id", h.Listings.Update).
		POST("/services/:id/toggle", h.Listings.ToggleStatus).
		DELETE("/services/:id", h.Listings.Delete)

	seller := NewDomainGroup("seller", "/seller").
		Use(middleware.RequireRole(identity.RoleSeller))
	seller.GET("/products", h.Products.ListMine).
		POST("/products", h.Products.Create).
		PUT("/products/:id", h.Products.Update).
		POST("/products/:id/toggle", h.Products.ToggleStatus).
		DELETE("/products/:id", h.Products.Delete).
		POST("/inventory/:id/adjust", h.Products.AdjustStock).
		GET("/inventory/low-stock", h.Products.LowStock)

	bookings := NewDomainGroup("bookings", "/bookings").
		Use(middleware.RequireRole(identity.RoleClient, identity.RoleProvider))
	bookings.POST("", h.Bookings.Create).
		GET("", h.Bookings.ListMine).
		GET("/:id", h.Bookings.Get).
		POST("/:id/confirm", h.Bookings.Confirm).
		POST("/:id/complete", h.Bookings.Complete).
		POST("/:id/cancel", h.Bookings.Cancel)

	orders := NewDomainGroup("orders", "/orders").
		Use(middleware.RequireRole(identity.RoleClient, identity.RoleSeller))
	orders.POST("", h.Orders.Create).
		GET("", h.Orders.ListMine).
		GET("/:id", h.Orders.Get).
		POST("/:id/process", h.Orders.Process).
		POST("/:id/ship", h.Orders.Ship).
		POST("/:id/deliver", h.Orders.Deliver).
		POST("/:id/cancel", h.Orders.Cancel)

	reviews := NewDomainGroup("reviews", "/reviews")
	reviews.POST("", middleware.RequireRole(identity.RoleClient), h.Reviews.Create).
		GET("/mine", h.Reviews.ListMine).
		POST("/:id/reply", middleware.RequireRole(identity.RoleProvider), h.Reviews.Reply).
		DELETE("/:id", h.Reviews.Delete)

	providers := NewDomainGroup("providers", "/providers")
	providers.GET("/:id/reviews", h.Reviews.ListForProvider).
		GET("/:id/reviews/summary", h.Reviews.Summary)

	messaging := NewDomainGroup("messaging", "")
	messaging.GET("/conversations", h.Conversations.List).
		POST("/conversations", h.Conversations.Start).
		GET("/conversations/ws", h.Conversations.Socket).
		GET("/conversations/:id/messages", h.Conversations.Thread).
		POST("/conversations/:id/messages", h.Conversations.Send).
		POST("/conversations/:id/read", h.Conversations.MarkRead).
		GET("/conversations/:id/stream", h.Conversations.Stream).
		GET("/users/search", h.Conversations.SearchUsers)

	profiles := NewDomainGroup("profiles", "/profiles")
	profiles.GET("/me", h.Profiles.GetMe).
		PUT("/me", h.Profiles.UpdateMe).
		POST("/me/avatar", h.Profiles.UploadAvatar).
		POST("/me/logo", middleware.RequireRole(identity.RoleProvider, identity.RoleSeller), h.Profiles.UploadShopLogo).
		GET("/:id", h.Profiles.GetPublic)

	cart := NewDomainGroup("cart", "/cart").
		Use(middleware.RequireRole(identity.RoleClient))
	cart.GET("", h.Cart.Get).
		DELETE("", h.Cart.Clear).
		POST("/items", h.Cart.AddItem).
		PUT("/items/:product_id", h.Cart.SetQuantity).
		DELETE("/items/:product_id", h.Cart.RemoveItem).
		POST("/checkout", h.Cart.Checkout)

	assistant := NewDomainGroup("assistant", "/assistant")
	assistant.POST("/messages", h.Assistant.Send).
		GET("/messages", h.Assistant.History).
		DELETE("/messages", h.Assistant.Clear)

	onboarding := NewDomainGroup("onboarding", "/onboarding")
	onboarding.GET("", h.Onboarding.GetWizard).
		POST("/next", h.Onboarding.Advance).
		POST("/back", h.Onboarding.Back).
		GET("/tour", h.Onboarding.Tour).
		POST("/tour/complete", h.Onboarding.CompleteTour)

	documents := NewDomainGroup("documents", "/documents")
	documents.GET("", h.Documents.ListDocuments).
		POST("/render", h.Documents.Render).
		GET("/:id/render", h.Documents.RenderByID)

	return []*DomainGroup{
		catalog, provider, seller, bookings, orders, reviews, providers,
		messaging, profiles, cart, assistant, onboarding, documents,
	}
}

// RegisterMarketplace registers every marketplace domain group
func RegisterMarketplace(r *Router, h Handlers) *Router {
	for _, g := range MarketplaceGroups(h) {
		r.Register(g)
	}
	return r
}
