package handler

import (
	"github.com/gin-gonic/gin"
	cartapp "github.com/marketplace/backend/internal/application/cart"
)

// CartHandler handles shopping cart HTTP requests
type CartHandler struct {
	BaseHandler
	cartService *cartapp.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// Get godoc
// @ID           getCart
// @Summary      Get my cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.cartService.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// AddItem godoc
// @ID           addCartItem
// @Summary      Add to cart
// @Description  Add units of an active product. Quantities of the same product are merged.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Item"
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartapp.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cart, err := h.cartService.AddItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// SetQuantity godoc
// @ID           setCartItemQuantity
// @Summary      Set item quantity
// @Description  A quantity of zero removes the item
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        request body cartapp.SetQuantityRequest true "Quantity"
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/items/{product_id} [put]
func (h *CartHandler) SetQuantity(c *gin.Context) {
	productID, ok := h.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	var req cartapp.SetQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cart, err := h.cartService.SetQuantity(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveItem godoc
// @ID           removeCartItem
// @Summary      Remove item
// @Tags         cart
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Security     BearerAuth
// @Router       /cart/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := h.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	cart, err := h.cartService.RemoveItem(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Clear godoc
// @ID           clearCart
// @Summary      Empty my cart
// @Tags         cart
// @Success      204
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Checkout godoc
// @ID           checkoutCart
// @Summary      Checkout
// @Description  Place one order per cart line and empty the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.CheckoutRequest true "Shipping"
// @Success      201 {object} APIResponse[cartapp.CheckoutResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	var req cartapp.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.cartService.Checkout(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}
