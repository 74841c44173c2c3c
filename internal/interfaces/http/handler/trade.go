package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/marketplace/backend/internal/application/trade"
)

// BookingHandler handles service booking HTTP requests
type BookingHandler struct {
	BaseHandler
	bookingService *tradeapp.BookingService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *tradeapp.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// Create godoc
// @ID           createBooking
// @Summary      Book a service
// @Description  Book an active service for a future time slot
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateBookingRequest true "Booking"
// @Success      201 {object} APIResponse[tradeapp.BookingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req tradeapp.CreateBookingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	booking, err := h.bookingService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, booking)
}

// ListMine godoc
// @ID           listMyBookings
// @Summary      List my bookings
// @Description  Clients see the bookings they made; providers see bookings of their services
// @Tags         bookings
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        status query string false "Status" Enums(pending, confirmed, completed, cancelled)
// @Success      200 {object} ListResponse[tradeapp.BookingResponse]
// @Security     BearerAuth
// @Router       /bookings [get]
func (h *BookingHandler) ListMine(c *gin.Context) {
	var req tradeapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.bookingService.ListMine(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getBooking
// @Summary      Get booking
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.BookingResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	h.transition(c, h.bookingService.Get)
}

// Confirm godoc
// @ID           confirmBooking
// @Summary      Confirm booking
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.BookingResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, h.bookingService.Confirm)
}

// Complete godoc
// @ID           completeBooking
// @Summary      Complete booking
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.BookingResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, h.bookingService.Complete)
}

// Cancel godoc
// @ID           cancelBooking
// @Summary      Cancel booking
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.BookingResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, h.bookingService.Cancel)
}

func (h *BookingHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*tradeapp.BookingResponse, error)) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	booking, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, booking)
}

// OrderHandler handles product order HTTP requests
type OrderHandler struct {
	BaseHandler
	orderService *tradeapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *tradeapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create godoc
// @ID           createOrder
// @Summary      Order a product
// @Description  Place an order for a single product, reserving its stock
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateOrderRequest true "Order"
// @Success      201 {object} APIResponse[tradeapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req tradeapp.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// ListMine godoc
// @ID           listMyOrders
// @Summary      List my orders
// @Description  Clients see their purchases; sellers see orders of their products
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        status query string false "Status" Enums(pending, processing, shipped, delivered, cancelled)
// @Success      200 {object} ListResponse[tradeapp.OrderResponse]
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	var req tradeapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.orderService.ListMine(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getOrder
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	h.transition(c, h.orderService.Get)
}

// Process godoc
// @ID           processOrder
// @Summary      Start processing order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/process [post]
func (h *OrderHandler) Process(c *gin.Context) {
	h.transition(c, h.orderService.Process)
}

// Ship godoc
// @ID           shipOrder
// @Summary      Mark order shipped
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	h.transition(c, h.orderService.Ship)
}

// Deliver godoc
// @ID           deliverOrder
// @Summary      Mark order delivered
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.transition(c, h.orderService.Deliver)
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Cancel order
// @Description  Cancel a pending or processing order and release its stock
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.OrderResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.orderService.Cancel)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*tradeapp.OrderResponse, error)) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
