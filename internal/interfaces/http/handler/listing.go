package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/marketplace/backend/internal/application/catalog"
)

// ListingHandler handles service listing HTTP requests
type ListingHandler struct {
	BaseHandler
	listingService *catalogapp.ListingService
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(listingService *catalogapp.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// Browse godoc
// @ID           browseServices
// @Summary      Browse services
// @Description  List active services from every provider
// @Tags         services
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        search query string false "Search term"
// @Param        category query string false "Category"
// @Param        order_by query string false "Sort field" Enums(name, price, created_at, updated_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} ListResponse[catalogapp.ServiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services [get]
func (h *ListingHandler) Browse(c *gin.Context) {
	var req catalogapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.listingService.Browse(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// ListMine godoc
// @ID           listMyServices
// @Summary      List my services
// @Description  List the calling provider's services in any status
// @Tags         services
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        search query string false "Search term"
// @Param        status query string false "Status" Enums(active, inactive)
// @Success      200 {object} ListResponse[catalogapp.ServiceResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /provider/services [get]
func (h *ListingHandler) ListMine(c *gin.Context) {
	var req catalogapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.listingService.ListMine(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// GetByID godoc
// @ID           getService
// @Summary      Get service
// @Tags         services
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ServiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services/{id} [get]
func (h *ListingHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	svc, err := h.listingService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, svc)
}

// Create godoc
// @ID           createService
// @Summary      Create service
// @Description  Publish a new service owned by the calling provider
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateServiceRequest true "Service"
// @Success      201 {object} APIResponse[catalogapp.ServiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /provider/services [post]
func (h *ListingHandler) Create(c *gin.Context) {
	var req catalogapp.CreateServiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	svc, err := h.listingService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, svc)
}

// Update godoc
// @ID           updateService
// @Summary      Update service
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Param        request body catalogapp.UpdateServiceRequest true "Service"
// @Success      200 {object} APIResponse[catalogapp.ServiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /provider/services/{id} [put]
func (h *ListingHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateServiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	svc, err := h.listingService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, svc)
}

// ToggleStatus godoc
// @ID           toggleServiceStatus
// @Summary      Toggle service status
// @Description  Switch a service between active and inactive
// @Tags         services
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ServiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /provider/services/{id}/toggle [post]
func (h *ListingHandler) ToggleStatus(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	svc, err := h.listingService.ToggleStatus(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, svc)
}

// Delete godoc
// @ID           deleteService
// @Summary      Delete service
// @Tags         services
// @Param        id path string true "Service ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /provider/services/{id} [delete]
func (h *ListingHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.listingService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
