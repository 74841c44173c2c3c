package handler

import (
	"github.com/gin-gonic/gin"
	reviewapp "github.com/marketplace/backend/internal/application/review"
)

// ReviewHandler handles review HTTP requests
type ReviewHandler struct {
	BaseHandler
	reviewService *reviewapp.Service
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService *reviewapp.Service) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Create godoc
// @ID           createReview
// @Summary      Review a service
// @Description  Rate a service from 1 to 5. A referenced booking must be the caller's and completed.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        request body reviewapp.CreateReviewRequest true "Review"
// @Success      201 {object} APIResponse[reviewapp.ReviewResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var req reviewapp.CreateReviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, review)
}

// Reply godoc
// @ID           replyReview
// @Summary      Reply to a review
// @Description  The reviewed provider answers a review once
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        id path string true "Review ID" format(uuid)
// @Param        request body reviewapp.ReplyRequest true "Reply"
// @Success      200 {object} APIResponse[reviewapp.ReviewResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/reply [post]
func (h *ReviewHandler) Reply(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req reviewapp.ReplyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Reply(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, review)
}

// Delete godoc
// @ID           deleteReview
// @Summary      Delete my review
// @Tags         reviews
// @Param        id path string true "Review ID" format(uuid)
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.reviewService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListMine godoc
// @ID           listMyReviews
// @Summary      List my reviews
// @Description  Clients see reviews they wrote; providers see reviews they received
// @Tags         reviews
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} ListResponse[reviewapp.ReviewResponse]
// @Security     BearerAuth
// @Router       /reviews/mine [get]
func (h *ReviewHandler) ListMine(c *gin.Context) {
	var req reviewapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.reviewService.ListMine(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// ListForProvider godoc
// @ID           listProviderReviews
// @Summary      List reviews of a provider
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Provider ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} ListResponse[reviewapp.ReviewResponse]
// @Security     BearerAuth
// @Router       /providers/{id}/reviews [get]
func (h *ReviewHandler) ListForProvider(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req reviewapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.reviewService.ListForProvider(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Summary godoc
// @ID           providerReviewSummary
// @Summary      Provider rating summary
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Provider ID" format(uuid)
// @Success      200 {object} APIResponse[reviewapp.SummaryResponse]
// @Security     BearerAuth
// @Router       /providers/{id}/reviews/summary [get]
func (h *ReviewHandler) Summary(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	summary, err := h.reviewService.Summary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ListForService godoc
// @ID           listServiceReviews
// @Summary      List reviews of a service
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} ListResponse[reviewapp.ReviewResponse]
// @Security     BearerAuth
// @Router       /services/{id}/reviews [get]
func (h *ReviewHandler) ListForService(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req reviewapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.reviewService.ListForService(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}
