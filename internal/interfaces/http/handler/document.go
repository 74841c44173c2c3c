package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	printingapp "github.com/marketplace/backend/internal/application/printing"
)

// DocumentHandler serves rendered financial documents
type DocumentHandler struct {
	BaseHandler
	documentService *printingapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *printingapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// ListDocuments godoc
// @ID           listDocuments
// @Summary      List my documents
// @Description  List the caller's financial documents, newest first
// @Tags         documents
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        type query string false "Document type" Enums(invoice, receipt, quotation, deposit_slip, payment_voucher, credit_note, delivery_note, payout_statement, subscription_receipt)
// @Success      200 {object} ListResponse[printingapp.DocumentSummaryResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var req printingapp.ListDocumentsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	page, err := h.documentService.ListDocuments(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Render godoc
// @ID           renderDocument
// @Summary      Render a document
// @Description  Render one of the caller's documents as HTML or PDF
// @Tags         documents
// @Accept       json
// @Produce      html
// @Produce      application/pdf
// @Param        request body printingapp.RenderDocumentRequest true "Document and format"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      501 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/render [post]
func (h *DocumentHandler) Render(c *gin.Context) {
	var req printingapp.RenderDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.render(c, req)
}

// RenderByID godoc
// @ID           renderDocumentByID
// @Summary      Render a document by id
// @Description  Render one of the caller's documents, suitable for links and iframes
// @Tags         documents
// @Produce      html
// @Produce      application/pdf
// @Param        id path string true "Document ID" format(uuid)
// @Param        format query string false "Output format" Enums(html, pdf) default(html)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      501 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/render [get]
func (h *DocumentHandler) RenderByID(c *gin.Context) {
	h.render(c, printingapp.RenderDocumentRequest{
		DocumentID: c.Param("id"),
		Format:     c.Query("format"),
	})
}

func (h *DocumentHandler) render(c *gin.Context, req printingapp.RenderDocumentRequest) {
	out, err := h.documentService.RenderDocument(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", out.Filename))
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, out.ContentType, out.Body)
}
