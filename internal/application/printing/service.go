// Package printing renders the caller's financial documents to HTML or PDF.
package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/document"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	infra "github.com/marketplace/backend/internal/infrastructure/printing"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Content types of rendered output
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypePDF  = "application/pdf"
)

var (
	// ErrDocumentNotFound hides whether a document is missing or owned by someone else
	ErrDocumentNotFound = shared.NewDomainError("NOT_FOUND", "Document not found")
	// ErrInvalidDocumentID is returned for malformed document ids
	ErrInvalidDocumentID = shared.NewDomainError("INVALID_DOCUMENT_ID", "Document id must be a UUID")
	// ErrPDFDisabled is returned when PDF output is requested without a PDF backend
	ErrPDFDisabled = shared.NewDomainError("NOT_IMPLEMENTED", "PDF output is not enabled")
)

// HTMLRenderer turns a financial document into a complete HTML page
type HTMLRenderer interface {
	Render(ctx context.Context, doc *document.FinancialDocument, company document.CompanyInfo) (string, error)
}

// RenderObserver is notified once per render attempt
type RenderObserver func(format string, err error)

// DocumentService renders financial documents for their owner
type DocumentService struct {
	documents     document.Repository
	html          HTMLRenderer
	pdf           infra.PDFRenderer
	company       document.CompanyInfo
	renderTimeout time.Duration
	observe       RenderObserver
	logger        *zap.Logger
}

// ServiceOption configures a DocumentService
type ServiceOption func(*DocumentService)

// WithPDFRenderer enables PDF output
func WithPDFRenderer(pdf infra.PDFRenderer, timeout time.Duration) ServiceOption {
	return func(s *DocumentService) {
		s.pdf = pdf
		s.renderTimeout = timeout
	}
}

// WithRenderObserver registers a callback for render outcomes
func WithRenderObserver(observe RenderObserver) ServiceOption {
	return func(s *DocumentService) {
		if observe != nil {
			s.observe = observe
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *DocumentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(documents document.Repository, html HTMLRenderer, company document.CompanyInfo, opts ...ServiceOption) *DocumentService {
	s := &DocumentService{
		documents: documents,
		html:      html,
		company:   company,
		observe:   func(string, error) {},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PDFEnabled reports whether PDF output is available
func (s *DocumentService) PDFEnabled() bool {
	return s.pdf != nil
}

// RenderDocument renders one of the caller's documents in the requested format.
// A document that does not exist and one owned by another user produce the
// same not-found error.
func (s *DocumentService) RenderDocument(ctx context.Context, req RenderDocumentRequest) (*RenderedDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "render",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, req.DocumentID))
	defer span.End()

	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(strings.TrimSpace(req.DocumentID))
	if err != nil {
		return nil, ErrInvalidDocumentID
	}
	format, err := document.ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrDocumentFormat, string(format))

	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !doc.IsOwnedBy(me.UserID) {
		s.logger.Debug("document requested by non-owner",
			zap.String("document_id", id.String()),
			zap.String("user_id", me.UserID.String()))
		return nil, ErrDocumentNotFound
	}

	if format == document.FormatPDF && s.pdf == nil {
		s.observe(string(format), ErrPDFDisabled)
		return nil, ErrPDFDisabled
	}

	out, err := s.render(ctx, doc, format)
	s.observe(string(format), err)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("document render failed",
			zap.String("document_id", id.String()),
			zap.String("format", string(format)),
			zap.Error(err))
		return nil, err
	}
	telemetry.SetOK(span)
	return out, nil
}

func (s *DocumentService) render(ctx context.Context, doc *document.FinancialDocument, format document.Format) (*RenderedDocument, error) {
	html, err := s.html.Render(ctx, doc, s.company)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	out := &RenderedDocument{
		DocumentID: doc.ID,
		Format:     format,
		Filename:   filename(doc, format),
	}
	if format == document.FormatHTML {
		out.ContentType = ContentTypeHTML
		out.Body = []byte(html)
		out.PageCount = 1
		return out, nil
	}

	result, err := s.pdf.Render(ctx, &infra.RenderRequest{
		HTML:    html,
		Title:   fmt.Sprintf("%s %s", doc.DocumentType.Title(), doc.DocumentNumber),
		Timeout: s.renderTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	out.ContentType = ContentTypePDF
	out.Body = result.PDFData
	out.PageCount = result.PageCount
	return out, nil
}

// ListDocuments returns the caller's documents, newest first
func (s *DocumentService) ListDocuments(ctx context.Context, req ListDocumentsRequest) (*shared.Paginated[DocumentSummaryResponse], error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}

	filter := shared.DefaultFilter().
		WithPage(req.Page, req.PageSize).
		WithOrder("issue_date", "").
		Where("document_type", req.DocumentType)

	docs, total, err := s.documents.FindByOwner(ctx, me.UserID, filter)
	if err != nil {
		return nil, err
	}
	items := lo.Map(docs, func(d document.FinancialDocument, _ int) DocumentSummaryResponse {
		return ToDocumentSummaryResponse(&d)
	})
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func filename(doc *document.FinancialDocument, format document.Format) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.TrimSpace(doc.DocumentNumber))
	if name == "" {
		name = doc.ID.String()
	}
	return fmt.Sprintf("%s-%s.%s", doc.DocumentType, name, format)
}
