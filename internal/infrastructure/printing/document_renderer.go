package printing

import (
	"context"
	"html/template"

	"github.com/marketplace/backend/internal/domain/document"
)

// layout holds the labels a template family prints around the shared blocks
type layout struct {
	template      string
	partyLabel    string
	subtotalLabel string
	discountLabel string
	totalLabel    string
}

var (
	salesLayout = layout{
		template:      TemplateSalesInvoice,
		partyLabel:    "Bill to",
		subtotalLabel: "Subtotal",
		discountLabel: "Discount",
		totalLabel:    "Total",
	}
	payoutLayout = layout{
		template:      TemplatePayoutStatement,
		partyLabel:    "Payee",
		subtotalLabel: "Gross earnings",
		discountLabel: "Platform fees",
		totalLabel:    "Net payout",
	}
	subscriptionLayout = layout{
		template:      TemplateSubscriptionReceipt,
		partyLabel:    "Received from",
		subtotalLabel: "Subtotal",
		discountLabel: "Discount",
		totalLabel:    "Total charged",
	}
	genericLayout = layout{
		template:      TemplateGeneric,
		partyLabel:    "Recipient",
		subtotalLabel: "Subtotal",
		discountLabel: "Discount",
		totalLabel:    "Total",
	}
)

// layoutFor picks the template family for a document type. Unknown types
// fall back to the generic layout.
func layoutFor(t document.DocumentType) layout {
	switch t {
	case document.TypeInvoice, document.TypeQuotation, document.TypeCreditNote:
		return salesLayout
	case document.TypePayoutStatement:
		return payoutLayout
	case document.TypeReceipt, document.TypeSubscriptionReceipt:
		return subscriptionLayout
	default:
		return genericLayout
	}
}

// documentView is the data bound to every document template
type documentView struct {
	Doc           *document.FinancialDocument
	Company       document.CompanyInfo
	Title         string
	Currency      string
	Layout        string
	PartyLabel    string
	SubtotalLabel string
	DiscountLabel string
	TotalLabel    string
}

// DocumentRenderer renders financial documents to standalone HTML pages
type DocumentRenderer struct {
	engine *TemplateEngine
	tmpl   *template.Template
}

// NewDocumentRenderer compiles the document templates once
func NewDocumentRenderer(engine *TemplateEngine) (*DocumentRenderer, error) {
	if engine == nil {
		engine = NewTemplateEngine()
	}
	tmpl, err := engine.Parse("documents", baseTemplates)
	if err != nil {
		return nil, err
	}
	for _, content := range []string{salesInvoiceTemplate, payoutStatementTemplate, subscriptionReceiptTemplate, genericTemplate} {
		if _, err := tmpl.Parse(content); err != nil {
			return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse document template", err)
		}
	}
	return &DocumentRenderer{engine: engine, tmpl: tmpl}, nil
}

// MustDocumentRenderer is NewDocumentRenderer for the built-in templates,
// which always compile
func MustDocumentRenderer() *DocumentRenderer {
	r, err := NewDocumentRenderer(nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Render produces the HTML page for a document
func (r *DocumentRenderer) Render(ctx context.Context, doc *document.FinancialDocument, company document.CompanyInfo) (string, error) {
	if doc == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "document is required", nil)
	}
	l := layoutFor(doc.DocumentType)
	view := documentView{
		Doc:           doc,
		Company:       company,
		Title:         doc.DocumentType.Title(),
		Currency:      string(doc.CurrencyCode()),
		Layout:        l.template,
		PartyLabel:    l.partyLabel,
		SubtotalLabel: l.subtotalLabel,
		DiscountLabel: l.discountLabel,
		TotalLabel:    l.totalLabel,
	}
	return r.engine.Execute(ctx, r.tmpl, l.template, view)
}

// TemplateFor reports which template a document type renders with
func TemplateFor(t document.DocumentType) string {
	return layoutFor(t).template
}
