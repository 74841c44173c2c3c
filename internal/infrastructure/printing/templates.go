package printing

// Template names of the document layouts
const (
	TemplateSalesInvoice        = "sales_invoice"
	TemplatePayoutStatement     = "payout_statement"
	TemplateSubscriptionReceipt = "subscription_receipt"
	TemplateGeneric             = "generic"
)

// Shared fragments. Every layout renders exactly one item-row per line item;
// currency-prefixed amounts appear only in the totals block.
const baseTemplates = `
{{define "style"}}
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #1f2933; margin: 0; }
  .doc { padding: 24px; }
  .head { display: flex; justify-content: space-between; border-bottom: 2px solid #1f2933; padding-bottom: 12px; }
  .head h1 { margin: 0; font-size: 22px; letter-spacing: 1px; }
  .company img { max-height: 56px; }
  .muted { color: #616e7c; }
  .parties { display: flex; justify-content: space-between; margin: 18px 0; }
  table.items { width: 100%; border-collapse: collapse; }
  table.items th { text-align: left; background: #f5f7fa; padding: 6px; border-bottom: 1px solid #cbd2d9; }
  table.items td { padding: 6px; border-bottom: 1px solid #e4e7eb; }
  td.num, th.num { text-align: right; }
  table.totals { margin-left: auto; margin-top: 12px; min-width: 260px; }
  table.totals td { padding: 4px 6px; }
  tr.grand td { font-weight: bold; border-top: 1px solid #1f2933; }
  .notes { margin-top: 24px; }
  .notes h3 { margin: 12px 0 4px; font-size: 13px; }
</style>
{{end}}

{{define "header"}}
<div class="head">
  <div class="company">
    {{with .Company.LogoURL}}<img src="{{.}}" alt="logo">{{end}}
    {{with .Company.Name}}<div><strong>{{.}}</strong></div>{{end}}
    {{with .Company.Address}}<div class="muted">{{.}}</div>{{end}}
    {{with .Company.Email}}<div class="muted">{{.}}</div>{{end}}
    {{with .Company.Phone}}<div class="muted">{{.}}</div>{{end}}
    {{with .Company.Website}}<div class="muted">{{.}}</div>{{end}}
  </div>
  <div class="meta">
    <h1>{{upper .Title}}</h1>
    <div>No. {{.Doc.DocumentNumber}}</div>
    <div>Issued {{formatDate .Doc.IssueDate}}</div>
    {{with .Doc.DueDate}}<div>Due {{formatDate .}}</div>{{end}}
  </div>
</div>
{{end}}

{{define "billto"}}
{{if or .Doc.ClientName .Doc.ClientEmail .Doc.ClientPhone .Doc.ClientAddress}}
<div class="parties">
  <div class="client">
    <div class="muted">{{.PartyLabel}}</div>
    {{with .Doc.ClientName}}<div><strong>{{.}}</strong></div>{{end}}
    {{with .Doc.ClientEmail}}<div>{{.}}</div>{{end}}
    {{with .Doc.ClientPhone}}<div>{{.}}</div>{{end}}
    {{with .Doc.ClientAddress}}<div>{{.}}</div>{{end}}
  </div>
</div>
{{end}}
{{end}}

{{define "items"}}
<table class="items">
  <thead>
    <tr><th>Description</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Amount</th></tr>
  </thead>
  <tbody>
  {{range .Doc.LineItems}}
    <tr class="item-row">
      <td>{{.Name}}{{with .Description}}<div class="muted">{{.}}</div>{{end}}</td>
      <td class="num">{{formatQty .Quantity}}</td>
      <td class="num">{{amount .UnitPrice}}</td>
      <td class="num">{{amount .TotalPrice}}</td>
    </tr>
  {{end}}
  </tbody>
</table>
{{end}}

{{define "totals"}}
<table class="totals">
  <tr><td>{{.SubtotalLabel}}</td><td class="num">{{money .Currency .Doc.Subtotal}}</td></tr>
  {{if notZero .Doc.DiscountAmount}}<tr><td>{{.DiscountLabel}}</td><td class="num">-{{amount .Doc.DiscountAmount}}</td></tr>{{end}}
  {{if notZero .Doc.TaxAmount}}<tr><td>Tax</td><td class="num">{{amount .Doc.TaxAmount}}</td></tr>{{end}}
  <tr class="grand"><td>{{.TotalLabel}}</td><td class="num">{{money .Currency .Doc.TotalAmount}}</td></tr>
  {{if notZero .Doc.AmountPaid}}
  <tr><td>Amount paid</td><td class="num">{{amount .Doc.AmountPaid}}</td></tr>
  <tr><td>Balance due</td><td class="num">{{amount .Doc.BalanceDue}}</td></tr>
  {{end}}
</table>
{{end}}

{{define "notes"}}
{{if or .Doc.Notes .Doc.Terms .Doc.PaymentInstructions}}
<div class="notes">
  {{with .Doc.PaymentInstructions}}<h3>Payment instructions</h3><p>{{.}}</p>{{end}}
  {{with .Doc.Terms}}<h3>Terms</h3><p>{{.}}</p>{{end}}
  {{with .Doc.Notes}}<h3>Notes</h3><p>{{.}}</p>{{end}}
</div>
{{end}}
{{end}}

{{define "open"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{title .Title}} {{.Doc.DocumentNumber}}</title>
{{template "style"}}
</head>
<body>
<div class="doc {{.Layout}}">
{{end}}

{{define "close"}}
</div>
</body>
</html>
{{end}}
`

const salesInvoiceTemplate = `
{{define "sales_invoice"}}{{template "open" .}}
{{template "header" .}}
{{template "billto" .}}
{{template "items" .}}
{{template "totals" .}}
{{template "notes" .}}
{{template "close"}}{{end}}
`

const payoutStatementTemplate = `
{{define "payout_statement"}}{{template "open" .}}
{{template "header" .}}
{{template "billto" .}}
<p class="muted">Earnings settled for the period ending {{formatDate .Doc.IssueDate}}.</p>
{{template "items" .}}
{{template "totals" .}}
{{template "notes" .}}
{{template "close"}}{{end}}
`

const subscriptionReceiptTemplate = `
{{define "subscription_receipt"}}{{template "open" .}}
{{template "header" .}}
{{template "billto" .}}
{{template "items" .}}
{{template "totals" .}}
{{if and (notZero .Doc.AmountPaid) (not (notZero .Doc.BalanceDue))}}<p><strong>PAID</strong> {{formatDate .Doc.IssueDate}}</p>{{end}}
{{template "notes" .}}
{{template "close"}}{{end}}
`

const genericTemplate = `
{{define "generic"}}{{template "open" .}}
{{template "header" .}}
{{template "billto" .}}
{{template "items" .}}
{{template "totals" .}}
{{template "notes" .}}
{{template "close"}}{{end}}
`
