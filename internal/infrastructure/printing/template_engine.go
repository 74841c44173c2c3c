package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateEngine handles rendering HTML templates with document data.
// It uses Go's html/template package so every interpolated field is escaped.
type TemplateEngine struct {
	funcMap template.FuncMap
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithFuncs registers extra template functions
func WithFuncs(funcs template.FuncMap) TemplateEngineOption {
	return func(e *TemplateEngine) {
		maps.Copy(e.funcMap, funcs)
	}
}

// NewTemplateEngine creates a new template engine with default configuration
func NewTemplateEngine(opts ...TemplateEngineOption) *TemplateEngine {
	e := &TemplateEngine{}

	e.funcMap = template.FuncMap{
		// Money formatting
		"money":  formatMoney,
		"amount": formatAmount,

		// Date formatting
		"formatDate": formatDate,

		// Number formatting
		"formatQty": formatQuantity,

		// String utilities
		"upper": strings.ToUpper,
		"title": titleCase,
		"trim":  strings.TrimSpace,

		// Conditional
		"notZero": notZero,
		"isNeg":   isNegative,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Parse compiles a named template set with the engine functions
func (e *TemplateEngine) Parse(name, content string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
	}
	return tmpl, nil
}

// Execute runs a named template of a compiled set
func (e *TemplateEngine) Execute(ctx context.Context, tmpl *template.Template, name string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewRenderError(ErrCodeRenderTimeout, "rendering cancelled", err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// RenderString renders a template from a string (for ad hoc fragments)
func (e *TemplateEngine) RenderString(ctx context.Context, name, content string, data any) (string, error) {
	tmpl, err := e.Parse(name, content)
	if err != nil {
		return "", err
	}
	return e.Execute(ctx, tmpl, name, data)
}

// GetFuncMap returns a copy of the function map
func (e *TemplateEngine) GetFuncMap() template.FuncMap {
	return maps.Clone(e.funcMap)
}

// formatMoney prefixes the currency code, e.g. "USD 1,200.00"
func formatMoney(currency string, v any) string {
	return valueobject.MustMoney(toDecimal(v), valueobject.ParseCurrency(currency)).Format()
}

// formatAmount formats a value with two decimals and thousand separators
func formatAmount(v any) string {
	return valueobject.GroupThousands(toDecimal(v))
}

// formatQuantity drops trailing zeros: 1 stays "1", 1.50 becomes "1.5"
func formatQuantity(v any) string {
	return toDecimal(v).String()
}

func formatDate(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func notZero(v any) bool {
	return !toDecimal(v).IsZero()
}

func isNegative(v any) bool {
	return toDecimal(v).IsNegative()
}

func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	case fmt.Stringer:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	}
	return time.Time{}
}
