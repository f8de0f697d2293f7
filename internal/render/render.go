package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/emailunit"
)

// FallbackRecipientName is used when no usable address exists to derive a
// display name from.
const FallbackRecipientName = "Valued Customer"

// RenderError wraps a template parse or execution failure. html/template
// errors already carry the source location (template name, line), which is
// preserved through Unwrap.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("template render error: %s", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// BodyContext is the full substitution contract offered to caller-supplied
// templates. Single units populate the entity/invoice fields, Group units
// populate GroupName and Invoices; both share the company block.
type BodyContext struct {
	CompanyName   string
	SenderName    string
	SenderTitle   string
	CurrentYear   int
	IsGroup       bool
	CustomMessage string
	Attachments   []string // basenames only, never full paths
	BannerPath    string   // set only when the configured banner file exists

	// Single
	EntityName    string
	InvoiceNumber string
	Amount        string
	DueDate       string
	RecipientName string

	// Group
	GroupName string
	Invoices  []emailunit.Invoice
}

// Renderer maps an email unit into a BodyContext and executes the
// caller-supplied template source against it.
type Renderer struct {
	Company config.Company
	Banner  string
	now     func() time.Time
}

func NewRenderer(company config.Company, banner string) *Renderer {
	return &Renderer{
		Company: company,
		Banner:  banner,
		now:     time.Now,
	}
}

// Render produces the HTML body for one unit. Any template failure comes back
// as *RenderError, content is never silently omitted.
func (r *Renderer) Render(tplSrc string, unit emailunit.Unit) (string, error) {
	tpl, err := template.New("email").Parse(tplSrc)
	if err != nil {
		return "", &RenderError{Err: err}
	}

	var buf bytes.Buffer
	err = tpl.Execute(&buf, r.Context(unit))
	if err != nil {
		return "", &RenderError{Err: err}
	}

	return buf.String(), nil
}

// Context builds the substitution context without rendering, also used by the
// template preview endpoint.
func (r *Renderer) Context(unit emailunit.Unit) BodyContext {
	ctx := BodyContext{
		CompanyName:   r.Company.Name,
		SenderName:    r.Company.SenderName,
		SenderTitle:   r.Company.SenderTitle,
		CurrentYear:   r.now().Year(),
		IsGroup:       unit.IsGroup(),
		CustomMessage: unit.CustomMessage,
	}

	if r.Banner != "" {
		if _, err := os.Stat(r.Banner); err == nil {
			ctx.BannerPath = r.Banner
		}
	}

	for _, att := range unit.Attachments {
		ctx.Attachments = append(ctx.Attachments, filepath.Base(att))
	}

	if unit.IsGroup() {
		ctx.GroupName = unit.GroupName
		ctx.Invoices = unit.Invoices
		return ctx
	}

	ctx.EntityName = unit.EntityName
	ctx.InvoiceNumber = unit.InvoiceNumber
	ctx.Amount = unit.Amount
	ctx.DueDate = unit.DueDate
	ctx.RecipientName = RecipientName(unit.To)
	return ctx
}

// RecipientName derives a display name from the first To address: the text
// before '@' with '.' and '_' turned into spaces and each word title-cased.
func RecipientName(to string) string {
	if to == "" || !strings.Contains(to, "@") {
		return FallbackRecipientName
	}

	first := to
	if idx := strings.IndexAny(first, ";,"); idx >= 0 {
		first = first[:idx]
	}

	first = strings.TrimSpace(first)
	local, _, found := strings.Cut(first, "@")
	if !found {
		return FallbackRecipientName
	}

	local = strings.ReplaceAll(local, ".", " ")
	local = strings.ReplaceAll(local, "_", " ")

	words := strings.Fields(local)
	if len(words) == 0 {
		return FallbackRecipientName
	}

	for i, w := range words {
		// Slice by rune, not byte, first letters can be multi-byte.
		r := []rune(w)
		words[i] = string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
	}

	return strings.Join(words, " ")
}
