package emailunit

import (
	"fmt"
	"strings"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/tabular"
	"github.com/yusufsyaifudin/layang/pkg/validator"
)

// Grouper partitions validated rows into discrete email units: either one
// unit per row, or one unit per non-blank group key when the group column is
// present.
type Grouper struct {
	Columns       config.Columns `validate:"required"`
	SubjectSingle string         `validate:"required"`
	SubjectGroup  string         `validate:"required"`
}

func NewGrouper(columns config.Columns, subjectSingle, subjectGroup string) (*Grouper, error) {
	g := &Grouper{
		Columns:       columns,
		SubjectSingle: subjectSingle,
		SubjectGroup:  subjectGroup,
	}

	err := validator.Validate(g)
	if err != nil {
		err = fmt.Errorf("grouper config error: %w", err)
		return nil, err
	}

	return g, nil
}

// Units builds the unit list. Rows with a blank group value are never grouped,
// each becomes its own Single unit. Partition order follows first occurrence,
// member order follows original row order within the partition.
func (g *Grouper) Units(t *tabular.Table) []Unit {
	hasGroups := t.HasColumn(g.Columns.Group)

	if !hasGroups {
		units := make([]Unit, 0, t.Len())
		for _, row := range t.Rows {
			units = append(units, g.singleUnit(row))
		}

		return units
	}

	units := make([]Unit, 0, t.Len())
	groupIdx := map[string]int{} // group key -> index into units

	for _, row := range t.Rows {
		key := row.Get(g.Columns.Group)
		if key == "" {
			units = append(units, g.singleUnit(row))
			continue
		}

		idx, seen := groupIdx[key]
		if !seen {
			units = append(units, g.groupUnit(key, row))
			groupIdx[key] = len(units) - 1
			continue
		}

		g.appendMember(&units[idx], row)
	}

	// subjects for group units need the complete member list
	for i := range units {
		if units[i].Kind == KindGroup {
			units[i].Subject = g.groupSubject(units[i])
		}
	}

	return units
}

func (g *Grouper) singleUnit(row tabular.Row) Unit {
	entityName := row.Get(g.Columns.EntityName)
	invoiceNumber := row.Get(g.Columns.InvoiceNumber)

	// custom subject column, when populated, wins over the generated one
	subject := row.Get(g.Columns.Subject)
	if subject == "" {
		subject = g.singleSubject(entityName, invoiceNumber)
	}

	return Unit{
		Kind:          KindSingle,
		To:            row.Get(g.Columns.To),
		CC:            row.Get(g.Columns.CC),
		BCC:           row.Get(g.Columns.BCC),
		Subject:       subject,
		CustomMessage: row.Get(g.Columns.CustomMessage),
		Attachments:   g.parseAttachments(row),
		EntityName:    entityName,
		InvoiceNumber: invoiceNumber,
		Amount:        row.Get(g.Columns.Amount),
		DueDate:       row.Get(g.Columns.DueDate),
	}
}

// groupUnit starts a Group unit from its first member row. Recipient fields
// are taken from that row exactly, later members never contribute recipients.
func (g *Grouper) groupUnit(key string, first tabular.Row) Unit {
	unit := Unit{
		Kind:          KindGroup,
		To:            first.Get(g.Columns.To),
		CC:            first.Get(g.Columns.CC),
		BCC:           first.Get(g.Columns.BCC),
		CustomMessage: first.Get(g.Columns.CustomMessage),
		Attachments:   []string{},
		GroupName:     key,
		Invoices:      []Invoice{},
	}

	g.appendMember(&unit, first)
	return unit
}

func (g *Grouper) appendMember(unit *Unit, row tabular.Row) {
	unit.Invoices = append(unit.Invoices, Invoice{
		EntityName:    row.Get(g.Columns.EntityName),
		InvoiceNumber: row.Get(g.Columns.InvoiceNumber),
		Amount:        row.Get(g.Columns.Amount),
		DueDate:       row.Get(g.Columns.DueDate),
	})

	// attachment aggregation is plain concatenation, no dedup
	unit.Attachments = append(unit.Attachments, g.parseAttachments(row)...)
}

func (g *Grouper) singleSubject(entityName, invoiceNumber string) string {
	subject := strings.ReplaceAll(g.SubjectSingle, "{entity_name}", entityName)
	subject = strings.ReplaceAll(subject, "{invoice_number}", invoiceNumber)
	return subject
}

func (g *Grouper) groupSubject(unit Unit) string {
	numbers := make([]string, 0, len(unit.Invoices))
	for _, inv := range unit.Invoices {
		numbers = append(numbers, inv.InvoiceNumber)
	}

	subject := strings.ReplaceAll(g.SubjectGroup, "{group_name}", unit.GroupName)
	subject = strings.ReplaceAll(subject, "{invoice_numbers}", strings.Join(numbers, " / "))
	return subject
}

// parseAttachments splits the attachment cell on ';' or ',' into tokens.
func (g *Grouper) parseAttachments(row tabular.Row) []string {
	raw := row.Get(g.Columns.Attachment)
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(strings.ReplaceAll(raw, ";", ","), ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tokens = append(tokens, p)
		}
	}

	return tokens
}
