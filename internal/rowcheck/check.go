package rowcheck

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/internal/tabular"
)

// emailPattern is intentionally permissive, the goal is to catch typos like
// missing '@' or TLD, not to implement full RFC 5322 address parsing.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// FindingKind tells which check produced a finding.
type FindingKind string

const (
	KindEmail      FindingKind = "email"
	KindAttachment FindingKind = "attachment"
)

// Finding is one human-readable validation problem. RowDisplay is the row
// number as the user sees it in a spreadsheet, header included, so the first
// data row is 2.
type Finding struct {
	RowDisplay int         `json:"row"`
	Kind       FindingKind `json:"kind"`
	Message    string      `json:"message"`
}

// Checker runs per-row validations over an ingested table. Checks never
// mutate the table and never stop at the first problem, the caller gets the
// complete list.
type Checker struct {
	Columns    config.Columns
	Validation config.Validation
}

func NewChecker(cols config.Columns, val config.Validation) *Checker {
	return &Checker{
		Columns:    cols,
		Validation: val,
	}
}

// Emails checks every address in the to, cc and bcc columns. Multi-address
// cells are split on ';' or ',' and each piece is checked on its own. Blank
// cells pass, only the to column being mandatory is the schema check's job.
func (c *Checker) Emails(t *tabular.Table) []Finding {
	if !c.Validation.ValidateEmails {
		return nil
	}

	cols := []struct {
		label  string
		column string
	}{
		{label: "to", column: c.Columns.To},
		{label: "cc", column: c.Columns.CC},
		{label: "bcc", column: c.Columns.BCC},
	}

	var findings []Finding
	for idx, row := range t.Rows {
		for _, col := range cols {
			if col.column == "" || !t.HasColumn(col.column) {
				continue
			}

			for _, addr := range SplitAddresses(row.Get(col.column)) {
				if emailPattern.MatchString(addr) {
					continue
				}

				findings = append(findings, Finding{
					RowDisplay: idx + 2,
					Kind:       KindEmail,
					Message:    fmt.Sprintf("Row %d: invalid email in '%s': %s", idx+2, col.label, addr),
				})
			}
		}
	}

	return findings
}

// Attachments checks that every attachment token resolves to an existing
// file. Resolution uses the same rule as message assembly so a clean check
// guarantees the file the assembler will read.
func (c *Checker) Attachments(t *tabular.Table, basePath string) []Finding {
	if !c.Validation.CheckAttachments {
		return nil
	}
	if c.Columns.Attachment == "" || !t.HasColumn(c.Columns.Attachment) {
		return nil
	}

	var findings []Finding
	for idx, row := range t.Rows {
		for _, token := range SplitAddresses(row.Get(c.Columns.Attachment)) {
			path := mailfile.Resolve(token, basePath)
			_, err := os.Stat(path)
			if err == nil {
				continue
			}

			findings = append(findings, Finding{
				RowDisplay: idx + 2,
				Kind:       KindAttachment,
				Message:    fmt.Sprintf("Row %d: attachment not found: %s", idx+2, path),
			})
		}
	}

	return findings
}

// SplitAddresses splits a multi-value cell on ';' or ',' and trims each
// piece, dropping empties. The same splitter serves address and attachment
// cells.
func SplitAddresses(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}

	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ';' || r == ','
	})

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
