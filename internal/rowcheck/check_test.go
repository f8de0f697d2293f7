package rowcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/tabular"
)

func testColumns() config.Columns {
	return config.Columns{
		To:            "email_to",
		CC:            "email_cc",
		BCC:           "email_bcc",
		EntityName:    "entity",
		InvoiceNumber: "invoice",
		Attachment:    "attachment",
	}
}

func TestSplitAddresses(t *testing.T) {
	assert.Nil(t, SplitAddresses(""))
	assert.Nil(t, SplitAddresses("  "))
	assert.Equal(t, []string{"a@x.com"}, SplitAddresses("a@x.com"))
	assert.Equal(t,
		[]string{"a@x.com", "b@x.com", "c@x.com"},
		SplitAddresses("a@x.com; b@x.com,c@x.com"),
	)
	assert.Equal(t, []string{"a@x.com"}, SplitAddresses("a@x.com;;,"))
}

func TestCheckerEmails(t *testing.T) {
	checker := NewChecker(testColumns(), config.Validation{ValidateEmails: true})

	table := &tabular.Table{
		Columns: []string{"email_to", "email_cc", "entity", "invoice"},
		Rows: []tabular.Row{
			{"email_to": "good@example.com", "email_cc": "also.good@example.co.uk"},
			{"email_to": "not-an-email"},
			{"email_to": "a@x.com; broken@", "email_cc": ""},
		},
	}

	findings := checker.Emails(table)
	require.Len(t, findings, 2)

	assert.Equal(t, 3, findings[0].RowDisplay)
	assert.Equal(t, KindEmail, findings[0].Kind)
	assert.Contains(t, findings[0].Message, "Row 3")
	assert.Contains(t, findings[0].Message, "not-an-email")

	assert.Equal(t, 4, findings[1].RowDisplay)
	assert.Contains(t, findings[1].Message, "broken@")
}

func TestCheckerEmailsDisabled(t *testing.T) {
	checker := NewChecker(testColumns(), config.Validation{ValidateEmails: false})
	table := &tabular.Table{
		Columns: []string{"email_to"},
		Rows:    []tabular.Row{{"email_to": "not-an-email"}},
	}
	assert.Empty(t, checker.Emails(table))
}

func TestCheckerAttachments(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "exists.pdf"), []byte("x"), 0o644)
	require.NoError(t, err)

	checker := NewChecker(testColumns(), config.Validation{CheckAttachments: true})

	table := &tabular.Table{
		Columns: []string{"email_to", "attachment"},
		Rows: []tabular.Row{
			{"attachment": "exists.pdf"},
			{"attachment": "exists.pdf; missing.pdf"},
			{"attachment": ""},
		},
	}

	findings := checker.Attachments(table, dir)
	require.Len(t, findings, 1)
	assert.Equal(t, 3, findings[0].RowDisplay)
	assert.Equal(t, KindAttachment, findings[0].Kind)
	assert.Contains(t, findings[0].Message, filepath.Join(dir, "missing.pdf"))
}

func TestCheckerAttachmentsDisabledOrNoColumn(t *testing.T) {
	table := &tabular.Table{
		Columns: []string{"email_to"},
		Rows:    []tabular.Row{{"email_to": "x@x.com"}},
	}

	t.Run("disabled", func(t *testing.T) {
		checker := NewChecker(testColumns(), config.Validation{CheckAttachments: false})
		assert.Empty(t, checker.Attachments(table, ""))
	})

	t.Run("column absent from table", func(t *testing.T) {
		checker := NewChecker(testColumns(), config.Validation{CheckAttachments: true})
		assert.Empty(t, checker.Attachments(table, ""))
	})
}
