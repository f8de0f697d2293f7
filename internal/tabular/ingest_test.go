package tabular_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/tabular"
)

func testColumns() config.Columns {
	return config.Columns{
		To:            "To",
		CC:            "CC",
		BCC:           "BCC",
		EntityName:    "Entity Name",
		InvoiceNumber: "Invoice Number",
		Amount:        "Amount",
		DueDate:       "Due Date",
		Attachment:    "Attachment",
		Group:         "Group",
		Subject:       "Subject",
		CustomMessage: "Custom Message",
	}
}

func TestNewIngestor(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ing, err := tabular.NewIngestor(testColumns())
		assert.NotNil(t, ing)
		assert.NoError(t, err)
	})
}

func TestIngestor_Ingest(t *testing.T) {
	ing, err := tabular.NewIngestor(testColumns())
	require.NoError(t, err)

	t.Run("success with trimming and padding", func(t *testing.T) {
		in := strings.Join([]string{
			"To,Entity Name,Invoice Number,Amount",
			" a@example.com , Acme Corp ,0001,100.00",
			"b@example.com,BigCorp,0002", // short row, Amount padded to ""
		}, "\n")

		table, err := ing.Ingest(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, []string{"To", "Entity Name", "Invoice Number", "Amount"}, table.Columns)
		require.Equal(t, 2, table.Len())
		assert.Equal(t, "a@example.com", table.Rows[0].Get("To"))
		assert.Equal(t, "Acme Corp", table.Rows[0].Get("Entity Name"))
		assert.Equal(t, "", table.Rows[1].Get("Amount"))
	})

	t.Run("utf8 bom is skipped", func(t *testing.T) {
		in := "\xEF\xBB\xBFTo,Entity Name,Invoice Number\na@example.com,Acme,0001"

		table, err := ing.Ingest(strings.NewReader(in))
		require.NoError(t, err)
		assert.True(t, table.HasColumn("To"))
	})

	t.Run("empty input is a format error", func(t *testing.T) {
		_, err := ing.Ingest(strings.NewReader(""))
		assert.Error(t, err)

		var fmtErr *tabular.FormatError
		assert.ErrorAs(t, err, &fmtErr)
	})

	t.Run("unparseable csv is a format error", func(t *testing.T) {
		in := "To,Entity Name,Invoice Number\n\"unterminated,Acme,0001"

		_, err := ing.Ingest(strings.NewReader(in))
		var fmtErr *tabular.FormatError
		assert.ErrorAs(t, err, &fmtErr)
	})

	t.Run("missing mandatory columns is a schema error", func(t *testing.T) {
		in := "To,Amount\na@example.com,100.00"

		_, err := ing.Ingest(strings.NewReader(in))
		var schemaErr *tabular.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"Entity Name", "Invoice Number"}, schemaErr.Missing)
		assert.Contains(t, err.Error(), "Entity Name")
		assert.Contains(t, err.Error(), "available columns: To, Amount")
	})
}

func TestIngestor_IngestFile(t *testing.T) {
	ing, err := tabular.NewIngestor(testColumns())
	require.NoError(t, err)

	t.Run("not found", func(t *testing.T) {
		_, err := ing.IngestFile(filepath.Join(t.TempDir(), "nope.csv"))

		var nfErr *tabular.NotFoundError
		assert.ErrorAs(t, err, &nfErr)
	})

	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.csv")
		content := "To,Entity Name,Invoice Number\na@example.com,Acme,0001\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		table, err := ing.IngestFile(path)
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())
	})
}

func TestFromRecords(t *testing.T) {
	records := []map[string]string{
		{"To": " a@example.com ", "Entity Name": "Acme"},
		{"To": "b@example.com", "Invoice Number": "0002"},
	}

	table := tabular.FromRecords(records)
	assert.Equal(t, []string{"Entity Name", "Invoice Number", "To"}, table.Columns)
	assert.Equal(t, "a@example.com", table.Rows[0].Get("To"))
	// union column set, absent cells become empty string
	assert.Equal(t, "", table.Rows[0].Get("Invoice Number"))
	assert.Equal(t, "", table.Rows[1].Get("Entity Name"))
}
