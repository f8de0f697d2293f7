package emailunit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/emailunit"
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

func newGrouper(t *testing.T) *emailunit.Grouper {
	g, err := emailunit.NewGrouper(testColumns(),
		config.DefaultSubjectSingle, config.DefaultSubjectGroup)
	require.NoError(t, err)
	return g
}

func row(kv map[string]string) tabular.Row {
	return tabular.Row(kv)
}

func TestGrouper_Units_NoGroupColumn(t *testing.T) {
	g := newGrouper(t)

	table := &tabular.Table{
		Columns: []string{"To", "Entity Name", "Invoice Number"},
		Rows: []tabular.Row{
			row(map[string]string{"To": "a@x.com", "Entity Name": "Acme", "Invoice Number": "0001"}),
			row(map[string]string{"To": "b@x.com", "Entity Name": "Beta", "Invoice Number": "0002"}),
		},
	}

	units := g.Units(table)
	require.Len(t, units, 2)
	assert.Equal(t, emailunit.KindSingle, units[0].Kind)
	assert.Equal(t, "Acme Invoice 0001", units[0].Subject)
	assert.Equal(t, "Beta Invoice 0002", units[1].Subject)
}

func TestGrouper_Units_Grouping(t *testing.T) {
	g := newGrouper(t)

	table := &tabular.Table{
		Columns: []string{"To", "CC", "Entity Name", "Invoice Number", "Group", "Attachment"},
		Rows: []tabular.Row{
			row(map[string]string{"To": "first@big.com", "CC": "cc@big.com", "Entity Name": "Big One",
				"Invoice Number": "0001", "Group": "BigCorp", "Attachment": "a.pdf"}),
			row(map[string]string{"To": "solo@x.com", "Entity Name": "Solo", "Invoice Number": "0002", "Group": ""}),
			row(map[string]string{"To": "second@big.com", "Entity Name": "Big Two",
				"Invoice Number": "0003", "Group": "BigCorp", "Attachment": "b.pdf;a.pdf"}),
		},
	}

	units := g.Units(table)
	require.Len(t, units, 2)

	group := units[0]
	assert.Equal(t, emailunit.KindGroup, group.Kind)
	assert.Equal(t, "BigCorp", group.GroupName)
	// recipients come from the first member row exactly
	assert.Equal(t, "first@big.com", group.To)
	assert.Equal(t, "cc@big.com", group.CC)
	// member order equals source row order
	require.Len(t, group.Invoices, 2)
	assert.Equal(t, "0001", group.Invoices[0].InvoiceNumber)
	assert.Equal(t, "0003", group.Invoices[1].InvoiceNumber)
	// concatenation without dedup
	assert.Equal(t, []string{"a.pdf", "b.pdf", "a.pdf"}, group.Attachments)
	assert.Equal(t, "BigCorp Invoices 0001 / 0003", group.Subject)

	single := units[1]
	assert.Equal(t, emailunit.KindSingle, single.Kind)
	assert.Equal(t, "Solo", single.EntityName)
}

func TestGrouper_Units_UnitCountProperty(t *testing.T) {
	g := newGrouper(t)

	// 2 distinct non-blank groups + 3 blank rows = 5 units
	table := &tabular.Table{
		Columns: []string{"To", "Entity Name", "Invoice Number", "Group"},
		Rows: []tabular.Row{
			row(map[string]string{"Group": "g1", "Invoice Number": "1"}),
			row(map[string]string{"Group": "", "Invoice Number": "2"}),
			row(map[string]string{"Group": "g2", "Invoice Number": "3"}),
			row(map[string]string{"Group": "g1", "Invoice Number": "4"}),
			row(map[string]string{"Group": "", "Invoice Number": "5"}),
			row(map[string]string{"Group": "", "Invoice Number": "6"}),
		},
	}

	units := g.Units(table)
	assert.Len(t, units, 5)
}

func TestGrouper_Units_CustomSubject(t *testing.T) {
	g := newGrouper(t)

	table := &tabular.Table{
		Columns: []string{"To", "Entity Name", "Invoice Number", "Subject"},
		Rows: []tabular.Row{
			row(map[string]string{"Entity Name": "Acme", "Invoice Number": "0001", "Subject": "Friendly reminder"}),
			row(map[string]string{"Entity Name": "Beta", "Invoice Number": "0002", "Subject": ""}),
		},
	}

	units := g.Units(table)
	require.Len(t, units, 2)
	assert.Equal(t, "Friendly reminder", units[0].Subject)
	assert.Equal(t, "Beta Invoice 0002", units[1].Subject)
}
