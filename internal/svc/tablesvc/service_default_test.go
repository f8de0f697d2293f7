package tablesvc

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufsyaifudin/layang/internal/tabular"
	"github.com/yusufsyaifudin/layang/pkg/cache"
)

func testTableSvc(t *testing.T) *DefaultService {
	t.Helper()

	mem, err := cache.NewInMemory()
	require.NoError(t, err)

	svc, err := New(DefaultServiceConfig{Cache: mem})
	require.NoError(t, err)
	return svc
}

func sampleTable() *tabular.Table {
	return &tabular.Table{
		Columns: []string{"email_to", "entity", "invoice"},
		Rows: []tabular.Row{
			{"email_to": "a@example.com", "entity": "Acme", "invoice": "1"},
			{"email_to": "b@example.com", "entity": "Beta", "invoice": "2"},
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	svc := testTableSvc(t)
	ctx := context.Background()

	put, err := svc.Put(ctx, InputPut{
		SessionID: DefaultSessionID,
		Table:     sampleTable(),
		FileName:  "invoices.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, put.Rows)
	assert.Equal(t, 3, put.Columns)
	assert.NotEmpty(t, put.TableID)

	got, err := svc.Get(ctx, InputGet{SessionID: DefaultSessionID})
	require.NoError(t, err)
	assert.Equal(t, put.TableID, got.TableID)
	assert.Equal(t, "invoices.csv", got.FileName)
	assert.Equal(t, sampleTable(), got.Table)
}

func TestPutGetLargeTable(t *testing.T) {
	svc := testTableSvc(t)
	ctx := context.Background()

	// A few thousand rows serialize to well over 64KB.
	big := &tabular.Table{Columns: []string{"email_to", "entity", "invoice"}}
	for i := 0; i < 3000; i++ {
		big.Rows = append(big.Rows, tabular.Row{
			"email_to": fmt.Sprintf("customer%d@example.com", i),
			"entity":   fmt.Sprintf("Entity %d International Holdings", i),
			"invoice":  fmt.Sprintf("INV-%06d", i),
		})
	}

	put, err := svc.Put(ctx, InputPut{SessionID: DefaultSessionID, Table: big})
	require.NoError(t, err)
	assert.Equal(t, 3000, put.Rows)

	got, err := svc.Get(ctx, InputGet{SessionID: DefaultSessionID})
	require.NoError(t, err)
	require.Equal(t, 3000, got.Table.Len())
	assert.Equal(t, "customer2999@example.com", got.Table.Rows[2999].Get("email_to"))
}

func TestGetWithoutUpload(t *testing.T) {
	svc := testTableSvc(t)

	_, err := svc.Get(context.Background(), InputGet{SessionID: "empty"})
	assert.ErrorIs(t, err, ErrNoTable)

	_, err = svc.Meta(context.Background(), InputMeta{SessionID: "empty"})
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestPutReplacesWholesale(t *testing.T) {
	svc := testTableSvc(t)
	ctx := context.Background()

	first, err := svc.Put(ctx, InputPut{SessionID: DefaultSessionID, Table: sampleTable()})
	require.NoError(t, err)

	second, err := svc.Put(ctx, InputPut{
		SessionID: DefaultSessionID,
		Table: &tabular.Table{
			Columns: []string{"email_to"},
			Rows:    []tabular.Row{{"email_to": "only@example.com"}},
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.TableID, second.TableID)

	got, err := svc.Get(ctx, InputGet{SessionID: DefaultSessionID})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Table.Len())
}

func TestUpdateKeepsTableID(t *testing.T) {
	svc := testTableSvc(t)
	ctx := context.Background()

	put, err := svc.Put(ctx, InputPut{SessionID: DefaultSessionID, Table: sampleTable()})
	require.NoError(t, err)

	upd, err := svc.Update(ctx, InputUpdate{
		SessionID: DefaultSessionID,
		Records: []map[string]string{
			{"email_to": "fixed@example.com", "entity": "Acme", "invoice": "1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, put.TableID, upd.TableID)
	assert.Equal(t, 1, upd.Table.Len())
	assert.Equal(t, "fixed@example.com", upd.Table.Rows[0].Get("email_to"))
}

func TestUpdateWithoutUpload(t *testing.T) {
	svc := testTableSvc(t)

	_, err := svc.Update(context.Background(), InputUpdate{
		SessionID: "empty",
		Records:   []map[string]string{{"email_to": "x@example.com"}},
	})
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestMeta(t *testing.T) {
	svc := testTableSvc(t)
	ctx := context.Background()

	_, err := svc.Put(ctx, InputPut{SessionID: DefaultSessionID, Table: sampleTable(), FileName: "x.csv"})
	require.NoError(t, err)

	meta, err := svc.Meta(ctx, InputMeta{SessionID: DefaultSessionID})
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Rows)
	assert.Equal(t, []string{"email_to", "entity", "invoice"}, meta.Columns)
	assert.Equal(t, "x.csv", meta.FileName)
}
