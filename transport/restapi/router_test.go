package restapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/internal/svc/tablesvc"
	"github.com/yusufsyaifudin/layang/pkg/cache"
)

func testTransport(t *testing.T) (*DefaultHTTP, string) {
	t.Helper()

	dir := t.TempDir()
	tplPath := filepath.Join(dir, "template.html")
	err := os.WriteFile(tplPath, []byte("<p>Dear {{.RecipientName}}, invoice {{.InvoiceNumber}}</p>"), 0o644)
	require.NoError(t, err)

	cfg := config.Config{
		Transport: config.Transport{HTTP: config.HTTPServer{Port: 8000}},
		Columns: config.Columns{
			To:            "email_to",
			EntityName:    "entity",
			InvoiceNumber: "invoice",
			Attachment:    "attachment",
			Group:         "group",
		},
		Validation: config.Validation{ValidateEmails: true, CheckAttachments: true},
		Company:    config.Company{Name: "Billing Dept"},
		Email:      config.Email{From: "billing@example.com", Format: "eml"},
		Paths: config.Paths{
			Template:       tplPath,
			Output:         filepath.Join(dir, "out"),
			AttachmentBase: filepath.Join(dir, "attachments"),
		},
	}
	cfg.ApplyDefaults()
	cfg.Email.Format = "eml"
	cfg.Output.Timestamp = false

	mem, err := cache.NewInMemory()
	require.NoError(t, err)

	tableSvc, err := tablesvc.New(tablesvc.DefaultServiceConfig{Cache: mem})
	require.NoError(t, err)

	transport, err := NewHTTPTransport(Config{
		AppServiceName: "layang-test",
		AppVersion:     "0.0.0",
		ConfigStore:    config.NewStore(filepath.Join(dir, "config.yml"), cfg),
		TableService:   tableSvc,
		Dispatcher:     mailfile.NewDispatcher(nil),
	})
	require.NoError(t, err)

	return transport, dir
}

func uploadCSV(t *testing.T, server http.Handler, csv string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "invoices.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, csv)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var envelope struct {
		TraceID string                 `json:"trace_id"`
		Data    map[string]interface{} `json:"data"`
	}
	err := json.Unmarshal(rec.Body.Bytes(), &envelope)
	require.NoError(t, err, "body: %s", rec.Body.String())
	assert.NotEmpty(t, envelope.TraceID)
	return envelope.Data
}

func TestUploadGetValidateGenerateFlow(t *testing.T) {
	transport, dir := testTransport(t)
	server := transport.Server()

	csv := "email_to,entity,invoice,group\n" +
		"ap@bigcorp.com,BigCorp East,INV-1,BigCorp\n" +
		"other@bigcorp.com,BigCorp West,INV-2,BigCorp\n" +
		"solo@acme.com,Acme Corp,0001,\n"

	rec := uploadCSV(t, server, csv)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, float64(3), data["row_count"])

	// current rows
	req := httptest.NewRequest(http.MethodGet, "/api/v1/csv", nil)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// validation passes, all addresses are fine
	req = httptest.NewRequest(http.MethodPost, "/api/v1/csv/validate", nil)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeData(t, rec)
	assert.Equal(t, true, data["ok"])

	// generate: 2 grouped rows + 1 single row = 2 files
	req = httptest.NewRequest(http.MethodPost, "/api/v1/generate", nil)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data = decodeData(t, rec)
	assert.Equal(t, float64(2), data["count"])

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// outbox sees them
	req = httptest.NewRequest(http.MethodGet, "/api/v1/emails", nil)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeData(t, rec)
	assert.Equal(t, float64(2), data["total"])

	// stats agree
	req = httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeData(t, rec)
	assert.Equal(t, float64(2), data["email_count"])
}

func TestValidateReportsBadEmail(t *testing.T) {
	transport, _ := testTransport(t)
	server := transport.Server()

	csv := "email_to,entity,invoice\n" +
		"good@example.com,Acme,1\n" +
		"not-an-email,Beta,2\n"

	rec := uploadCSV(t, server, csv)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/csv/validate", nil)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, false, data["ok"])

	findings, ok := data["findings"].([]interface{})
	require.True(t, ok)
	require.Len(t, findings, 1)
	finding := findings[0].(map[string]interface{})
	assert.Contains(t, finding["message"], "Row 3")
	assert.Contains(t, finding["message"], "not-an-email")
}

func TestEndpointsWithoutTable(t *testing.T) {
	transport, _ := testTransport(t)
	server := transport.Server()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/api/v1/csv"},
		{method: http.MethodPost, path: "/api/v1/csv/validate"},
		{method: http.MethodPost, path: "/api/v1/generate"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNotFound, rec.Code)

			var envelope struct {
				Err struct {
					Code string `json:"error_code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.Equal(t, "04", envelope.Err.Code)
		})
	}
}

func TestUploadRejectsMissingColumns(t *testing.T) {
	transport, _ := testTransport(t)
	server := transport.Server()

	rec := uploadCSV(t, server, "foo,bar\n1,2\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope struct {
		Err struct {
			Code  string `json:"error_code"`
			Debug string `json:"debug"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "02", envelope.Err.Code)
	assert.Contains(t, envelope.Err.Debug, "missing required columns")
}

func TestConfigRoundTripAndTemplate(t *testing.T) {
	transport, dir := testTransport(t)
	server := transport.Server()

	// read config
	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data config.Config `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	cfg := envelope.Data
	assert.Equal(t, "email_to", cfg.Columns.To)

	// change and persist
	cfg.Company.Name = "New Name"
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	raw, err := os.ReadFile(filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "New Name")

	// template preview with explicit source
	preview := `{"source": "<b>{{.CompanyName}}</b>", "group": false}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/template/preview", bytes.NewReader([]byte(preview)))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "<b>New Name</b>", data["html"])

	// broken template source is rejected
	req = httptest.NewRequest(http.MethodPut, "/api/v1/template", bytes.NewReader([]byte(`{"source": "{{.Broken"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
