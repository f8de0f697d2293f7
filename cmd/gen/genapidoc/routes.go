package genapidoc

import (
	"context"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/internal/svc/gensvc"
	"github.com/yusufsyaifudin/layang/internal/svc/outboxsvc"
	"github.com/yusufsyaifudin/layang/transport/restapi/handlerattach"
	"github.com/yusufsyaifudin/layang/transport/restapi/handlercfg"
	"github.com/yusufsyaifudin/layang/transport/restapi/handlercsv"
	"github.com/yusufsyaifudin/layang/transport/restapi/handlergen"
	"github.com/yusufsyaifudin/layang/transport/restapi/handleroutbox"
	"github.com/yusufsyaifudin/layang/transport/restapi/httptyped"
)

func samplePreview() httptyped.TablePreview {
	return httptyped.TablePreview{
		TableID:  "491740618503749634",
		FileName: "invoices.csv",
		Columns:  []string{"email_to", "entity", "invoice"},
		Rows: []map[string]string{
			{"email_to": "jane@example.com", "entity": "Example Ltd", "invoice": "INV-1001"},
		},
		RowCount: 1,
	}
}

func sampleFiles() []httptyped.FileEntity {
	return []httptyped.FileEntity{
		{Name: "Example_Ltd_INV-1001.eml", Size: 2048, ModTime: time.Now()},
	}
}

// CsvRoutes
// POST|GET|PUT /api/v1/csv, POST /api/v1/csv/validate
func CsvRoutes(ctx context.Context, components openapi3.Components, paths map[string]*openapi3.PathItem) {
	register(ctx, components, paths, operation{
		Method:   http.MethodPost,
		Route:    "/api/v1/csv",
		Tag:      "CSV",
		Summary:  "Upload and ingest a CSV file (multipart field 'file')",
		Name:     "CsvUpload",
		Response: samplePreview(),
		Status:   http.StatusCreated,
	})

	register(ctx, components, paths, operation{
		Method:   http.MethodGet,
		Route:    "/api/v1/csv",
		Tag:      "CSV",
		Summary:  "Current working rows",
		Name:     "CsvGet",
		Response: samplePreview(),
	})

	register(ctx, components, paths, operation{
		Method:  http.MethodPut,
		Route:   "/api/v1/csv",
		Tag:     "CSV",
		Summary: "Replace rows from the editor",
		Name:    "CsvReplace",
		Request: handlercsv.ReplaceReq{
			Rows: []map[string]string{
				{"email_to": "jane@example.com", "entity": "Example Ltd", "invoice": "INV-1001"},
			},
		},
		Response: samplePreview(),
	})

	register(ctx, components, paths, operation{
		Method:  http.MethodPost,
		Route:   "/api/v1/csv/validate",
		Tag:     "CSV",
		Summary: "Run email and attachment checks",
		Name:    "CsvValidate",
		Response: handlercsv.ValidateResp{
			OK: false,
			Findings: []httptyped.FindingEntity{
				{Row: 3, Kind: "email", Message: "Row 3: invalid email in 'to': not-an-email"},
			},
		},
	})
}

// ConfigRoutes
// GET|PUT /api/v1/config
func ConfigRoutes(ctx context.Context, components openapi3.Components, paths map[string]*openapi3.PathItem) {
	sample := config.Config{}
	sample.ApplyDefaults()

	register(ctx, components, paths, operation{
		Method:   http.MethodGet,
		Route:    "/api/v1/config",
		Tag:      "Config",
		Summary:  "Current configuration",
		Name:     "ConfigGet",
		Response: sample,
	})

	register(ctx, components, paths, operation{
		Method:   http.MethodPut,
		Route:    "/api/v1/config",
		Tag:      "Config",
		Summary:  "Replace configuration and persist it to the YAML file",
		Name:     "ConfigPut",
		Request:  sample,
		Response: sample,
	})
}

// TemplateRoutes
// GET|PUT /api/v1/template, POST /api/v1/template/preview
func TemplateRoutes(ctx context.Context, components openapi3.Components, paths map[string]*openapi3.PathItem) {
	register(ctx, components, paths, operation{
		Method:   http.MethodGet,
		Route:    "/api/v1/template",
		Tag:      "Template",
		Summary:  "Current body template source",
		Name:     "TemplateGet",
		Response: handlercfg.TemplateResp{Source: "<p>Dear {{.RecipientName}},</p>"},
	})

	register(ctx, components, paths, operation{
		Method:   http.MethodPut,
		Route:    "/api/v1/template",
		Tag:      "Template",
		Summary:  "Replace the body template after a parse check",
		Name:     "TemplatePut",
		Request:  handlercfg.PutTemplateReq{Source: "<p>Dear {{.RecipientName}},</p>"},
		Response: handlercfg.TemplateResp{Source: "<p>Dear {{.RecipientName}},</p>"},
	})

	register(ctx, components, paths, operation{
		Method:   http.MethodPost,
		Route:    "/api/v1/template/preview",
		Tag:      "Template",
		Summary:  "Render template source against a sample unit",
		Name:     "TemplatePreview",
		Request:  handlercfg.PreviewReq{Source: "<p>Dear {{.RecipientName}},</p>", Group: false},
		Response: handlercfg.PreviewResp{HTML: "<p>Dear Jane Doe,</p>"},
	})
}

// GenerateRoutes
// POST /api/v1/generate
func GenerateRoutes(ctx context.Context, components openapi3.Components, paths map[string]*openapi3.PathItem) {
	register(ctx, components, paths, operation{
		Method:  http.MethodPost,
		Route:   "/api/v1/generate",
		Tag:     "Generate",
		Summary: "Generate one message file per email unit from the session table",
		Name:    "Generate",
		Response: handlergen.GenerateResp{
			Count: 1,
			Files: []gensvc.GeneratedFile{
				{Path: "Example_Ltd_INV-1001.eml", Format: mailfile.FormatEML},
			},
		},
	})
}

// OutboxRoutes
// GET /api/v1/emails..., GET /api/v1/stats
func OutboxRoutes(ctx context.Context, components openapi3.Components, paths map[string]*openapi3.PathItem) {
	register(ctx, components, paths, operation{
		Method:   http.MethodGet,
		Route:    "/api/v1/emails",
		Tag:      "Outbox",
		Summary:  "List generated message files, newest first",
		Name:     "EmailList",
		Response: handleroutbox.ListResp{Files: sampleFiles(), Total: 1},
	})

	register(ctx, components, paths, operation{
		Method:  http.MethodGet,
		Route:   "/api/v1/emails/{filename}",
		Tag:     "Outbox",
		Summary: "Headers, attachments and body preview of one message file",
		Name:    "EmailDetail",
		Response: outboxsvc.OutDetail{
			FileName:    "Example_Ltd_INV-1001.eml",
			Subject:     "Example Ltd Invoice INV-1001",
			From:        "billing@example.com",
			To:          "jane@example.com",
			HTMLBody:    "<p>Dear Jane Doe,</p>",
			Attachments: []string{"INV-1001.pdf"},
		},
	})

	register(ctx, components, paths, operation{
		Method:      http.MethodGet,
		Route:       "/api/v1/emails/{filename}/download",
		Tag:         "Outbox",
		Summary:     "Download one message file",
		Name:        "EmailDownload",
		RawResponse: true,
	})

	register(ctx, components, paths, operation{
		Method:      http.MethodGet,
		Route:       "/api/v1/emails/download-all/zip",
		Tag:         "Outbox",
		Summary:     "Download every message file as a zip archive",
		Name:        "EmailZip",
		RawResponse: true,
	})

	register(ctx, components, paths, operation{
		Method:  http.MethodGet,
		Route:   "/api/v1/stats",
		Tag:     "Outbox",
		Summary: "Outbox and attachment library summary",
		Name:    "Stats",
		Response: outboxsvc.OutStats{
			EmailCount:      12,
			AttachmentCount: 4,
			TotalSizeBytes:  1 << 20,
		},
	})
}

// AttachmentRoutes
// POST|GET /api/v1/attachments, DELETE /api/v1/attachments/{filename}
func AttachmentRoutes(ctx context.Context, components openapi3.Components, paths map[string]*openapi3.PathItem) {
	register(ctx, components, paths, operation{
		Method:   http.MethodPost,
		Route:    "/api/v1/attachments",
		Tag:      "Attachments",
		Summary:  "Upload a file to the attachment library (multipart field 'file')",
		Name:     "AttachmentUpload",
		Response: handlerattach.UploadResp{File: sampleFiles()[0]},
		Status:   http.StatusCreated,
	})

	register(ctx, components, paths, operation{
		Method:   http.MethodGet,
		Route:    "/api/v1/attachments",
		Tag:      "Attachments",
		Summary:  "List the attachment library",
		Name:     "AttachmentList",
		Response: handlerattach.ListResp{Files: sampleFiles()},
	})

	register(ctx, components, paths, operation{
		Method:   http.MethodDelete,
		Route:    "/api/v1/attachments/{filename}",
		Tag:      "Attachments",
		Summary:  "Delete a file from the attachment library",
		Name:     "AttachmentDelete",
		Response: handlerattach.DeleteResp{Deleted: "INV-1001.pdf"},
	})
}
