package handlercfg

import (
	"fmt"
	"net/http"
	"os"

	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ylog"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/emailunit"
	"github.com/yusufsyaifudin/layang/internal/render"
	"github.com/yusufsyaifudin/layang/pkg/respbuilder"
	"github.com/yusufsyaifudin/layang/pkg/validator"
)

type HandlerConfig struct {
	ConfigStore *config.Store `validate:"required"`
}

type Handler struct {
	Config HandlerConfig
}

func NewHandler(conf HandlerConfig) (*Handler, error) {
	err := validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	return &Handler{Config: conf}, nil
}

// GetConfig returns the live configuration.
// Path     : GET /api/v1/config
// Response : config.Config
func (h *Handler) GetConfig() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		resp := respbuilder.Success(ctx, h.Config.ConfigStore.Snapshot())
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

// PutConfig replaces the configuration and persists it to the YAML file.
// Path         : PUT /api/v1/config
// Request Body : config.Config
// Response     : config.Config (with defaults applied)
func (h *Handler) PutConfig() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Body == nil {
			err := fmt.Errorf("request body is nil")
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		defer func() {
			if _err := r.Body.Close(); _err != nil {
				ylog.Error(ctx, "cannot close request body", ylog.KV("error", _err))
			}
		}()

		var reqBody config.Config
		dec := json.NewDecoder(r.Body)
		err := dec.Decode(&reqBody)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		reqBody.ApplyDefaults()
		err = validator.Validate(reqBody)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		err = h.Config.ConfigStore.Replace(reqBody)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		resp := respbuilder.Success(ctx, h.Config.ConfigStore.Snapshot())
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type TemplateResp struct {
	Source string `json:"source"`
}

// GetTemplate returns the current body template source.
// Path     : GET /api/v1/template
// Response : TemplateResp
func (h *Handler) GetTemplate() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cfg := h.Config.ConfigStore.Snapshot()
		src, err := os.ReadFile(cfg.Paths.Template)
		if err != nil {
			err = fmt.Errorf("cannot read template %s: %w", cfg.Paths.Template, err)
			resp := respbuilder.Error(ctx, respbuilder.ErrResourceNotFound, err)
			respbuilder.WriteJSON(http.StatusNotFound, w, r, resp)
			return
		}

		resp := respbuilder.Success(ctx, TemplateResp{Source: string(src)})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type PutTemplateReq struct {
	Source string `json:"source"`
}

// PutTemplate overwrites the body template source after a parse check, a
// template that cannot even parse never reaches disk.
// Path         : PUT /api/v1/template
// Request Body : PutTemplateReq
// Response     : TemplateResp
func (h *Handler) PutTemplate() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Body == nil {
			err := fmt.Errorf("request body is nil")
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		defer func() {
			if _err := r.Body.Close(); _err != nil {
				ylog.Error(ctx, "cannot close request body", ylog.KV("error", _err))
			}
		}()

		var reqBody PutTemplateReq
		dec := json.NewDecoder(r.Body)
		err := dec.Decode(&reqBody)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		cfg := h.Config.ConfigStore.Snapshot()

		renderer := render.NewRenderer(cfg.Company, cfg.Paths.Banner)
		_, err = renderer.Render(reqBody.Source, sampleUnit())
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		err = os.WriteFile(cfg.Paths.Template, []byte(reqBody.Source), 0o644)
		if err != nil {
			err = fmt.Errorf("cannot write template %s: %w", cfg.Paths.Template, err)
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		resp := respbuilder.Success(ctx, TemplateResp{Source: reqBody.Source})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type PreviewReq struct {
	Source string `json:"source"`
	Group  bool   `json:"group"`
}

type PreviewResp struct {
	HTML string `json:"html"`
}

// PreviewTemplate renders template source against a sample unit without
// touching the stored template.
// Path         : POST /api/v1/template/preview
// Request Body : PreviewReq
// Response     : PreviewResp
func (h *Handler) PreviewTemplate() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Body == nil {
			err := fmt.Errorf("request body is nil")
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		defer func() {
			if _err := r.Body.Close(); _err != nil {
				ylog.Error(ctx, "cannot close request body", ylog.KV("error", _err))
			}
		}()

		var reqBody PreviewReq
		dec := json.NewDecoder(r.Body)
		err := dec.Decode(&reqBody)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		cfg := h.Config.ConfigStore.Snapshot()

		src := reqBody.Source
		if src == "" {
			raw, readErr := os.ReadFile(cfg.Paths.Template)
			if readErr != nil {
				readErr = fmt.Errorf("cannot read template %s: %w", cfg.Paths.Template, readErr)
				resp := respbuilder.Error(ctx, respbuilder.ErrResourceNotFound, readErr)
				respbuilder.WriteJSON(http.StatusNotFound, w, r, resp)
				return
			}
			src = string(raw)
		}

		unit := sampleUnit()
		if reqBody.Group {
			unit = sampleGroupUnit()
		}

		renderer := render.NewRenderer(cfg.Company, cfg.Paths.Banner)
		html, err := renderer.Render(src, unit)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		resp := respbuilder.Success(ctx, PreviewResp{HTML: html})
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

func sampleUnit() emailunit.Unit {
	return emailunit.Unit{
		Kind:          emailunit.KindSingle,
		To:            "jane.doe@example.com",
		Subject:       "Example Ltd Invoice INV-1001",
		EntityName:    "Example Ltd",
		InvoiceNumber: "INV-1001",
		Amount:        "1,250.00",
		DueDate:       "2024-12-31",
		Attachments:   []string{"INV-1001.pdf"},
	}
}

func sampleGroupUnit() emailunit.Unit {
	return emailunit.Unit{
		Kind:      emailunit.KindGroup,
		To:        "billing@example.com",
		Subject:   "Example Group Invoices INV-1001 / INV-1002",
		GroupName: "Example Group",
		Invoices: []emailunit.Invoice{
			{EntityName: "Example East", InvoiceNumber: "INV-1001", Amount: "1,250.00", DueDate: "2024-12-31"},
			{EntityName: "Example West", InvoiceNumber: "INV-1002", Amount: "800.00", DueDate: "2024-12-31"},
		},
		Attachments: []string{"INV-1001.pdf", "INV-1002.pdf"},
	}
}
