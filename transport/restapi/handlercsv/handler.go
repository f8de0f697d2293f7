package handlercsv

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ylog"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/rowcheck"
	"github.com/yusufsyaifudin/layang/internal/svc/tablesvc"
	"github.com/yusufsyaifudin/layang/internal/tabular"
	"github.com/yusufsyaifudin/layang/pkg/respbuilder"
	"github.com/yusufsyaifudin/layang/pkg/validator"
	"github.com/yusufsyaifudin/layang/transport/restapi/httptyped"
)

// maxUploadBytes caps a CSV upload. Invoice sheets are small, anything over
// this is a mistake.
const maxUploadBytes = 16 << 20

type HandlerConfig struct {
	ConfigStore  *config.Store    `validate:"required"`
	TableService tablesvc.Service `validate:"required"`
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

// Upload ingests a CSV file and stores it as the session's working table.
// Path         : POST /api/v1/csv
// Request Body : multipart/form-data, field "file"
// Response     : httptyped.TablePreview
func (h *Handler) Upload() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		err := r.ParseMultipartForm(maxUploadBytes)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, fmt.Errorf("cannot parse multipart form: %w", err))
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, fmt.Errorf("missing form field 'file': %w", err))
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		defer func() {
			if _err := file.Close(); _err != nil {
				ylog.Error(ctx, "cannot close uploaded file", ylog.KV("error", _err))
			}
		}()

		cfg := h.Config.ConfigStore.Snapshot()
		ingestor, err := tabular.NewIngestor(cfg.Columns)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		table, err := ingestor.Ingest(file)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		err = ingestor.CheckSchema(table)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		putOut, err := h.Config.TableService.Put(ctx, tablesvc.InputPut{
			SessionID: tablesvc.DefaultSessionID,
			Table:     table,
			FileName:  header.Filename,
		})
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		respBody := httptyped.TablePreviewFromTable(putOut.TableID, header.Filename, table)
		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusCreated, w, r, resp)
	}

	return handler
}

// Get returns the session's working table for the editor.
// Path     : GET /api/v1/csv
// Response : httptyped.TablePreview
func (h *Handler) Get() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		getOut, err := h.Config.TableService.Get(ctx, tablesvc.InputGet{
			SessionID: tablesvc.DefaultSessionID,
		})
		if errors.Is(err, tablesvc.ErrNoTable) {
			resp := respbuilder.Error(ctx, respbuilder.ErrNoTableLoaded, err)
			respbuilder.WriteJSON(http.StatusNotFound, w, r, resp)
			return
		}
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		respBody := httptyped.TablePreviewFromTable(getOut.TableID, getOut.FileName, getOut.Table)
		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type ReplaceReq struct {
	Rows []map[string]string `json:"rows"`
}

// Replace overwrites the session's rows with the editor's current state.
// Path         : PUT /api/v1/csv
// Request Body : ReplaceReq
// Response     : httptyped.TablePreview
func (h *Handler) Replace() func(http.ResponseWriter, *http.Request) {
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

		var reqBody ReplaceReq
		dec := json.NewDecoder(r.Body)
		err := dec.Decode(&reqBody)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		updOut, err := h.Config.TableService.Update(ctx, tablesvc.InputUpdate{
			SessionID: tablesvc.DefaultSessionID,
			Records:   reqBody.Rows,
		})
		if errors.Is(err, tablesvc.ErrNoTable) {
			resp := respbuilder.Error(ctx, respbuilder.ErrNoTableLoaded, err)
			respbuilder.WriteJSON(http.StatusNotFound, w, r, resp)
			return
		}
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		respBody := httptyped.TablePreviewFromTable(updOut.TableID, "", updOut.Table)
		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type ValidateResp struct {
	OK       bool                      `json:"ok"`
	Findings []httptyped.FindingEntity `json:"findings"`
}

// Validate runs the email and attachment checks over the session's table.
// Path     : POST /api/v1/csv/validate
// Response : ValidateResp
func (h *Handler) Validate() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		getOut, err := h.Config.TableService.Get(ctx, tablesvc.InputGet{
			SessionID: tablesvc.DefaultSessionID,
		})
		if errors.Is(err, tablesvc.ErrNoTable) {
			resp := respbuilder.Error(ctx, respbuilder.ErrNoTableLoaded, err)
			respbuilder.WriteJSON(http.StatusNotFound, w, r, resp)
			return
		}
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		cfg := h.Config.ConfigStore.Snapshot()
		checker := rowcheck.NewChecker(cfg.Columns, cfg.Validation)

		findings := checker.Emails(getOut.Table)
		findings = append(findings, checker.Attachments(getOut.Table, cfg.Paths.AttachmentBase)...)

		respBody := ValidateResp{
			OK:       len(findings) == 0,
			Findings: httptyped.FindingEntities(findings),
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}
