package handleroutbox

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"github.com/yusufsyaifudin/ylog"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/svc/outboxsvc"
	"github.com/yusufsyaifudin/layang/pkg/respbuilder"
	"github.com/yusufsyaifudin/layang/pkg/validator"
	"github.com/yusufsyaifudin/layang/transport/restapi/httptyped"
)

type HandlerConfig struct {
	ConfigStore *config.Store `validate:"required"`
}

type Handler struct {
	Config       HandlerConfig
	queryDecoder *schema.Decoder
}

func NewHandler(conf HandlerConfig) (*Handler, error) {
	err := validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	queryDecoder := schema.NewDecoder()
	queryDecoder.IgnoreUnknownKeys(true)

	return &Handler{
		Config:       conf,
		queryDecoder: queryDecoder,
	}, nil
}

// service rebuilds the outbox view from the current config so a changed
// output directory is picked up without restart.
func (h *Handler) service() (outboxsvc.Service, error) {
	cfg := h.Config.ConfigStore.Snapshot()
	return outboxsvc.New(outboxsvc.DefaultServiceConfig{
		OutputDir:     cfg.Paths.Output,
		AttachmentDir: cfg.Paths.AttachmentBase,
	})
}

type ListQuery struct {
	Limit int `schema:"limit"`
}

type ListResp struct {
	Files []httptyped.FileEntity `json:"files"`
	Total int                    `json:"total"`
}

// List returns generated message files, newest first.
// Path     : GET /api/v1/emails?limit=N
// Response : ListResp
func (h *Handler) List() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var query ListQuery
		err := h.queryDecoder.Decode(&query, r.URL.Query())
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		svc, err := h.service()
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		listOut, err := svc.List(ctx, outboxsvc.InputList{Limit: query.Limit})
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		respBody := ListResp{
			Files: httptyped.FileEntitiesFromSvc(listOut.Files),
			Total: listOut.Total,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

// Detail re-parses one message file for preview.
// Path     : GET /api/v1/emails/{filename}
// Response : outboxsvc.OutDetail
func (h *Handler) Detail() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fileName := strings.TrimSpace(chi.URLParam(r, "filename"))
		if !utf8.ValidString(fileName) {
			err := fmt.Errorf("file name '%s' is not valid utf8", fileName)
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		svc, err := h.service()
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		detailOut, err := svc.Detail(ctx, outboxsvc.InputDetail{FileName: fileName})
		if errors.Is(err, outboxsvc.ErrFileNotFound) || errors.Is(err, outboxsvc.ErrBadFileName) {
			resp := respbuilder.Error(ctx, respbuilder.ErrResourceNotFound, err)
			respbuilder.WriteJSON(http.StatusNotFound, w, r, resp)
			return
		}
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		resp := respbuilder.Success(ctx, detailOut)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

// Download streams one message file as an attachment.
// Path : GET /api/v1/emails/{filename}/download
func (h *Handler) Download() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fileName := strings.TrimSpace(chi.URLParam(r, "filename"))

		svc, err := h.service()
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		openOut, err := svc.OpenFile(ctx, outboxsvc.InputOpenFile{FileName: fileName})
		if errors.Is(err, outboxsvc.ErrFileNotFound) || errors.Is(err, outboxsvc.ErrBadFileName) {
			resp := respbuilder.Error(ctx, respbuilder.ErrResourceNotFound, err)
			respbuilder.WriteJSON(http.StatusNotFound, w, r, resp)
			return
		}
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		defer func() {
			if _err := openOut.Reader.Close(); _err != nil {
				ylog.Error(ctx, "cannot close file", ylog.KV("error", _err))
			}
		}()

		w.Header().Set("Content-Type", "message/rfc822")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
		_, err = io.Copy(w, openOut.Reader)
		if err != nil {
			ylog.Error(ctx, "cannot stream file", ylog.KV("file", fileName), ylog.KV("error", err))
		}
	}

	return handler
}

// ZipAll streams every message file as one zip archive.
// Path : GET /api/v1/emails/download-all/zip
func (h *Handler) ZipAll() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		svc, err := h.service()
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		zipOut, err := svc.Zip(ctx, outboxsvc.InputZip{})
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		defer func() {
			if _err := zipOut.Reader.Close(); _err != nil {
				ylog.Error(ctx, "cannot close zip stream", ylog.KV("error", _err))
			}
		}()

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", zipOut.FileName))
		_, err = io.Copy(w, zipOut.Reader)
		if err != nil {
			ylog.Error(ctx, "cannot stream zip", ylog.KV("error", err))
		}
	}

	return handler
}

// Stats summarizes the outbox and attachment library.
// Path     : GET /api/v1/stats
// Response : outboxsvc.OutStats
func (h *Handler) Stats() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		svc, err := h.service()
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		statsOut, err := svc.Stats(ctx, outboxsvc.InputStats{})
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		resp := respbuilder.Success(ctx, statsOut)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}
