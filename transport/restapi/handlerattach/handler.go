package handlerattach

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yusufsyaifudin/ylog"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/svc/outboxsvc"
	"github.com/yusufsyaifudin/layang/pkg/respbuilder"
	"github.com/yusufsyaifudin/layang/pkg/validator"
	"github.com/yusufsyaifudin/layang/transport/restapi/httptyped"
)

const maxUploadBytes = 64 << 20

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

func (h *Handler) service() (outboxsvc.Service, error) {
	cfg := h.Config.ConfigStore.Snapshot()
	return outboxsvc.New(outboxsvc.DefaultServiceConfig{
		OutputDir:     cfg.Paths.Output,
		AttachmentDir: cfg.Paths.AttachmentBase,
	})
}

type UploadResp struct {
	File httptyped.FileEntity `json:"file"`
}

// Upload stores a file in the attachment library.
// Path         : POST /api/v1/attachments
// Request Body : multipart/form-data, field "file"
// Response     : UploadResp
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

		svc, err := h.service()
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		saveOut, err := svc.SaveAttachment(ctx, outboxsvc.InputSaveAttachment{
			FileName: header.Filename,
			Reader:   file,
		})
		if errors.Is(err, outboxsvc.ErrBadFileName) {
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		respBody := UploadResp{File: httptyped.FileEntityFromSvc(saveOut.Info)}
		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusCreated, w, r, resp)
	}

	return handler
}

type ListResp struct {
	Files []httptyped.FileEntity `json:"files"`
}

// List returns every file in the attachment library.
// Path     : GET /api/v1/attachments
// Response : ListResp
func (h *Handler) List() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		svc, err := h.service()
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		listOut, err := svc.ListAttachments(ctx, outboxsvc.InputListAttachments{})
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		respBody := ListResp{Files: httptyped.FileEntitiesFromSvc(listOut.Files)}
		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

type DeleteResp struct {
	Deleted string `json:"deleted"`
}

// Delete removes a file from the attachment library.
// Path     : DELETE /api/v1/attachments/{filename}
// Response : DeleteResp
func (h *Handler) Delete() func(http.ResponseWriter, *http.Request) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fileName := strings.TrimSpace(chi.URLParam(r, "filename"))

		svc, err := h.service()
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		delOut, err := svc.DeleteAttachment(ctx, outboxsvc.InputDeleteAttachment{FileName: fileName})
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

		respBody := DeleteResp{Deleted: delOut.Deleted}
		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}
