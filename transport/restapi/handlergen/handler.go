package handlergen

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/emailunit"
	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/internal/render"
	"github.com/yusufsyaifudin/layang/internal/rowcheck"
	"github.com/yusufsyaifudin/layang/internal/svc/gensvc"
	"github.com/yusufsyaifudin/layang/internal/svc/tablesvc"
	"github.com/yusufsyaifudin/layang/pkg/respbuilder"
	"github.com/yusufsyaifudin/layang/pkg/validator"
)

type HandlerConfig struct {
	ConfigStore  *config.Store        `validate:"required"`
	TableService tablesvc.Service     `validate:"required"`
	Dispatcher   *mailfile.Dispatcher `validate:"required"`
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

type GenerateResp struct {
	Count  int                    `json:"count"`
	Files  []gensvc.GeneratedFile `json:"files"`
	Errors []gensvc.UnitError     `json:"errors,omitempty"`
}

// Generate runs the full pipeline over the session's table.
// Path     : POST /api/v1/generate
// Response : GenerateResp
func (h *Handler) Generate() func(http.ResponseWriter, *http.Request) {
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

		tplSrc, err := os.ReadFile(cfg.Paths.Template)
		if err != nil {
			err = fmt.Errorf("cannot read template %s: %w", cfg.Paths.Template, err)
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		svc, err := buildService(cfg, h.Config.Dispatcher)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		genOut, err := svc.Generate(ctx, gensvc.InputGenerate{
			Table:    getOut.Table,
			Template: string(tplSrc),
		})
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		// Return bare names, the outbox endpoints address files by name.
		files := make([]gensvc.GeneratedFile, 0, len(genOut.Files))
		for _, f := range genOut.Files {
			files = append(files, gensvc.GeneratedFile{
				Path:   filepath.Base(f.Path),
				Format: f.Format,
			})
		}

		respBody := GenerateResp{
			Count:  genOut.Count,
			Files:  files,
			Errors: genOut.Errors,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}

	return handler
}

// buildService assembles the pipeline from a config snapshot, so config
// edits apply to the next generate call without restart.
func buildService(cfg config.Config, dispatcher *mailfile.Dispatcher) (gensvc.Service, error) {
	grouper, err := emailunit.NewGrouper(cfg.Columns, cfg.Email.SubjectSingle, cfg.Email.SubjectGroup)
	if err != nil {
		return nil, err
	}

	return gensvc.New(gensvc.DefaultServiceConfig{
		Columns:    cfg.Columns,
		Validation: cfg.Validation,
		Company:    cfg.Company,
		Email:      cfg.Email,
		Paths:      cfg.Paths,
		Output:     cfg.Output,
		Dispatcher: dispatcher,
		Renderer:   render.NewRenderer(cfg.Company, cfg.Paths.Banner),
		Grouper:    grouper,
		Checker:    rowcheck.NewChecker(cfg.Columns, cfg.Validation),
	})
}
