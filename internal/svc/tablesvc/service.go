package tablesvc

import (
	"context"

	"github.com/yusufsyaifudin/layang/internal/tabular"
)

// DefaultSessionID serves the single-user UI, which never sends an explicit
// session.
const DefaultSessionID = "default"

// Service keeps the working table between an upload and the calls that use
// it. Tables are replaced wholesale, per-cell edits go through Update with
// the full row set from the editor.
type Service interface {
	Put(ctx context.Context, input InputPut) (out *OutPut, err error)
	Get(ctx context.Context, input InputGet) (out *OutGet, err error)
	Update(ctx context.Context, input InputUpdate) (out *OutUpdate, err error)
	Meta(ctx context.Context, input InputMeta) (out *OutMeta, err error)
}

type InputPut struct {
	SessionID string         `validate:"required"`
	Table     *tabular.Table `validate:"required"`

	// FileName is the original upload name, kept for display only.
	FileName string
}

type OutPut struct {
	SessionID string `json:"session_id"`
	TableID   string `json:"table_id"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
}

type InputGet struct {
	SessionID string `validate:"required"`
}

type OutGet struct {
	Table    *tabular.Table `json:"table"`
	TableID  string         `json:"table_id"`
	FileName string         `json:"file_name,omitempty"`
}

type InputUpdate struct {
	SessionID string              `validate:"required"`
	Records   []map[string]string `validate:"required"`
}

type OutUpdate struct {
	Table   *tabular.Table `json:"table"`
	TableID string         `json:"table_id"`
}

type InputMeta struct {
	SessionID string `validate:"required"`
}

type OutMeta struct {
	TableID  string   `json:"table_id"`
	FileName string   `json:"file_name,omitempty"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
}
