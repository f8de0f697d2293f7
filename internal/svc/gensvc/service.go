package gensvc

import (
	"context"

	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/internal/rowcheck"
	"github.com/yusufsyaifudin/layang/internal/tabular"
)

// Service .
type Service interface {
	// Validate runs the address and attachment checks over the table and
	// reports every finding. It never blocks generation by itself, the
	// caller decides whether findings are fatal.
	Validate(ctx context.Context, input InputValidate) (out *OutValidate, err error)

	// Generate runs the full pipeline: group rows into units, render each
	// body and write each message file. Units are processed in order and
	// one failing unit never aborts its siblings.
	Generate(ctx context.Context, input InputGenerate) (out *OutGenerate, err error)
}

type InputValidate struct {
	Table *tabular.Table `validate:"required"`
}

type OutValidate struct {
	Findings []rowcheck.Finding `json:"findings"`
	OK       bool               `json:"ok"`
}

type InputGenerate struct {
	Table *tabular.Table `validate:"required"`

	// Template is the HTML body template source for this run.
	Template string `validate:"required"`
}

// GeneratedFile is one written message file with the format that was
// actually used, which may differ from the configured one after fallback.
type GeneratedFile struct {
	Path   string          `json:"path"`
	Format mailfile.Format `json:"format"`
}

// UnitError is a failure of one unit, siblings keep going.
type UnitError struct {
	UnitIndex int    `json:"unit_index"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

type OutGenerate struct {
	Files  []GeneratedFile `json:"files"`
	Count  int             `json:"count"`
	Errors []UnitError     `json:"errors,omitempty"`
}
