package gensvc

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/emailunit"
	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/internal/render"
	"github.com/yusufsyaifudin/layang/internal/rowcheck"
	"github.com/yusufsyaifudin/layang/pkg/tracer"
	"github.com/yusufsyaifudin/layang/pkg/validator"
)

type DefaultServiceConfig struct {
	Columns    config.Columns       `validate:"required"`
	Validation config.Validation    `validate:"-"`
	Company    config.Company       `validate:"-"`
	Email      config.Email         `validate:"required"`
	Paths      config.Paths         `validate:"required"`
	Output     config.Output        `validate:"required"`
	Dispatcher *mailfile.Dispatcher `validate:"required"`
	Renderer   *render.Renderer     `validate:"required"`
	Grouper    *emailunit.Grouper   `validate:"required"`
	Checker    *rowcheck.Checker    `validate:"required"`
}

type DefaultService struct {
	Config DefaultServiceConfig
	now    func() time.Time
}

var _ Service = (*DefaultService)(nil)

func New(cfg DefaultServiceConfig) (*DefaultService, error) {
	err := validator.Validate(cfg)
	if err != nil {
		return nil, err
	}

	return &DefaultService{
		Config: cfg,
		now:    time.Now,
	}, nil
}

func (d *DefaultService) Validate(ctx context.Context, input InputValidate) (out *OutValidate, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "gensvc.Validate")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	findings := d.Config.Checker.Emails(input.Table)
	findings = append(findings, d.Config.Checker.Attachments(input.Table, d.Config.Paths.AttachmentBase)...)

	out = &OutValidate{
		Findings: findings,
		OK:       len(findings) == 0,
	}
	return
}

func (d *DefaultService) Generate(ctx context.Context, input InputGenerate) (out *OutGenerate, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "gensvc.Generate")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	units := d.Config.Grouper.Units(input.Table)

	out = &OutGenerate{
		Files: make([]GeneratedFile, 0, len(units)),
	}

	for i, unit := range units {
		file, format, unitErr := d.generateOne(ctx, input.Template, unit)
		if unitErr != nil {
			ylog.Error(ctx, "unit generation failed",
				ylog.KV("unit_index", i),
				ylog.KV("subject", unit.Subject),
				ylog.KV("error", unitErr.Error()),
			)

			out.Errors = append(out.Errors, UnitError{
				UnitIndex: i,
				Subject:   unit.Subject,
				Message:   unitErr.Error(),
			})
			continue
		}

		if format != mailfile.Format(d.Config.Email.Format) && d.Config.Email.Format == string(mailfile.FormatMSG) {
			ylog.Info(ctx, "native format unavailable, wrote portable file instead",
				ylog.KV("file", file),
			)
		}

		out.Files = append(out.Files, GeneratedFile{Path: file, Format: format})
	}

	out.Count = len(out.Files)
	return
}

func (d *DefaultService) generateOne(ctx context.Context, tpl string, unit emailunit.Unit) (string, mailfile.Format, error) {
	body, err := d.Config.Renderer.Render(tpl, unit)
	if err != nil {
		return "", "", fmt.Errorf("cannot render body: %w", err)
	}

	entity := unit.EntityName
	invoice := unit.InvoiceNumber
	if unit.IsGroup() {
		entity = unit.GroupName
		invoice = mailfile.GroupInvoiceLabel
	}

	ts := time.Time{}
	if d.Config.Output.Timestamp {
		ts = d.now()
	}

	name := mailfile.BuildFileName(d.Config.Output.FileNamePattern, entity, invoice, ts)
	if name == "" {
		name = "email"
	}

	msg := mailfile.Message{
		From:        d.Config.Email.From,
		To:          rowcheck.SplitAddresses(unit.To),
		CC:          rowcheck.SplitAddresses(unit.CC),
		BCC:         rowcheck.SplitAddresses(unit.BCC),
		Subject:     unit.Subject,
		HTMLBody:    body,
		Attachments: resolveAll(unit.Attachments, d.Config.Paths.AttachmentBase),
	}

	format := mailfile.Format(strings.ToLower(d.Config.Email.Format))
	path, used, err := d.Config.Dispatcher.Write(ctx, msg, filepath.Join(d.Config.Paths.Output, name), format)
	if err != nil {
		return "", "", fmt.Errorf("cannot write message file: %w", err)
	}

	return path, used, nil
}

func resolveAll(tokens []string, base string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, mailfile.Resolve(t, base))
	}
	return out
}
