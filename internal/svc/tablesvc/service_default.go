package tablesvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/sonyflake"
	"go.opentelemetry.io/otel/trace"

	"github.com/yusufsyaifudin/layang/internal/tabular"
	"github.com/yusufsyaifudin/layang/pkg/cache"
	"github.com/yusufsyaifudin/layang/pkg/tracer"
	"github.com/yusufsyaifudin/layang/pkg/validator"
)

// ErrNoTable means the session has no table yet: nothing was uploaded or the
// entry expired.
var ErrNoTable = errors.New("no table loaded for session")

// sessionEntry is the stored value, table plus upload metadata.
type sessionEntry struct {
	TableID  string         `json:"table_id"`
	FileName string         `json:"file_name,omitempty"`
	Table    *tabular.Table `json:"table"`
}

type DefaultServiceConfig struct {
	Cache cache.Cache `validate:"required"`

	// TTL bounds how long an uploaded table may sit unused. Zero keeps it
	// until replaced or evicted by the backend.
	TTL time.Duration
}

type DefaultService struct {
	Config DefaultServiceConfig
	flake  *sonyflake.Sonyflake
}

var _ Service = (*DefaultService)(nil)

func New(cfg DefaultServiceConfig) (*DefaultService, error) {
	err := validator.Validate(cfg)
	if err != nil {
		return nil, err
	}

	flake := sonyflake.NewSonyflake(sonyflake.Settings{})
	if flake == nil {
		return nil, fmt.Errorf("cannot initialize id generator")
	}

	return &DefaultService{
		Config: cfg,
		flake:  flake,
	}, nil
}

func (d *DefaultService) Put(ctx context.Context, input InputPut) (out *OutPut, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "tablesvc.Put")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	id, err := d.flake.NextID()
	if err != nil {
		err = fmt.Errorf("cannot generate table id: %w", err)
		return
	}

	entry := sessionEntry{
		TableID:  fmt.Sprintf("%d", id),
		FileName: input.FileName,
		Table:    input.Table,
	}

	err = d.Config.Cache.SetExp(ctx, sessionKey(input.SessionID), entry, d.Config.TTL)
	if err != nil {
		err = fmt.Errorf("cannot store table: %w", err)
		return
	}

	out = &OutPut{
		SessionID: input.SessionID,
		TableID:   entry.TableID,
		Rows:      input.Table.Len(),
		Columns:   len(input.Table.Columns),
	}
	return
}

func (d *DefaultService) Get(ctx context.Context, input InputGet) (out *OutGet, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "tablesvc.Get")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	entry, err := d.load(ctx, input.SessionID)
	if err != nil {
		return
	}

	out = &OutGet{
		Table:    entry.Table,
		TableID:  entry.TableID,
		FileName: entry.FileName,
	}
	return
}

func (d *DefaultService) Update(ctx context.Context, input InputUpdate) (out *OutUpdate, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "tablesvc.Update")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	entry, err := d.load(ctx, input.SessionID)
	if err != nil {
		return
	}

	table := tabular.FromRecords(input.Records)
	entry.Table = table

	err = d.Config.Cache.SetExp(ctx, sessionKey(input.SessionID), entry, d.Config.TTL)
	if err != nil {
		err = fmt.Errorf("cannot store table: %w", err)
		return
	}

	out = &OutUpdate{
		Table:   table,
		TableID: entry.TableID,
	}
	return
}

func (d *DefaultService) Meta(ctx context.Context, input InputMeta) (out *OutMeta, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "tablesvc.Meta")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	entry, err := d.load(ctx, input.SessionID)
	if err != nil {
		return
	}

	out = &OutMeta{
		TableID:  entry.TableID,
		FileName: entry.FileName,
		Rows:     entry.Table.Len(),
		Columns:  entry.Table.Columns,
	}
	return
}

func (d *DefaultService) load(ctx context.Context, sessionID string) (sessionEntry, error) {
	var entry sessionEntry
	err := d.Config.Cache.GetAs(ctx, sessionKey(sessionID), &entry)
	if errors.Is(err, cache.ErrKeyNotExist) {
		return sessionEntry{}, ErrNoTable
	}
	if err != nil {
		return sessionEntry{}, fmt.Errorf("cannot load table: %w", err)
	}
	if entry.Table == nil {
		return sessionEntry{}, ErrNoTable
	}
	return entry, nil
}

func sessionKey(sessionID string) string {
	return "session:table:" + sessionID
}
