// Package httptyped holds the entities shared by REST handlers, so the wire
// shape stays independent from the service layer structs.
package httptyped

import (
	"time"

	"github.com/yusufsyaifudin/layang/internal/rowcheck"
	"github.com/yusufsyaifudin/layang/internal/svc/outboxsvc"
	"github.com/yusufsyaifudin/layang/internal/tabular"
)

// TablePreview is the editor payload: columns in order plus every row as a
// plain map.
type TablePreview struct {
	TableID  string              `json:"table_id"`
	FileName string              `json:"file_name,omitempty"`
	Columns  []string            `json:"columns"`
	Rows     []map[string]string `json:"rows"`
	RowCount int                 `json:"row_count"`
}

func TablePreviewFromTable(tableID, fileName string, t *tabular.Table) TablePreview {
	rows := make([]map[string]string, 0, t.Len())
	for _, row := range t.Rows {
		rows = append(rows, map[string]string(row))
	}

	return TablePreview{
		TableID:  tableID,
		FileName: fileName,
		Columns:  t.Columns,
		Rows:     rows,
		RowCount: t.Len(),
	}
}

// FindingEntity mirrors rowcheck.Finding on the wire.
type FindingEntity struct {
	Row     int    `json:"row"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func FindingEntities(findings []rowcheck.Finding) []FindingEntity {
	out := make([]FindingEntity, 0, len(findings))
	for _, f := range findings {
		out = append(out, FindingEntity{
			Row:     f.RowDisplay,
			Kind:    string(f.Kind),
			Message: f.Message,
		})
	}
	return out
}

// FileEntity is one listed file in the outbox or attachment library.
type FileEntity struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

func FileEntityFromSvc(f outboxsvc.FileInfo) FileEntity {
	return FileEntity{
		Name:    f.Name,
		Size:    f.Size,
		ModTime: f.ModTime,
	}
}

func FileEntitiesFromSvc(files []outboxsvc.FileInfo) []FileEntity {
	out := make([]FileEntity, 0, len(files))
	for _, f := range files {
		out = append(out, FileEntityFromSvc(f))
	}
	return out
}
