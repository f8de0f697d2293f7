package outboxsvc

import (
	"context"
	"io"
	"time"
)

// Service is the read side of the output directory plus management of the
// attachment library. It never generates anything, it only looks at what the
// pipeline already wrote.
type Service interface {
	List(ctx context.Context, input InputList) (out *OutList, err error)
	Detail(ctx context.Context, input InputDetail) (out *OutDetail, err error)
	OpenFile(ctx context.Context, input InputOpenFile) (out *OutOpenFile, err error)
	Zip(ctx context.Context, input InputZip) (out *OutZip, err error)
	Stats(ctx context.Context, input InputStats) (out *OutStats, err error)

	SaveAttachment(ctx context.Context, input InputSaveAttachment) (out *OutSaveAttachment, err error)
	ListAttachments(ctx context.Context, input InputListAttachments) (out *OutListAttachments, err error)
	DeleteAttachment(ctx context.Context, input InputDeleteAttachment) (out *OutDeleteAttachment, err error)
}

// FileInfo describes one file in the output directory or attachment library.
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

type InputList struct {
	// Limit caps the result, zero means everything.
	Limit int `validate:"min=0"`
}

type OutList struct {
	Files []FileInfo `json:"files"`
	Total int        `json:"total"`
}

type InputDetail struct {
	FileName string `validate:"required"`
}

type OutDetail struct {
	FileName    string   `json:"file_name"`
	Subject     string   `json:"subject"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	CC          string   `json:"cc,omitempty"`
	BCC         string   `json:"bcc,omitempty"`
	HTMLBody    string   `json:"html_body"`
	Attachments []string `json:"attachments"`
	Info        FileInfo `json:"info"`
}

type InputOpenFile struct {
	FileName string `validate:"required"`
}

// OutOpenFile hands the caller an open reader, closing it is the caller's
// job.
type OutOpenFile struct {
	Reader io.ReadCloser `json:"-"`
	Info   FileInfo      `json:"info"`
}

type InputZip struct{}

// OutZip streams a zip of every portable message file.
type OutZip struct {
	Reader   io.ReadCloser `json:"-"`
	FileName string        `json:"file_name"`
}

type InputStats struct{}

type OutStats struct {
	EmailCount      int   `json:"email_count"`
	AttachmentCount int   `json:"attachment_count"`
	TotalSizeBytes  int64 `json:"total_size_bytes"`
}

type InputSaveAttachment struct {
	FileName string    `validate:"required"`
	Reader   io.Reader `validate:"required"`
}

type OutSaveAttachment struct {
	Info FileInfo `json:"info"`
}

type InputListAttachments struct{}

type OutListAttachments struct {
	Files []FileInfo `json:"files"`
}

type InputDeleteAttachment struct {
	FileName string `validate:"required"`
}

type OutDeleteAttachment struct {
	Deleted string `json:"deleted"`
}
