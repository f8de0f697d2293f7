package outboxsvc

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/yusufsyaifudin/layang/pkg/tracer"
	"github.com/yusufsyaifudin/layang/pkg/validator"
)

// ErrFileNotFound means the requested name does not exist in the directory
// the operation works on.
var ErrFileNotFound = errors.New("file not found")

// ErrBadFileName rejects names that try to walk out of the managed
// directories.
var ErrBadFileName = errors.New("invalid file name")

var messageExtensions = map[string]bool{
	".eml": true,
	".msg": true,
}

type DefaultServiceConfig struct {
	OutputDir string `validate:"required"`

	// AttachmentDir may be empty, meaning relative to the working directory.
	AttachmentDir string
}

type DefaultService struct {
	Config DefaultServiceConfig
}

var _ Service = (*DefaultService)(nil)

func New(cfg DefaultServiceConfig) (*DefaultService, error) {
	err := validator.Validate(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AttachmentDir == "" {
		cfg.AttachmentDir = "."
	}

	return &DefaultService{Config: cfg}, nil
}

func (d *DefaultService) List(ctx context.Context, input InputList) (out *OutList, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "outboxsvc.List")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	files, err := listDir(d.Config.OutputDir, func(name string) bool {
		return messageExtensions[strings.ToLower(filepath.Ext(name))]
	})
	if err != nil {
		return
	}

	total := len(files)
	if input.Limit > 0 && input.Limit < total {
		files = files[:input.Limit]
	}

	out = &OutList{
		Files: files,
		Total: total,
	}
	return
}

func (d *DefaultService) Detail(ctx context.Context, input InputDetail) (out *OutDetail, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "outboxsvc.Detail")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	path, err := safeJoin(d.Config.OutputDir, input.FileName)
	if err != nil {
		return
	}

	stat, err := os.Stat(path)
	if err != nil {
		err = ErrFileNotFound
		return
	}

	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("cannot open %s: %w", input.FileName, err)
		return
	}
	defer func() {
		_ = f.Close()
	}()

	out, err = parseMessage(f)
	if err != nil {
		err = fmt.Errorf("cannot parse %s: %w", input.FileName, err)
		return
	}

	out.FileName = input.FileName
	out.Info = FileInfo{
		Name:    input.FileName,
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
	}
	return
}

func (d *DefaultService) OpenFile(ctx context.Context, input InputOpenFile) (out *OutOpenFile, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "outboxsvc.OpenFile")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	path, err := safeJoin(d.Config.OutputDir, input.FileName)
	if err != nil {
		return
	}

	stat, err := os.Stat(path)
	if err != nil {
		err = ErrFileNotFound
		return
	}

	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("cannot open %s: %w", input.FileName, err)
		return
	}

	out = &OutOpenFile{
		Reader: f,
		Info: FileInfo{
			Name:    input.FileName,
			Size:    stat.Size(),
			ModTime: stat.ModTime(),
		},
	}
	return
}

func (d *DefaultService) Zip(ctx context.Context, input InputZip) (out *OutZip, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "outboxsvc.Zip")
	defer span.End()

	files, err := listDir(d.Config.OutputDir, func(name string) bool {
		return messageExtensions[strings.ToLower(filepath.Ext(name))]
	})
	if err != nil {
		return
	}

	pr, pw := io.Pipe()
	go func() {
		zw := zip.NewWriter(pw)
		zErr := func() error {
			for _, fi := range files {
				w, zipErr := zw.Create(fi.Name)
				if zipErr != nil {
					return zipErr
				}

				src, zipErr := os.Open(filepath.Join(d.Config.OutputDir, fi.Name))
				if zipErr != nil {
					return zipErr
				}

				_, zipErr = io.Copy(w, src)
				_ = src.Close()
				if zipErr != nil {
					return zipErr
				}
			}
			return zw.Close()
		}()
		_ = pw.CloseWithError(zErr)
	}()

	out = &OutZip{
		Reader:   pr,
		FileName: fmt.Sprintf("emails_%s.zip", time.Now().Format("20060102_150405")),
	}
	return
}

func (d *DefaultService) Stats(ctx context.Context, input InputStats) (out *OutStats, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "outboxsvc.Stats")
	defer span.End()

	emails, err := listDir(d.Config.OutputDir, func(name string) bool {
		return messageExtensions[strings.ToLower(filepath.Ext(name))]
	})
	if err != nil {
		return
	}

	attachments, err := listDir(d.Config.AttachmentDir, func(string) bool { return true })
	if err != nil {
		return
	}

	out = &OutStats{
		EmailCount:      len(emails),
		AttachmentCount: len(attachments),
	}
	for _, fi := range emails {
		out.TotalSizeBytes += fi.Size
	}
	return
}

func (d *DefaultService) SaveAttachment(ctx context.Context, input InputSaveAttachment) (out *OutSaveAttachment, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "outboxsvc.SaveAttachment")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	path, err := safeJoin(d.Config.AttachmentDir, input.FileName)
	if err != nil {
		return
	}

	err = os.MkdirAll(d.Config.AttachmentDir, 0o755)
	if err != nil {
		err = fmt.Errorf("cannot create attachment directory: %w", err)
		return
	}

	f, err := os.Create(path)
	if err != nil {
		err = fmt.Errorf("cannot create %s: %w", input.FileName, err)
		return
	}

	size, err := io.Copy(f, input.Reader)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		err = fmt.Errorf("cannot write %s: %w", input.FileName, err)
		return
	}

	out = &OutSaveAttachment{
		Info: FileInfo{
			Name:    input.FileName,
			Size:    size,
			ModTime: time.Now(),
		},
	}
	return
}

func (d *DefaultService) ListAttachments(ctx context.Context, input InputListAttachments) (out *OutListAttachments, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "outboxsvc.ListAttachments")
	defer span.End()

	files, err := listDir(d.Config.AttachmentDir, func(string) bool { return true })
	if err != nil {
		return
	}

	out = &OutListAttachments{Files: files}
	return
}

func (d *DefaultService) DeleteAttachment(ctx context.Context, input InputDeleteAttachment) (out *OutDeleteAttachment, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "outboxsvc.DeleteAttachment")
	defer span.End()

	err = validator.Validate(input)
	if err != nil {
		err = fmt.Errorf("validation error: %w", err)
		return
	}

	path, err := safeJoin(d.Config.AttachmentDir, input.FileName)
	if err != nil {
		return
	}

	err = os.Remove(path)
	if os.IsNotExist(err) {
		err = ErrFileNotFound
		return
	}
	if err != nil {
		err = fmt.Errorf("cannot delete %s: %w", input.FileName, err)
		return
	}

	out = &OutDeleteAttachment{Deleted: input.FileName}
	return
}

// listDir returns regular files matching keep, newest first. A missing
// directory is an empty listing, the pipeline may not have run yet.
func listDir(dir string, keep func(name string) bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !keep(e.Name()) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// safeJoin rejects any name that is not a bare file name inside dir.
func safeJoin(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrBadFileName
	}
	return filepath.Join(dir, name), nil
}

// parseMessage re-reads a portable message file. The writer is ours, so the
// structure is known: multipart/mixed with an HTML part first and base64
// attachment parts after it.
func parseMessage(r io.Reader) (*OutDetail, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, err
	}

	out := &OutDetail{
		Subject:     msg.Header.Get("Subject"),
		From:        msg.Header.Get("From"),
		To:          msg.Header.Get("To"),
		CC:          msg.Header.Get("Cc"),
		BCC:         msg.Header.Get("Bcc"),
		Attachments: []string{},
	}

	dec := new(mime.WordDecoder)
	if subj, decErr := dec.DecodeHeader(out.Subject); decErr == nil {
		out.Subject = subj
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		// Not one of ours, show the raw body as preview.
		raw, readErr := io.ReadAll(io.LimitReader(msg.Body, 1<<20))
		if readErr != nil {
			return nil, readErr
		}
		out.HTMLBody = string(raw)
		return out, nil
	}

	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, partErr := mr.NextPart()
		if partErr == io.EOF {
			break
		}
		if partErr != nil {
			return nil, partErr
		}

		name := part.FileName()
		if name != "" {
			out.Attachments = append(out.Attachments, name)
			continue
		}

		if strings.HasPrefix(part.Header.Get("Content-Type"), "text/html") && out.HTMLBody == "" {
			raw, readErr := io.ReadAll(io.LimitReader(part, 1<<20))
			if readErr != nil {
				return nil, readErr
			}
			out.HTMLBody = string(raw)
		}
	}

	return out, nil
}
