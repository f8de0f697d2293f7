package outboxsvc

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufsyaifudin/layang/internal/mailfile"
)

func testOutbox(t *testing.T) (*DefaultService, string, string) {
	t.Helper()

	outDir := filepath.Join(t.TempDir(), "out")
	attachDir := filepath.Join(t.TempDir(), "attachments")

	svc, err := New(DefaultServiceConfig{
		OutputDir:     outDir,
		AttachmentDir: attachDir,
	})
	require.NoError(t, err)
	return svc, outDir, attachDir
}

func writeTestMessage(t *testing.T, outDir, name string) string {
	t.Helper()

	attDir := t.TempDir()
	attPath := filepath.Join(attDir, "invoice.pdf")
	require.NoError(t, os.WriteFile(attPath, []byte("pdf"), 0o644))

	w := mailfile.NewEMLWriter()
	out, err := w.Write(context.Background(), mailfile.Message{
		From:        "billing@example.com",
		To:          []string{"john@example.com"},
		Subject:     "Acme Invoice 1",
		HTMLBody:    "<p>hello</p>",
		Attachments: []string{attPath},
	}, filepath.Join(outDir, name))
	require.NoError(t, err)
	return out
}

func TestListNewestFirst(t *testing.T) {
	svc, outDir, _ := testOutbox(t)
	ctx := context.Background()

	older := writeTestMessage(t, outDir, "older")
	newer := writeTestMessage(t, outDir, "newer")

	// Directory listing order is mtime based, make it deterministic.
	base := time.Now()
	require.NoError(t, os.Chtimes(older, base.Add(-time.Hour), base.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(newer, base, base))

	// A stray non-message file is ignored.
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "notes.txt"), []byte("x"), 0o644))

	out, err := svc.List(ctx, InputList{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	require.Len(t, out.Files, 2)
	assert.Equal(t, "newer.eml", out.Files[0].Name)
	assert.Equal(t, "older.eml", out.Files[1].Name)

	limited, err := svc.List(ctx, InputList{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, limited.Total)
	assert.Len(t, limited.Files, 1)
}

func TestListEmptyDirectory(t *testing.T) {
	svc, _, _ := testOutbox(t)

	out, err := svc.List(context.Background(), InputList{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Total)
	assert.Empty(t, out.Files)
}

func TestDetail(t *testing.T) {
	svc, outDir, _ := testOutbox(t)
	writeTestMessage(t, outDir, "msg")

	out, err := svc.Detail(context.Background(), InputDetail{FileName: "msg.eml"})
	require.NoError(t, err)

	assert.Equal(t, "Acme Invoice 1", out.Subject)
	assert.Equal(t, "billing@example.com", out.From)
	assert.Equal(t, "john@example.com", out.To)
	assert.Empty(t, out.CC)
	assert.Equal(t, "<p>hello</p>", out.HTMLBody)
	assert.Equal(t, []string{"invoice.pdf"}, out.Attachments)
	assert.Greater(t, out.Info.Size, int64(0))
}

func TestDetailErrors(t *testing.T) {
	svc, _, _ := testOutbox(t)
	ctx := context.Background()

	_, err := svc.Detail(ctx, InputDetail{FileName: "nope.eml"})
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = svc.Detail(ctx, InputDetail{FileName: "../escape.eml"})
	assert.ErrorIs(t, err, ErrBadFileName)
}

func TestOpenFile(t *testing.T) {
	svc, outDir, _ := testOutbox(t)
	writeTestMessage(t, outDir, "msg")

	out, err := svc.OpenFile(context.Background(), InputOpenFile{FileName: "msg.eml"})
	require.NoError(t, err)
	defer out.Reader.Close()

	raw, err := io.ReadAll(out.Reader)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Subject: Acme Invoice 1")
}

func TestZip(t *testing.T) {
	svc, outDir, _ := testOutbox(t)
	writeTestMessage(t, outDir, "one")
	writeTestMessage(t, outDir, "two")

	out, err := svc.Zip(context.Background(), InputZip{})
	require.NoError(t, err)
	defer out.Reader.Close()

	assert.True(t, strings.HasPrefix(out.FileName, "emails_"))
	assert.True(t, strings.HasSuffix(out.FileName, ".zip"))

	raw, err := io.ReadAll(out.Reader)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"one.eml", "two.eml"}, names)
}

func TestStats(t *testing.T) {
	svc, outDir, _ := testOutbox(t)
	ctx := context.Background()

	writeTestMessage(t, outDir, "msg")
	_, err := svc.SaveAttachment(ctx, InputSaveAttachment{
		FileName: "contract.pdf",
		Reader:   strings.NewReader("pdf-bytes"),
	})
	require.NoError(t, err)

	out, err := svc.Stats(ctx, InputStats{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.EmailCount)
	assert.Equal(t, 1, out.AttachmentCount)
	assert.Greater(t, out.TotalSizeBytes, int64(0))
}

func TestAttachmentLifecycle(t *testing.T) {
	svc, _, attachDir := testOutbox(t)
	ctx := context.Background()

	saved, err := svc.SaveAttachment(ctx, InputSaveAttachment{
		FileName: "contract.pdf",
		Reader:   strings.NewReader("pdf-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len("pdf-bytes")), saved.Info.Size)

	raw, err := os.ReadFile(filepath.Join(attachDir, "contract.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(raw))

	list, err := svc.ListAttachments(ctx, InputListAttachments{})
	require.NoError(t, err)
	require.Len(t, list.Files, 1)
	assert.Equal(t, "contract.pdf", list.Files[0].Name)

	deleted, err := svc.DeleteAttachment(ctx, InputDeleteAttachment{FileName: "contract.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", deleted.Deleted)

	_, err = svc.DeleteAttachment(ctx, InputDeleteAttachment{FileName: "contract.pdf"})
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = svc.SaveAttachment(ctx, InputSaveAttachment{
		FileName: "../escape.pdf",
		Reader:   strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, ErrBadFileName)
}
