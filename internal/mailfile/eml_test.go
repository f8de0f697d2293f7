package mailfile

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMLWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()

	attPath := filepath.Join(dir, "invoice.pdf")
	err := os.WriteFile(attPath, []byte("%PDF-1.4 fake"), 0o644)
	require.NoError(t, err)

	msg := Message{
		From:     "billing@example.com",
		To:       []string{"john.doe@example.com"},
		CC:       []string{"cc@example.com"},
		Subject:  "Acme Corp Invoice INV-0001",
		HTMLBody: "<p>Dear John Doe,</p>",
		Attachments: []string{
			attPath,
			filepath.Join(dir, "does-not-exist.pdf"),
		},
	}

	w := NewEMLWriter()
	out, err := w.Write(context.Background(), msg, filepath.Join(dir, "out", "Acme_Corp_INV-0001"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "Acme_Corp_INV-0001.eml"), out)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	parsed, err := mail.ReadMessage(f)
	require.NoError(t, err)

	assert.Equal(t, "billing@example.com", parsed.Header.Get("From"))
	assert.Equal(t, "john.doe@example.com", parsed.Header.Get("To"))
	assert.Equal(t, "cc@example.com", parsed.Header.Get("Cc"))
	assert.Empty(t, parsed.Header.Get("Bcc"), "empty Bcc must not produce a header")
	assert.Equal(t, "Acme Corp Invoice INV-0001", parsed.Header.Get("Subject"))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])

	body, err := mr.NextPart()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body.Header.Get("Content-Type"), "text/html"))
	html, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "<p>Dear John Doe,</p>", string(html))

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Contains(t, att.Header.Get("Content-Disposition"), `filename="invoice.pdf"`)
	assert.Equal(t, "base64", att.Header.Get("Content-Transfer-Encoding"))

	raw, err := io.ReadAll(att)
	require.NoError(t, err)
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(raw), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))

	// Missing attachment is skipped, not materialized as an empty part.
	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestEMLWriterStripsNewlinesFromAddresses(t *testing.T) {
	dir := t.TempDir()

	msg := Message{
		From:     "billing@example.com",
		To:       []string{"victim@example.com\r\nX-Injected: yes"},
		CC:       []string{"cc@example.com\nX-Also-Injected: yes"},
		Subject:  "s",
		HTMLBody: "<p>b</p>",
	}

	w := NewEMLWriter()
	out, err := w.Write(context.Background(), msg, filepath.Join(dir, "inject"))
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	parsed, err := mail.ReadMessage(f)
	require.NoError(t, err)

	assert.Empty(t, parsed.Header.Get("X-Injected"))
	assert.Empty(t, parsed.Header.Get("X-Also-Injected"))
	assert.Equal(t, "victim@example.comX-Injected: yes", parsed.Header.Get("To"))
	assert.Equal(t, "cc@example.comX-Also-Injected: yes", parsed.Header.Get("Cc"))
}

type failingWriter struct{}

func (failingWriter) Write(ctx context.Context, msg Message, path string) (string, error) {
	return "", assert.AnError
}

func (failingWriter) Format() Format { return FormatMSG }

func TestDispatcher(t *testing.T) {
	dir := t.TempDir()
	msg := Message{
		From:     "billing@example.com",
		To:       []string{"x@example.com"},
		Subject:  "s",
		HTMLBody: "<p>b</p>",
	}

	t.Run("auto without native picks eml", func(t *testing.T) {
		d := NewDispatcher(nil)
		out, format, err := d.Write(context.Background(), msg, filepath.Join(dir, "a"), FormatAuto)
		assert.NoError(t, err)
		assert.Equal(t, FormatEML, format)
		assert.True(t, strings.HasSuffix(out, ".eml"))
	})

	t.Run("msg request without native falls back", func(t *testing.T) {
		d := NewDispatcher(nil)
		_, format, err := d.Write(context.Background(), msg, filepath.Join(dir, "b"), FormatMSG)
		assert.NoError(t, err)
		assert.Equal(t, FormatEML, format)
	})

	t.Run("native failure falls back per message", func(t *testing.T) {
		d := NewDispatcher(failingWriter{})
		out, format, err := d.Write(context.Background(), msg, filepath.Join(dir, "c"), FormatMSG)
		assert.NoError(t, err)
		assert.Equal(t, FormatEML, format)
		assert.True(t, strings.HasSuffix(out, ".eml"))
	})

	t.Run("eml request ignores native", func(t *testing.T) {
		d := NewDispatcher(failingWriter{})
		_, format, err := d.Write(context.Background(), msg, filepath.Join(dir, "d"), FormatEML)
		assert.NoError(t, err)
		assert.Equal(t, FormatEML, format)
	})
}
