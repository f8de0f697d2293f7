package mailfile

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// EMLWriter serializes messages as RFC 5322 MIME files readable by every
// mainstream mail client.
type EMLWriter struct{}

func NewEMLWriter() *EMLWriter {
	return &EMLWriter{}
}

func (w *EMLWriter) Format() Format {
	return FormatEML
}

// Write serializes msg to path + ".eml". Headers for Cc and Bcc appear only
// when non-empty. Attachment entries whose file is unreadable are skipped.
func (w *EMLWriter) Write(ctx context.Context, msg Message, path string) (string, error) {
	out := path + ".eml"
	err := ensureDir(out)
	if err != nil {
		return "", err
	}

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("cannot create %s: %w", out, err)
	}
	defer func() {
		_ = f.Close()
	}()

	err = w.writeTo(ctx, f, msg)
	if err != nil {
		return "", fmt.Errorf("cannot write %s: %w", out, err)
	}

	return out, nil
}

// headerAddrs joins an address list into one header value. CR and LF are
// stripped so a cell value can never split the header line.
func headerAddrs(addrs ...string) string {
	joined := strings.Join(addrs, ", ")
	joined = strings.ReplaceAll(joined, "\r", "")
	return strings.ReplaceAll(joined, "\n", "")
}

func (w *EMLWriter) writeTo(ctx context.Context, dst io.Writer, msg Message) error {
	mw := multipart.NewWriter(dst)

	headers := []string{
		"From: " + headerAddrs(msg.From),
		"To: " + headerAddrs(msg.To...),
	}
	if len(msg.CC) > 0 {
		headers = append(headers, "Cc: "+headerAddrs(msg.CC...))
	}
	if len(msg.BCC) > 0 {
		headers = append(headers, "Bcc: "+headerAddrs(msg.BCC...))
	}
	headers = append(headers,
		"Subject: "+mime.QEncoding.Encode("utf-8", msg.Subject),
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="`+mw.Boundary()+`"`,
	)

	_, err := io.WriteString(dst, strings.Join(headers, "\r\n")+"\r\n\r\n")
	if err != nil {
		return err
	}

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/html; charset="utf-8"`},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(body, msg.HTMLBody)
	if err != nil {
		return err
	}

	for _, att := range msg.Attachments {
		err = w.attach(ctx, mw, att)
		if err != nil {
			return err
		}
	}

	return mw.Close()
}

func (w *EMLWriter) attach(ctx context.Context, mw *multipart.Writer, path string) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// Missing or unreadable files were already reported by the row
		// validator, the message still goes out without them.
		return nil
	}

	name := filepath.Base(path)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/octet-stream"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", name)},
	})
	if err != nil {
		return err
	}

	enc := base64.StdEncoding.EncodeToString(data)
	// RFC 2045 line length limit.
	for len(enc) > 0 {
		n := 76
		if n > len(enc) {
			n = len(enc)
		}
		_, err = io.WriteString(part, enc[:n]+"\r\n")
		if err != nil {
			return err
		}
		enc = enc[n:]
	}

	return nil
}
