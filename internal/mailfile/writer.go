package mailfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Format identifies an on-disk message file format.
type Format string

const (
	FormatEML Format = "eml"
	FormatMSG Format = "msg"

	// FormatAuto picks MSG when a native writer is available on this host
	// and EML otherwise.
	FormatAuto Format = "auto"
)

// Message is a fully rendered email ready to be serialized. Attachment paths
// are already resolved, entries pointing at missing files are skipped by the
// writers rather than failing the whole message.
type Message struct {
	From     string
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	HTMLBody string

	// Attachments are absolute or cwd-relative paths, duplicates allowed.
	Attachments []string
}

// Writer serializes one message to path. Implementations append their own
// extension, the returned string is the final path written.
type Writer interface {
	Write(ctx context.Context, msg Message, path string) (string, error)
	Format() Format
}

// Dispatcher selects the concrete writer per message and falls back to EML
// when the native MSG writer is unavailable or fails. The fallback is
// reported through the returned format, never hidden.
type Dispatcher struct {
	eml *EMLWriter
	msg Writer
}

// NewDispatcher probes native MSG support once. Passing a nil native writer
// is allowed and means MSG requests always fall back.
func NewDispatcher(native Writer) *Dispatcher {
	return &Dispatcher{
		eml: NewEMLWriter(),
		msg: native,
	}
}

// Write serializes msg in the requested format. Returns the path written and
// the format actually used, which differs from the request only on fallback.
func (d *Dispatcher) Write(ctx context.Context, msg Message, path string, format Format) (string, Format, error) {
	if format == FormatAuto {
		if d.msg != nil {
			format = FormatMSG
		} else {
			format = FormatEML
		}
	}

	if format == FormatMSG && d.msg != nil {
		out, err := d.msg.Write(ctx, msg, path)
		if err == nil {
			return out, FormatMSG, nil
		}
		// Native writer exists but failed for this message, degrade to
		// EML instead of losing the message.
	}

	out, err := d.eml.Write(ctx, msg, path)
	if err != nil {
		return "", FormatEML, err
	}
	return out, FormatEML, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", dir, err)
	}
	return nil
}
