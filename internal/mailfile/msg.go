package mailfile

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// OutlookWriter produces native .msg files by driving an installed Outlook
// instance through COM automation. It only works on Windows hosts that have
// Outlook registered, everywhere else DetectNative returns nil and the
// dispatcher degrades to EML.
type OutlookWriter struct {
	// timeout bounds a single automation round trip.
	timeout time.Duration
}

// DetectNative probes for a usable Outlook automation endpoint. The probe
// runs once per process, callers cache the result inside the dispatcher.
func DetectNative(ctx context.Context) Writer {
	if runtime.GOOS != "windows" {
		return nil
	}

	probe, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(probe, "powershell", "-NoProfile", "-NonInteractive", "-Command",
		`$null = New-Object -ComObject Outlook.Application; exit 0`)
	err := cmd.Run()
	if err != nil {
		return nil
	}

	return &OutlookWriter{timeout: 60 * time.Second}
}

func (w *OutlookWriter) Format() Format {
	return FormatMSG
}

// Write saves msg as path + ".msg" via Outlook. Any automation failure is
// returned to the dispatcher, which falls back to EML for this message.
func (w *OutlookWriter) Write(ctx context.Context, msg Message, path string) (string, error) {
	out := path + ".msg"
	err := ensureDir(out)
	if err != nil {
		return "", err
	}

	run, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	cmd := exec.CommandContext(run, "powershell", "-NoProfile", "-NonInteractive", "-Command", w.script(msg, out))
	raw, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("outlook automation failed: %w: %s", err, strings.TrimSpace(string(raw)))
	}

	return out, nil
}

func (w *OutlookWriter) script(msg Message, out string) string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	b.WriteString("$ol = New-Object -ComObject Outlook.Application\n")
	b.WriteString("$m = $ol.CreateItem(0)\n")
	fmt.Fprintf(&b, "$m.To = %s\n", psQuote(strings.Join(msg.To, "; ")))
	if len(msg.CC) > 0 {
		fmt.Fprintf(&b, "$m.CC = %s\n", psQuote(strings.Join(msg.CC, "; ")))
	}
	if len(msg.BCC) > 0 {
		fmt.Fprintf(&b, "$m.BCC = %s\n", psQuote(strings.Join(msg.BCC, "; ")))
	}
	fmt.Fprintf(&b, "$m.Subject = %s\n", psQuote(msg.Subject))
	fmt.Fprintf(&b, "$m.HTMLBody = %s\n", psQuote(msg.HTMLBody))
	for _, att := range msg.Attachments {
		fmt.Fprintf(&b, "if (Test-Path %s) { $null = $m.Attachments.Add(%s) }\n", psQuote(att), psQuote(att))
	}
	// 3 = olMSGUnicode
	fmt.Fprintf(&b, "$m.SaveAs(%s, 3)\n", psQuote(out))
	return b.String()
}

// psQuote renders s as a PowerShell single-quoted literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
