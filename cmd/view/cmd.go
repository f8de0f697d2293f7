package view

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mitchellh/cli"

	"github.com/yusufsyaifudin/layang/internal/svc/outboxsvc"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

type Cmd struct {
	flags    *flag.FlagSet
	showBody bool
}

func NewCmd() func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			flags: &flag.FlagSet{},
		}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd()

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("", flag.ContinueOnError)
	c.flags.BoolVar(&c.showBody, "body", false,
		"Print the full HTML body instead of a short preview")
	return nil
}

func (c *Cmd) Help() string {
	return `Print a human readable summary of a generated portable message file:
headers, attachment names and a body preview.

Usage: view [flags] <file.eml>`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		log.Printf("error parsing arguments: %s", err)
		return ExitErr
	}

	if c.flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "expected exactly one argument: the message file")
		return ExitErr
	}
	msgFile := c.flags.Arg(0)

	dir := filepath.Dir(msgFile)
	name := filepath.Base(msgFile)

	svc, err := outboxsvc.New(outboxsvc.DefaultServiceConfig{
		OutputDir:     dir,
		AttachmentDir: dir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup error: %s\n", err)
		return ExitErr
	}

	detail, err := svc.Detail(context.Background(), outboxsvc.InputDetail{FileName: name})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %s\n", msgFile, err)
		return ExitErr
	}

	fmt.Printf("File    : %s (%d bytes)\n", msgFile, detail.Info.Size)
	fmt.Printf("Subject : %s\n", detail.Subject)
	fmt.Printf("From    : %s\n", detail.From)
	fmt.Printf("To      : %s\n", detail.To)
	if detail.CC != "" {
		fmt.Printf("Cc      : %s\n", detail.CC)
	}
	if detail.BCC != "" {
		fmt.Printf("Bcc     : %s\n", detail.BCC)
	}

	fmt.Printf("Attachments (%d):\n", len(detail.Attachments))
	for _, att := range detail.Attachments {
		fmt.Printf("  %s\n", att)
	}

	body := detail.HTMLBody
	if !c.showBody && len(body) > 500 {
		body = body[:500] + "\n... (use -body for the full body)"
	}

	fmt.Printf("\nBody:\n%s\n", body)
	return ExitSuccess
}

func (c *Cmd) Synopsis() string {
	return `Show headers, attachments and body of a message file`
}
