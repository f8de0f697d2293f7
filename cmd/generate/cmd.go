package generate

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/satori/uuid"
	"github.com/yusufsyaifudin/ylog"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/emailunit"
	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/internal/render"
	"github.com/yusufsyaifudin/layang/internal/rowcheck"
	"github.com/yusufsyaifudin/layang/internal/svc/gensvc"
	"github.com/yusufsyaifudin/layang/internal/tabular"
	"github.com/yusufsyaifudin/layang/pkg/tracer"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

type Cmd struct {
	flags          *flag.FlagSet
	configFile     string
	skipValidation bool
	assumeYes      bool
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
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file to load")
	c.flags.BoolVar(&c.skipValidation, "skip-validation", false,
		"Skip email and attachment checks")
	c.flags.BoolVar(&c.assumeYes, "yes", false,
		"Continue without prompting when validation reports findings")
	return nil
}

func (c *Cmd) Help() string {
	return `Generate email message files from a CSV file in one shot.

Usage: generate [flags] <file.csv>

The CSV is ingested, validated and turned into one message file per email
unit. Validation findings are printed and you are asked whether to continue,
use -skip-validation to skip the checks or -yes to continue regardless.`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		log.Printf("error parsing arguments: %s", err)
		return ExitErr
	}

	if c.flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "expected exactly one argument: the CSV file")
		return ExitErr
	}
	csvFile := c.flags.Arg(0)

	configVal := &config.Config{}
	zapLog, err := config.Setup(c.configFile, configVal)
	if err != nil {
		log.Printf("error load config: %s", err)
		return ExitErr
	}

	configVal.ApplyDefaults()
	ylog.SetGlobalLogger(ylog.NewZap(zapLog))

	sysTracer, err := ylog.NewTracer(tracer.LogData{
		RemoteAddr: "system",
		TraceID:    uuid.NewV4().String(),
	}, ylog.WithTag("tracer"))
	if err != nil {
		log.Printf("error prepare system log tracer: %s", err)
		return ExitErr
	}

	ctx := ylog.Inject(context.Background(), sysTracer)

	ingestor, err := tabular.NewIngestor(configVal.Columns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		return ExitErr
	}

	table, err := ingestor.IngestFile(csvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %s\n", csvFile, err)
		return ExitErr
	}

	err = ingestor.CheckSchema(table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return ExitErr
	}

	fmt.Printf("Loaded %d rows from %s\n", table.Len(), csvFile)

	svc, err := buildService(configVal, mailfile.NewDispatcher(mailfile.DetectNative(ctx)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup error: %s\n", err)
		return ExitErr
	}

	if !c.skipValidation {
		valOut, valErr := svc.Validate(ctx, gensvc.InputValidate{Table: table})
		if valErr != nil {
			fmt.Fprintf(os.Stderr, "validation error: %s\n", valErr)
			return ExitErr
		}

		if !valOut.OK {
			fmt.Printf("Validation found %d problem(s):\n", len(valOut.Findings))
			for _, f := range valOut.Findings {
				fmt.Printf("  %s\n", f.Message)
			}

			if !c.assumeYes && !confirm("Continue anyway? [y/N] ") {
				fmt.Println("Aborted.")
				return ExitErr
			}
		}
	}

	tplSrc, err := os.ReadFile(configVal.Paths.Template)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read template %s: %s\n", configVal.Paths.Template, err)
		return ExitErr
	}

	genOut, err := svc.Generate(ctx, gensvc.InputGenerate{
		Table:    table,
		Template: string(tplSrc),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation error: %s\n", err)
		return ExitErr
	}

	fmt.Printf("\nGenerated %d email file(s) in %s:\n", genOut.Count, configVal.Paths.Output)
	for _, f := range genOut.Files {
		fmt.Printf("  %s (%s)\n", f.Path, f.Format)
	}

	if len(genOut.Errors) > 0 {
		fmt.Printf("\n%d unit(s) failed:\n", len(genOut.Errors))
		for _, e := range genOut.Errors {
			fmt.Printf("  unit %d (%s): %s\n", e.UnitIndex, e.Subject, e.Message)
		}
		return ExitErr
	}

	return ExitSuccess
}

func (c *Cmd) Synopsis() string {
	return `Generate email files from a CSV in one shot`
}

func buildService(cfg *config.Config, dispatcher *mailfile.Dispatcher) (gensvc.Service, error) {
	grouper, err := emailunit.NewGrouper(cfg.Columns, cfg.Email.SubjectSingle, cfg.Email.SubjectGroup)
	if err != nil {
		return nil, err
	}

	return gensvc.New(gensvc.DefaultServiceConfig{
		Columns:    cfg.Columns,
		Validation: cfg.Validation,
		Company:    cfg.Company,
		Email:      cfg.Email,
		Paths:      cfg.Paths,
		Output:     cfg.Output,
		Dispatcher: dispatcher,
		Renderer:   render.NewRenderer(cfg.Company, cfg.Paths.Banner),
		Grouper:    grouper,
		Checker:    rowcheck.NewChecker(cfg.Columns, cfg.Validation),
	})
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
