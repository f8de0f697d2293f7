package check

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mitchellh/cli"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/mailfile"
	"github.com/yusufsyaifudin/layang/internal/rowcheck"
	"github.com/yusufsyaifudin/layang/internal/tabular"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

type Cmd struct {
	flags      *flag.FlagSet
	configFile string
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
	return nil
}

func (c *Cmd) Help() string {
	return `Check every attachment referenced by a CSV file against the attachment
base directory and report per row whether the file exists.

Usage: check [flags] <file.csv>`
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
	_, err = config.Setup(c.configFile, configVal)
	if err != nil {
		log.Printf("error load config: %s", err)
		return ExitErr
	}

	configVal.ApplyDefaults()

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

	attCol := configVal.Columns.Attachment
	if attCol == "" || !table.HasColumn(attCol) {
		fmt.Printf("No attachment column ('%s') in %s, nothing to check.\n", attCol, csvFile)
		return ExitSuccess
	}

	base := configVal.Paths.AttachmentBase
	fmt.Printf("Checking attachments against base directory: %s\n\n", base)

	missing := 0
	checked := 0
	for idx, row := range table.Rows {
		for _, token := range rowcheck.SplitAddresses(row.Get(attCol)) {
			checked++
			path := mailfile.Resolve(token, base)
			_, statErr := os.Stat(path)
			if statErr == nil {
				fmt.Printf("  Row %d: OK       %s\n", idx+2, path)
				continue
			}

			missing++
			fmt.Printf("  Row %d: MISSING  %s\n", idx+2, path)
		}
	}

	fmt.Printf("\n%d attachment reference(s) checked, %d missing.\n", checked, missing)
	if missing > 0 {
		return ExitErr
	}

	return ExitSuccess
}

func (c *Cmd) Synopsis() string {
	return `Check CSV attachment references against the base directory`
}
