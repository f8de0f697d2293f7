package main

import (
	"log"
	"os"

	"github.com/mitchellh/cli"

	"github.com/yusufsyaifudin/layang/cmd/api"
	"github.com/yusufsyaifudin/layang/cmd/check"
	"github.com/yusufsyaifudin/layang/cmd/gen/genapidoc"
	"github.com/yusufsyaifudin/layang/cmd/generate"
	"github.com/yusufsyaifudin/layang/cmd/view"
)

func main() {
	const appName, appVersion = "layang", "1.0.0"

	apiCmd := api.NewCmd(appName, appVersion)

	c := cli.NewCLI(appName, appVersion)
	c.Args = os.Args[1:]
	c.Autocomplete = true
	c.Commands = map[string]cli.CommandFactory{
		"":         apiCmd, // default command if no subcommand defined
		"api":      apiCmd,
		"generate": generate.NewCmd(),
		"check":    check.NewCmd(),
		"view":     view.NewCmd(),
		"apidoc": func() (cli.Command, error) {
			return genapidoc.NewApiDocCmd(genapidoc.ApiDocCfg{})
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}
