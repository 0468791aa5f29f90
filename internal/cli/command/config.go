package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/foxhorn/foxyserver/internal/cli/output"
	"github.com/foxhorn/foxyserver/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the effective configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "check",
				Usage:  "Validate the configuration and list warnings",
				Action: configCheck,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, _, err := loadConfig(c, nil)
	if err != nil {
		return err
	}
	if !c.IsSet("output") {
		return (&output.YAMLFormatter{}).Format(writer(c), config.Sanitize(cfg))
	}
	return printResult(c, config.Sanitize(cfg))
}

func configCheck(c *cli.Context) error {
	cfg, _, err := loadConfig(c, nil)
	if err != nil {
		return err
	}
	w := writer(c)
	for _, warning := range config.Warnings(cfg) {
		fmt.Fprintln(w, "warning:", warning)
	}
	fmt.Fprintln(w, "configuration ok")
	return nil
}
