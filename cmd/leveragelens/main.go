package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("leveragelens: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "leveragelens",
		Usage: "compare an index tracker with its leveraged counterpart",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				EnvVars: []string{"CONFIG_PATH"},
				Usage:   "path to the YAML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			serveCommand(),
			watchCommand(),
			historyCommand(),
		},
	}
}
