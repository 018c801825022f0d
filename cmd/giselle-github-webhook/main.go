package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

const serviceName = "giselle-github-webhook"

func main() {
	cmd := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Run flows from GitHub webhook deliveries",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunCommand(),
			TriggersCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func storageFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:     "storage",
		Usage:    "Storage URLs, newest first (redis://, postgres://, file://)",
		Required: true,
		Sources:  cli.EnvVars("STORAGE_URLS"),
	}
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Value:   "info",
		Sources: cli.EnvVars("LOG_LEVEL"),
	}
}
