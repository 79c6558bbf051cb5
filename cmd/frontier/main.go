// Package main is the frontier command-line tool: optimize statistics
// models, estimate them from price histories and price assets with CAPM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/aristath/frontier/internal/cli"
	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/di"
	"github.com/aristath/frontier/pkg/logger"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	// Reports go to stdout, so logs stay on stderr.
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	cli.Register(commander, cli.NewApp(container, os.Stdout, os.Stderr))

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
