package main

import (
	"github.com/spf13/cobra"

	"github.com/dbtoolbox/mcp-contract-tests/framework"
)

const (
	defaultCatalogPath = "targets.yaml"
	defaultEnvFilePath = ".env"
)

type commandParams struct {
	catalogPath      string
	envFilePath      string
	targetName       string
	filters          framework.RegexFilters
	debug            bool
	debugAll         bool
	handshakeSeconds int
	stepSeconds      int
}

func (c *commandParams) addFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&c.catalogPath, "config", defaultCatalogPath, "path to the target catalog")
	fs.StringVar(&c.envFilePath, "env-file", defaultEnvFilePath, "path to the credentials env file")
	fs.StringVar(&c.targetName, "target", "", "run only the named target (default: all)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.IntVar(&c.handshakeSeconds, "handshake-timeout", 0, "override the handshake timeout in seconds")
	fs.IntVar(&c.stepSeconds, "step-timeout", 0, "override the per-step timeout in seconds")
}
