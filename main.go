package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dbtoolbox/mcp-contract-tests/framework"
	"github.com/dbtoolbox/mcp-contract-tests/mcptests"
	"github.com/dbtoolbox/mcp-contract-tests/targets"
)

// Version is set at build time.
var Version = "dev"

var errTestsFailed = errors.New("one or more tests failed")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var params commandParams
	cmd := &cobra.Command{
		Use:           "mcp-contract-tests",
		Short:         "Conformance test harness for MCP stdio containers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSuites(&params)
		},
	}
	cmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")
	params.addFlags(cmd)
	return cmd
}

func runSuites(params *commandParams) error {
	catalog, err := targets.LoadCatalog(params.catalogPath)
	if err != nil {
		return err
	}

	env, err := targets.LoadEnvFile(params.envFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		// No env file just means every credential resolves empty; scenarios
		// that need credentials will be skipped.
		env = targets.EnvValues{}
	}

	names := catalog.Names()
	if params.targetName != "" {
		if _, err := catalog.Target(params.targetName); err != nil {
			return err
		}
		names = []string{params.targetName}
	}

	harnessLogger := framework.NullLogger()
	if params.debugAll {
		harnessLogger = debugfLogger{log.NewWithOptions(os.Stdout, log.Options{
			Level:           log.DebugLevel,
			ReportTimestamp: true,
		})}
	}

	fmt.Println()
	params.filters.Describe(os.Stdout)

	testLogger := ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	var all framework.Results
	for _, name := range names {
		tc, err := catalog.Target(name)
		if err != nil {
			return err
		}
		applyTimeoutOverrides(tc, params)
		harnessLogger.Printf("running suite for target %s (%s)", tc.Name, tc.Image)

		fmt.Printf("Running test suite: %s\n", tc.Name)
		results := mcptests.RunTestSuite(tc, env, params.filters.AsFilter, testLogger)
		all.Tests = append(all.Tests, results.Tests...)
		all.Failures = append(all.Failures, results.Failures...)
		all.Skips = append(all.Skips, results.Skips...)
	}

	fmt.Println()
	framework.PrintResults(os.Stdout, all)
	if !all.OK() {
		return errTestsFailed
	}
	return nil
}

func applyTimeoutOverrides(tc *targets.TargetConfig, params *commandParams) {
	if params.handshakeSeconds > 0 {
		tc.Timeouts.HandshakeSeconds = params.handshakeSeconds
	}
	if params.stepSeconds > 0 {
		tc.Timeouts.StepSeconds = params.stepSeconds
	}
}

// debugfLogger adapts the structured console logger to the harness's plain
// Printf interface.
type debugfLogger struct {
	logger *log.Logger
}

func (d debugfLogger) Printf(message string, args ...interface{}) {
	d.logger.Debugf(message, args...)
}
