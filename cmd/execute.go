package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/ComedicChimera/olive"

	"pyrs/common"
	"pyrs/config"
	"pyrs/optimize"
	"pyrs/report"
)

// Execute is the main entry point for the `pyrs` CLI utility.  It returns the
// exit status of the command.
func Execute() int {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("pyrs", "pyrs transpiles Python functions into Rust programs", true)
	cli.AddSelectorArg("loglevel", "ll", "the log level", false, report.LogLevelNames)

	buildCmd := cli.AddSubcommand("build", "transpile and build a source file", true)
	buildCmd.AddPrimaryArg("source-path", "the path to the source file to transpile", true)
	buildCmd.AddFlag("run", "r", "run the built program")
	buildCmd.AddStringArg("main-func", "m", "the function called by the generated entry point", false)
	buildCmd.AddStringArg("config", "c", "the path to the project file", false)
	buildCmd.AddStringArg("parallel", "p", "a comma-separated list of functions to parallelize", false)
	buildCmd.AddStringArg("timeout", "t", "the time limit for running the built program", false)
	buildCmd.AddStringArg("emit", "e", "the path to write the generated source to", false)

	cli.AddSubcommand("version", "print the pyrs version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.ReportFatal("%s", err)
	}

	// the log level is applied as soon as it is known so that configuration
	// errors are displayed accordingly
	if name, ok := stringArg(result, "loglevel"); ok {
		level, _ := report.ParseLogLevel(name)
		report.InitReporter(level)
	}

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		_, levelGiven := stringArg(result, "loglevel")
		return execBuildCommand(subResult, levelGiven)
	case "version":
		report.ReportInfo("pyrs version", common.PyrsVersion)
	}

	return 0
}

// execBuildCommand executes the build subcommand and handles all errors.
func execBuildCommand(result *olive.ArgParseResult, levelGiven bool) int {
	// get the primary argument: the source path
	srcPath, _ := result.PrimaryArg()

	configPath, _ := stringArg(result, "config")
	cfg, err := config.Load(srcPath, configPath)
	if err != nil {
		report.ReportFatal("invalid configuration: %s", err)
	}

	// the command line log level overrides the environment
	if !levelGiven {
		report.InitReporter(cfg.LogLevel)
	}

	if mainFunc, ok := stringArg(result, "main-func"); ok {
		if !common.IsValidIdentifier(mainFunc) {
			report.ReportFatal("--main-func: `%s` is not a valid function name", mainFunc)
		}

		cfg.MainFunc = mainFunc
	}

	if timeout, ok := stringArg(result, "timeout"); ok {
		cfg.Timeout, err = config.ParseTimeout(timeout)
		if err != nil {
			report.ReportFatal("--timeout: %s", err)
		}
	}

	t := NewTranspiler(srcPath, cfg)
	t.run = result.HasFlag("run")
	t.emitPath, _ = stringArg(result, "emit")

	if parallel, ok := stringArg(result, "parallel"); ok {
		t.requests = parseParallel(parallel)
	}

	status := t.Transpile(context.Background())

	// end whatever the final phase was and display the concluding message
	report.ReportFinished()
	return status
}

// -----------------------------------------------------------------------------

// stringArg returns the value of a named string argument if it was given.
func stringArg(result *olive.ArgParseResult, name string) (string, bool) {
	if value, ok := result.Arguments[name]; ok {
		if s, ok := value.(string); ok && s != "" {
			return s, true
		}
	}

	return "", false
}

// parseParallel converts a comma-separated list of function names into
// parallelism requests.
func parseParallel(list string) optimize.Supplied {
	supplied := optimize.Supplied{}

	enabled := true
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			supplied[name] = optimize.Request{Parallel: &enabled}
		}
	}

	return supplied
}
