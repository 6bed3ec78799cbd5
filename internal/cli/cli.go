package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/foamstudy/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("foamstudy", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
foamstudy - parametric study automation for OpenFOAM cases.

Usage:
  foamstudy [options] COMMAND

Commands:
  list     Show the studies found in the studies directory.
  run      Execute a study: patch cases, launch the solver, collect results.
  status   Classify existing run directories from their solver logs.

Options:
`)
		flagSet.PrintDefaults()
	}

	studyFlag := flagSet.String("study", "", "Name of the study to run. Default is every study found.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Plan the runs without touching the filesystem or the solver.")
	studiesFlag := flagSet.String("studies", "studies", "Directory containing study .hcl files.")
	templateFlag := flagSet.String("template", "template", "Case template directory (0/, constant/, system/).")
	resultsFlag := flagSet.String("results", "results", "Directory receiving per-run case directories and outputs.")
	paramsFlag := flagSet.String("params", "base_parameters.yaml", "Base parameter file. Missing file means no overrides.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	command := flagSet.Arg(0)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Command:     command,
		StudyName:   *studyFlag,
		StudiesPath: *studiesFlag,
		TemplateDir: *templateFlag,
		ResultsDir:  *resultsFlag,
		ParamsPath:  *paramsFlag,
		DryRun:      *dryRunFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
