package app

import "fmt"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command   string // list, run, or status
	StudyName string // optional filter; empty means every study

	StudiesPath string // study .hcl files
	TemplateDir string // case template (0/, constant/, system/)
	ResultsDir  string // per-run case directories and study outputs
	ParamsPath  string // base parameter YAML

	DryRun    bool
	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case "list", "run", "status":
	default:
		return nil, fmt.Errorf("unknown command %q: must be 'list', 'run', or 'status'", cfg.Command)
	}

	if cfg.StudiesPath == "" {
		return nil, fmt.Errorf("StudiesPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
