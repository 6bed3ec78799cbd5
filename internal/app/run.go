package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/foamstudy/internal/casedir"
	"github.com/vk/foamstudy/internal/ctxlog"
	"github.com/vk/foamstudy/internal/fsutil"
	"github.com/vk/foamstudy/internal/runner"
	"github.com/vk/foamstudy/internal/study"
)

// Run executes the requested command based on the provided configuration.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("dispatching command", "command", cfg.Command)

	switch cfg.Command {
	case "list":
		return a.list(ctx, cfg)
	case "run":
		return a.runStudies(ctx, cfg)
	case "status":
		return a.status(ctx, cfg)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

// list prints every study found, with its sweep and run counts.
func (a *App) list(ctx context.Context, cfg *Config) error {
	studies, err := a.selectStudies(ctx, cfg)
	if err != nil {
		return err
	}
	if len(studies) == 0 {
		fmt.Fprintf(a.outW, "no studies found in %s\n", cfg.StudiesPath)
		return nil
	}

	for _, s := range studies {
		fmt.Fprintf(a.outW, "%s: %d sweep(s), %d run(s)\n", s.Name, len(s.Sweeps), len(s.Points()))
		if s.Description != "" {
			fmt.Fprintf(a.outW, "  %s\n", s.Description)
		}
		for _, sw := range s.Sweeps {
			fmt.Fprintf(a.outW, "  %s: %v\n", sw.Parameter, sw.Values)
		}
	}
	return nil
}

// runStudies executes every selected study, each into its own subdirectory
// of the results directory.
func (a *App) runStudies(ctx context.Context, cfg *Config) error {
	studies, err := a.selectStudies(ctx, cfg)
	if err != nil {
		return err
	}
	if len(studies) == 0 {
		return fmt.Errorf("no studies found in %s", cfg.StudiesPath)
	}

	for _, s := range studies {
		r := runner.New(a.store, runner.Options{
			TemplateDir: cfg.TemplateDir,
			ResultsDir:  filepath.Join(cfg.ResultsDir, s.Name),
			DryRun:      cfg.DryRun,
		})
		summary, err := r.RunStudy(ctx, s)
		if err != nil {
			return fmt.Errorf("study %s: %w", s.Name, err)
		}

		fmt.Fprintf(a.outW, "%s: %d run(s)", s.Name, len(summary.Runs))
		for status, count := range summary.Counts() {
			fmt.Fprintf(a.outW, "  %s=%d", status, count)
		}
		fmt.Fprintln(a.outW)
	}
	return nil
}

// status classifies every run directory under the results tree from its
// solver log.
func (a *App) status(ctx context.Context, cfg *Config) error {
	logger := ctxlog.FromContext(ctx)

	if _, err := os.Stat(cfg.ResultsDir); os.IsNotExist(err) {
		fmt.Fprintf(a.outW, "no runs found in %s\n", cfg.ResultsDir)
		return nil
	}

	logs, err := fsutil.FindFilesByExtension(cfg.ResultsDir, casedir.LogName)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", cfg.ResultsDir, err)
	}
	logger.Debug("found run logs", "count", len(logs))

	if len(logs) == 0 {
		fmt.Fprintf(a.outW, "no runs found in %s\n", cfg.ResultsDir)
		return nil
	}

	for _, logPath := range logs {
		caseDir := filepath.Dir(logPath)
		rel, relErr := filepath.Rel(cfg.ResultsDir, caseDir)
		if relErr != nil {
			rel = caseDir
		}

		state := "running"
		switch {
		case casedir.Completed(caseDir):
			state = "completed"
		case casedir.Failed(caseDir):
			state = "failed"
		}
		fmt.Fprintf(a.outW, "%-10s %s\n", state, rel)
	}
	return nil
}

// selectStudies loads every study and applies the optional name filter.
func (a *App) selectStudies(ctx context.Context, cfg *Config) ([]*study.Study, error) {
	studies, err := a.loader.LoadDir(ctx, cfg.StudiesPath)
	if err != nil {
		return nil, err
	}

	if cfg.StudyName == "" {
		return studies, nil
	}
	for _, s := range studies {
		if s.Name == cfg.StudyName {
			return []*study.Study{s}, nil
		}
	}

	names := make([]string, 0, len(studies))
	for _, s := range studies {
		names = append(names, s.Name)
	}
	return nil, fmt.Errorf("study %q not found (available: %s)", cfg.StudyName, strings.Join(names, ", "))
}
