package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vk/foamstudy/internal/casedir"
	"github.com/vk/foamstudy/internal/ctxlog"
	"github.com/vk/foamstudy/internal/params"
	"github.com/vk/foamstudy/internal/patch"
	"github.com/vk/foamstudy/internal/report"
	"github.com/vk/foamstudy/internal/solver"
	"github.com/vk/foamstudy/internal/study"
)

// Run statuses beyond the solver's own. A run is "skipped" when its log
// already shows a clean finish, "planned" in dry-run mode, and "error" when
// preparation or patching failed before the solver could start.
const (
	StatusSkipped = "skipped"
	StatusPlanned = "planned"
	StatusError   = "error"
)

// Options configure one study execution.
type Options struct {
	TemplateDir string
	ResultsDir  string
	DryRun      bool
}

// Runner executes studies against one case template.
type Runner struct {
	store *params.Store
	opts  Options
}

// New returns a runner. The store holds the study-level base parameters and
// is cloned per run, so concurrent runs never share mutable state.
func New(store *params.Store, opts Options) *Runner {
	return &Runner{store: store, opts: opts}
}

// RunStudy expands the study into its sweep points and executes them,
// honoring execution.parallel. Individual run failures are recorded in the
// summary and do not abort the study; only infrastructure failures (e.g. an
// unwritable results directory) return an error.
func (r *Runner) RunStudy(ctx context.Context, s *study.Study) (*report.Summary, error) {
	logger := ctxlog.FromContext(ctx)

	points := s.Points()
	logger.Info("starting study",
		"study", s.Name,
		"runs", len(points),
		"parallel", s.Execution.Parallel,
		"dry_run", r.opts.DryRun,
	)

	summary := &report.Summary{
		Study: s.Name,
		Runs:  make([]report.RunResult, len(points)),
	}
	for _, sw := range s.Sweeps {
		summary.ParameterOrder = append(summary.ParameterOrder, sw.Parameter)
	}

	workers := s.Execution.Parallel
	if r.opts.DryRun || workers < 1 {
		workers = 1
	}

	if workers == 1 {
		for _, p := range points {
			summary.Runs[p.Index] = r.runPoint(ctx, s, p)
		}
	} else {
		queue := make(chan study.Point)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for p := range queue {
					summary.Runs[p.Index] = r.runPoint(ctx, s, p)
				}
			}()
		}
		for _, p := range points {
			queue <- p
		}
		close(queue)
		wg.Wait()
	}

	if !r.opts.DryRun {
		if err := r.writeOutputs(ctx, s, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// runPoint executes one sweep point in its own case directory.
func (r *Runner) runPoint(ctx context.Context, s *study.Study, p study.Point) report.RunResult {
	logger := ctxlog.FromContext(ctx).With("run", p.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	result := report.RunResult{
		Name:       p.Name,
		Parameters: make(map[string]float64, len(p.Assignments)),
	}
	settings := make([]patch.Setting, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		result.Parameters[a.Parameter] = a.Value
		settings = append(settings, patch.Setting{Path: a.Parameter, Value: a.Value})
	}

	caseDir := filepath.Join(r.opts.ResultsDir, p.Name)

	if s.Execution.SkipCompleted && casedir.Completed(caseDir) {
		logger.Info("run already completed, skipping")
		result.Status = StatusSkipped
		return result
	}

	if r.opts.DryRun {
		logger.Info("dry run", "assignments", assignmentSummary(p.Assignments))
		result.Status = StatusPlanned
		return result
	}

	if err := casedir.Prepare(ctx, r.opts.TemplateDir, caseDir); err != nil {
		logger.Error("preparing case failed", "error", err)
		result.Status = StatusError
		return result
	}

	patcher := patch.New(caseDir, r.store.Clone())
	log, resolved, err := patcher.Apply(ctx, settings)
	if err != nil {
		logger.Error("patching case failed", "error", err)
		result.Status = StatusError
		return result
	}
	result.Resolved = resolved

	if err := report.WriteSubstitutionLog(caseDir, log); err != nil {
		logger.Error("writing substitution log failed", "error", err)
		result.Status = StatusError
		return result
	}
	if err := report.WriteResolved(caseDir, resolved); err != nil {
		logger.Error("writing resolved values failed", "error", err)
		result.Status = StatusError
		return result
	}

	solverRunner := &solver.Runner{
		Command: s.Execution.Solver,
		Timeout: s.Execution.Timeout,
	}
	started := time.Now()
	res, err := solverRunner.Run(ctx, caseDir)
	result.DurationS = time.Since(started).Seconds()
	if err != nil {
		logger.Error("launching solver failed", "error", err)
		result.Status = StatusError
		return result
	}

	result.Status = string(res.Status)
	result.ExitCode = res.ExitCode
	return result
}

// writeOutputs renders the requested study-level artifacts into the results
// directory. With no explicit outputs, summary.json is always written.
func (r *Runner) writeOutputs(ctx context.Context, s *study.Study, summary *report.Summary) error {
	logger := ctxlog.FromContext(ctx)

	outputs := s.Outputs
	if len(outputs) == 0 {
		outputs = []string{"summary.json"}
	}

	for _, name := range outputs {
		path := filepath.Join(r.opts.ResultsDir, name)
		var err error
		switch strings.ToLower(filepath.Ext(name)) {
		case ".json":
			err = report.WriteSummaryJSON(path, summary)
		case ".csv":
			err = report.WriteCSV(path, summary)
		case ".xlsx":
			err = report.WriteXLSX(path, summary)
		default:
			err = fmt.Errorf("unsupported output format %q", name)
		}
		if err != nil {
			return fmt.Errorf("writing output %s: %w", name, err)
		}
		logger.Info("wrote study output", "path", path)
	}
	return nil
}

func assignmentSummary(assignments []study.Assignment) string {
	parts := make([]string, 0, len(assignments))
	for _, a := range assignments {
		parts = append(parts, fmt.Sprintf("%s=%g", a.Parameter, a.Value))
	}
	return strings.Join(parts, " ")
}
