package solver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/vk/foamstudy/internal/casedir"
	"github.com/vk/foamstudy/internal/ctxlog"
)

// Status is the terminal state of one solver run.
type Status string

const (
	// StatusCompleted means the log ended with a clean-finish sentinel.
	StatusCompleted Status = "completed"
	// StatusFailed means the solver exited badly or printed a FOAM fatal
	// error (which aborts the run without waiting for the process).
	StatusFailed Status = "failed"
	// StatusTimedOut means the run exceeded its wall-clock budget and was
	// killed.
	StatusTimedOut Status = "timed-out"
)

// Result describes how one solver run ended.
type Result struct {
	Status   Status
	ExitCode int
	LogTail  string
}

const (
	defaultPollInterval = 2 * time.Second
	logTailBytes        = 2048
)

// Runner executes the solver command inside case directories. One Runner is
// safe to share across goroutines; each Run owns its own process.
type Runner struct {
	Command      []string
	Timeout      time.Duration
	PollInterval time.Duration
}

// Run starts the solver in caseDir with stdout and stderr tee'd to run.log,
// then polls the log until the process exits, a fatal error appears, or the
// timeout elapses. A non-zero solver exit is reported in the Result, not as
// an error; errors are reserved for failures to launch or observe the run.
func (r *Runner) Run(ctx context.Context, caseDir string) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	if len(r.Command) == 0 {
		return Result{}, errors.New("solver command is empty")
	}
	poll := r.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if r.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	logPath := filepath.Join(caseDir, casedir.LogName)
	logFile, err := os.Create(logPath)
	if err != nil {
		return Result{}, fmt.Errorf("creating %s: %w", casedir.LogName, err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(runCtx, r.Command[0], r.Command[1:]...)
	cmd.Dir = caseDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	logger.Info("starting solver", "case", caseDir, "command", r.Command)
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("starting solver: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case waitErr := <-done:
			return r.finish(ctx, caseDir, runCtx, waitErr), nil
		case <-ticker.C:
			if casedir.Failed(caseDir) {
				logger.Warn("fatal error in solver log, killing run", "case", caseDir)
				cancel()
				waitErr := <-done
				res := r.finish(ctx, caseDir, runCtx, waitErr)
				res.Status = StatusFailed
				return res, nil
			}
		}
	}
}

// finish classifies the run once the process has exited.
func (r *Runner) finish(ctx context.Context, caseDir string, runCtx context.Context, waitErr error) Result {
	logger := ctxlog.FromContext(ctx)

	res := Result{LogTail: tail(filepath.Join(caseDir, casedir.LogName))}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Status = StatusTimedOut
	case casedir.Failed(caseDir):
		res.Status = StatusFailed
	case waitErr == nil && casedir.Completed(caseDir):
		res.Status = StatusCompleted
	default:
		res.Status = StatusFailed
	}

	logger.Info("solver finished", "case", caseDir, "status", res.Status, "exit_code", res.ExitCode)
	return res
}

// tail returns the last chunk of the log for error reporting.
func tail(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if len(data) > logTailBytes {
		data = data[len(data)-logTailBytes:]
	}
	return string(data)
}
