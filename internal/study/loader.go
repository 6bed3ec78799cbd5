package study

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/foamstudy/internal/ctxlog"
	"github.com/vk/foamstudy/internal/fsutil"
)

// fileRoot decodes the top-level blocks of one study file.
type fileRoot struct {
	Studies []*studyBlock `hcl:"study,block"`
	Remain  hcl.Body      `hcl:",remain"`
}

type studyBlock struct {
	Name        string          `hcl:"name,label"`
	Description string          `hcl:"description,optional"`
	Sweeps      []*sweepBlock   `hcl:"sweep,block"`
	Execution   *executionBlock `hcl:"execution,block"`
	Outputs     []string        `hcl:"outputs,optional"`
}

// sweepBlock's label is the parameter path ("section.name"); values stays an
// expression so integers, floats, and mixed lists all coerce through cty.
type sweepBlock struct {
	Parameter string         `hcl:"parameter,label"`
	Values    hcl.Expression `hcl:"values"`
}

type executionBlock struct {
	Solver        []string `hcl:"solver,optional"`
	Timeout       int      `hcl:"timeout,optional"`
	SkipCompleted *bool    `hcl:"skip_completed,optional"`
	Parallel      int      `hcl:"parallel,optional"`
}

// Loader discovers and decodes study definitions.
type Loader struct{}

// NewLoader creates a new study loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDir parses every .hcl file under dir and returns the studies found,
// in file order. Decoding or validation failure of any file fails the load.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*Study, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	logger.Debug("discovered study files", "dir", dir, "count", len(files))

	var studies []*Study
	for _, file := range files {
		loaded, err := l.LoadFile(ctx, file)
		if err != nil {
			return nil, err
		}
		studies = append(studies, loaded...)
	}
	return studies, nil
}

// LoadFile parses one study file.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]*Study, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}

	studies := make([]*Study, 0, len(root.Studies))
	for _, block := range root.Studies {
		s, err := l.translateStudy(ctx, block)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		studies = append(studies, s)
	}
	return studies, nil
}

func (l *Loader) translateStudy(ctx context.Context, block *studyBlock) (*Study, error) {
	logger := ctxlog.FromContext(ctx)

	if len(block.Sweeps) == 0 {
		return nil, fmt.Errorf("study %q declares no sweep blocks", block.Name)
	}

	s := &Study{
		Name:        block.Name,
		Description: block.Description,
		Outputs:     block.Outputs,
		Execution: Execution{
			Solver:        DefaultSolverCommand,
			Timeout:       DefaultTimeout,
			SkipCompleted: true,
			Parallel:      1,
		},
	}

	for _, sw := range block.Sweeps {
		if strings.Count(sw.Parameter, ".") != 1 {
			return nil, fmt.Errorf("study %q: sweep label %q is not a section.name path", block.Name, sw.Parameter)
		}
		values, err := numberList(sw.Values)
		if err != nil {
			return nil, fmt.Errorf("study %q, sweep %q: %w", block.Name, sw.Parameter, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("study %q: sweep %q has no values", block.Name, sw.Parameter)
		}
		s.Sweeps = append(s.Sweeps, Sweep{Parameter: sw.Parameter, Values: values})
	}

	if exec := block.Execution; exec != nil {
		if len(exec.Solver) > 0 {
			s.Execution.Solver = exec.Solver
		}
		if exec.Timeout > 0 {
			s.Execution.Timeout = time.Duration(exec.Timeout) * time.Second
		}
		if exec.SkipCompleted != nil {
			s.Execution.SkipCompleted = *exec.SkipCompleted
		}
		if exec.Parallel > 0 {
			s.Execution.Parallel = exec.Parallel
		}
	}

	logger.Debug("translated study",
		"study", s.Name,
		"sweeps", len(s.Sweeps),
		"runs", len(s.Points()),
	)
	return s, nil
}

// numberList evaluates a values expression and coerces every element to a
// float64 through cty's conversion rules, so `[1, 0.5, 2e-3]` all work.
func numberList(expr hcl.Expression) ([]float64, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating values: %w", diags)
	}
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("values must be a list, got %s", val.Type().FriendlyName())
	}

	var out []float64
	it := val.ElementIterator()
	for it.Next() {
		_, el := it.Element()
		num, err := convert.Convert(el, cty.Number)
		if err != nil {
			return nil, fmt.Errorf("values element %s: %w", el.Type().FriendlyName(), err)
		}
		var f float64
		if err := gocty.FromCtyValue(num, &f); err != nil {
			return nil, fmt.Errorf("values element: %w", err)
		}
		out = append(out, f)
	}
	return out, nil
}
