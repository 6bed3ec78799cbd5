package study

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSolverCommand launches the solver the case templates target.
var DefaultSolverCommand = []string{"foamRun", "-solver", "incompressibleVoF"}

// DefaultTimeout bounds one solver run.
const DefaultTimeout = time.Hour

// Study is one parametric study definition.
type Study struct {
	Name        string
	Description string
	Sweeps      []Sweep
	Execution   Execution
	Outputs     []string
}

// Sweep is one swept parameter with the values to try.
type Sweep struct {
	Parameter string
	Values    []float64
}

// Execution holds per-study run controls.
type Execution struct {
	Solver        []string
	Timeout       time.Duration
	SkipCompleted bool
	Parallel      int
}

// Assignment is one parameter value chosen for one run.
type Assignment struct {
	Parameter string
	Value     float64
}

// Point is one run of the study: a named combination of assignments.
type Point struct {
	Index       int
	Name        string
	Assignments []Assignment
}

// Points expands the study's sweeps into the ordered Cartesian product.
// The last sweep varies fastest, and run names encode every assignment so
// that a results directory is self-describing.
func (s *Study) Points() []Point {
	if len(s.Sweeps) == 0 {
		return nil
	}

	total := 1
	for _, sw := range s.Sweeps {
		total *= len(sw.Values)
	}

	points := make([]Point, 0, total)
	indices := make([]int, len(s.Sweeps))

	for i := 0; i < total; i++ {
		assignments := make([]Assignment, len(s.Sweeps))
		for j, sw := range s.Sweeps {
			assignments[j] = Assignment{Parameter: sw.Parameter, Value: sw.Values[indices[j]]}
		}
		points = append(points, Point{
			Index:       i,
			Name:        runName(i, assignments),
			Assignments: assignments,
		})

		// Odometer increment, rightmost digit fastest.
		for j := len(indices) - 1; j >= 0; j-- {
			indices[j]++
			if indices[j] < len(s.Sweeps[j].Values) {
				break
			}
			indices[j] = 0
		}
	}
	return points
}

// runName builds names like run_001_eta0_0.5 (one sweep) or
// run_003_eta0_0.5_substrate_60 (grid sweeps).
func runName(index int, assignments []Assignment) string {
	parts := []string{fmt.Sprintf("run_%03d", index+1)}
	for _, a := range assignments {
		parts = append(parts, leafName(a.Parameter), formatValue(a.Value))
	}
	return strings.Join(parts, "_")
}

func leafName(parameter string) string {
	if i := strings.LastIndex(parameter, "."); i >= 0 {
		return parameter[i+1:]
	}
	return parameter
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
