package params

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/vk/foamstudy/internal/ctxlog"
)

// nozzleBaseKey is the fixed base every height-like geometry parameter is
// stacked on: the y position of the nozzle underside (mm).
const nozzleBaseKey = "y_buse_bottom"

// DefaultNozzleBase is the template's nozzle underside position in mm,
// used when the case's parameters file does not carry y_buse_bottom.
const DefaultNozzleBase = 0.198

// mmToMeters converts the template's millimetre values to the SI mirrors
// the mesh dictionary consumes.
const mmToMeters = 1e-3

// dependentKind selects how a dependent is computed from its source.
type dependentKind int

const (
	// sumWithBase: dependent = base + source, in mm.
	sumWithBase dependentKind = iota
	// sumWithBaseMeters: dependent = (base + source) converted to metres.
	sumWithBaseMeters
)

type dependent struct {
	key  string
	kind dependentKind
}

// derivedTable is the fixed dependency graph of geometry parameters. The
// solver's parameter semantics are domain knowledge, so the graph is an
// explicit table rather than something inferred from the file format. Each
// source has at most a handful of dependents: the cumulative top position,
// its metre-unit mirror, and (for the nozzle) the inlet alias of the same
// position under its own semantic name.
var derivedTable = map[string][]dependent{
	"y_buse": {
		{key: "y_buse_top", kind: sumWithBase},
		{key: "y_buse_top_m", kind: sumWithBaseMeters},
		{key: "y_inlet", kind: sumWithBase},
		{key: "y_inlet_m", kind: sumWithBaseMeters},
	},
	"y_air": {
		{key: "y_air_top", kind: sumWithBase},
		{key: "y_air_top_m", kind: sumWithBaseMeters},
	},
}

// Defaults for the fixed well and nozzle dimensions entering the surface
// ratio relation (mm).
const (
	defaultWellWidth   = 0.8   // x_puit
	defaultWellHeight  = 0.128 // y_puit
	defaultNozzleWidth = 0.3   // x_buse
)

// mapGeometry writes a geometry parameter into the case's parameters
// dictionary and recomputes its dependents in the same pass, keeping the
// invariant "top = bottom + height" (and the metre mirrors) true after any
// height change.
func (m *Mapper) mapGeometry(ctx context.Context, name string, value float64) (*Plan, error) {
	if name == "ratio_surface" {
		return m.mapSurfaceRatio(ctx, value)
	}

	plan := newPlan()
	m.writeGeometry(plan, name, value)
	m.cascade(ctx, plan, name, value)
	return plan, nil
}

// mapSurfaceRatio handles the inverse relation: given a target
// nozzle-to-well cross-section ratio and the fixed well dimensions, solve
// for the nozzle height, then cascade it through the standard dependency
// table.
func (m *Mapper) mapSurfaceRatio(ctx context.Context, ratio float64) (*Plan, error) {
	if ratio <= 0 {
		return nil, fmt.Errorf("surface ratio must be positive, got %v", ratio)
	}

	wellWidth := m.store.Number("x_puit", defaultWellWidth)
	wellHeight := m.store.Number("y_puit", defaultWellHeight)
	nozzleWidth := m.store.Number("x_buse", defaultNozzleWidth)
	if nozzleWidth == 0 {
		return nil, errors.New("x_buse is zero, cannot solve for nozzle height")
	}

	nozzleHeight := ratio * (wellWidth * wellHeight) / nozzleWidth
	ctxlog.FromContext(ctx).Debug("solved nozzle height from surface ratio",
		"ratio", ratio, "y_buse", nozzleHeight)

	plan := newPlan()
	m.writeGeometry(plan, "ratio_surface", ratio)
	m.writeGeometry(plan, "y_buse", nozzleHeight)
	m.cascade(ctx, plan, "y_buse", nozzleHeight)
	return plan, nil
}

// writeGeometry records one parameters-file write plus its resolved value.
// Geometry values are formatted to ten significant digits so that sums of
// decimal inputs render as the decimals the operator expects (0.198 + 0.4
// writes 0.598, not the full binary expansion).
func (m *Mapper) writeGeometry(plan *Plan, key string, value float64) {
	plan.addWrite(FileParameters, key, strconv.FormatFloat(value, 'g', 10, 64))
	plan.Resolved[key] = value
	m.store.SetNumber(key, value)
}

// cascade recomputes the dependents of source, if it has any. A malformed
// base value in the store skips the affected dependents and logs them; it
// never aborts the rest of the plan.
func (m *Mapper) cascade(ctx context.Context, plan *Plan, source string, value float64) {
	deps, ok := derivedTable[source]
	if !ok {
		return
	}
	logger := ctxlog.FromContext(ctx)

	base, err := m.store.StrictNumber(nozzleBaseKey)
	switch {
	case errors.Is(err, ErrMalformed):
		for _, d := range deps {
			plan.Skipped = append(plan.Skipped, Skip{
				Key:    d.key,
				Reason: fmt.Sprintf("base %s is not numeric", nozzleBaseKey),
			})
		}
		logger.Warn("skipping derived parameters, base value malformed",
			"source", source, "base", nozzleBaseKey)
		return
	case err != nil:
		base = DefaultNozzleBase
	}

	top := base + value
	for _, d := range deps {
		var v float64
		switch d.kind {
		case sumWithBase:
			v = top
		case sumWithBaseMeters:
			v = top * mmToMeters
		}
		m.writeGeometry(plan, d.key, v)
		logger.Debug("recomputed derived parameter",
			"source", source, "dependent", d.key, "value", v)
	}
}
