package params

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vk/foamstudy/internal/ctxlog"
)

// Case-relative paths of the dictionary files the mapper targets.
const (
	FileMomentumTransportWater = "constant/momentumTransport.water"
	FileTransportProperties    = "constant/transportProperties"
	FilePhysicalPropsWater     = "constant/physicalProperties.water"
	FilePhysicalPropsAir       = "constant/physicalProperties.air"
	FilePhaseProperties        = "constant/phaseProperties"
	FileControlDict            = "system/controlDict"
	FileAlphaField             = "0/alpha.water"
	FileParameters             = "system/parameters"
)

// ThetaKey is the contact-angle sub-key rewritten inside boundary blocks.
const ThetaKey = "theta0"

// DefaultInkDensity is used for dynamic-to-kinematic viscosity conversion
// when rho_ink is not in the store. Matches the reference ink (kg/m3).
const DefaultInkDensity = 3000.0

// carreauKeys maps the logical Carreau-Yasuda rheology parameters onto the
// keywords the solver's momentum transport dictionaries use.
var carreauKeys = map[string]string{
	"eta0":    "nu0",
	"eta_inf": "nuInf",
	"lambda":  "k",
	"n":       "n",
}

// Write is one pending "set key to value" operation against one file.
type Write struct {
	File  string
	Key   string
	Value string
}

// BlockWrite is one pending sub-key rewrite inside a named block.
type BlockWrite struct {
	File   string
	Block  string
	SubKey string
	Value  string
}

// Skip records a dependent whose recomputation was abandoned, with the
// reason. Skips never fail the batch.
type Skip struct {
	Key    string
	Reason string
}

// Plan is the mapper's output for one logical parameter: the concrete
// writes to perform and the numeric values resolved along the way
// (including derived and unit-converted ones).
type Plan struct {
	Writes      []Write
	BlockWrites []BlockWrite
	Skipped     []Skip
	Resolved    map[string]float64
}

func newPlan() *Plan {
	return &Plan{Resolved: make(map[string]float64)}
}

func (p *Plan) addWrite(file, key, value string) {
	p.Writes = append(p.Writes, Write{File: file, Key: key, Value: value})
}

// Mapper translates logical parameter paths into file writes. All value
// reads and writes go through the shared store so that cross-parameter
// derivations in the same batch observe earlier results.
type Mapper struct {
	store *Store
}

// NewMapper returns a mapper bound to the given store.
func NewMapper(store *Store) *Mapper {
	return &Mapper{store: store}
}

// SplitPath validates and splits a two-level dotted parameter path.
func SplitPath(path string) (section, name string, err error) {
	parts := strings.Split(path, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid parameter path %q: want \"section.name\"", path)
	}
	return parts[0], parts[1], nil
}

// Map resolves one logical parameter assignment into a Plan. An unknown
// section or parameter is an error the caller is expected to log and move
// past; it never carries partial writes.
func (m *Mapper) Map(ctx context.Context, path string, value float64) (*Plan, error) {
	section, name, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	switch section {
	case "rheology":
		return m.mapRheology(ctx, name, value)
	case "contact_angles":
		return m.mapContactAngle(name, value)
	case "surface":
		return m.mapSurface(name, value)
	case "physical":
		return m.mapPhysical(name, value)
	case "numerical":
		return m.mapControlDict(name, value)
	case "process":
		return m.mapProcess(name, value)
	case "geometry":
		return m.mapGeometry(ctx, name, value)
	default:
		return nil, fmt.Errorf("unsupported parameter section %q", section)
	}
}

// mapRheology fans a Carreau parameter out to the momentum transport file
// and the legacy transportProperties mirror, converting dynamic viscosities
// (Pa.s) to the kinematic values (m2/s) the solver expects.
func (m *Mapper) mapRheology(ctx context.Context, name string, value float64) (*Plan, error) {
	ofKey, ok := carreauKeys[name]
	if !ok {
		return nil, fmt.Errorf("unknown rheology parameter %q", name)
	}

	plan := newPlan()
	text := formatNumber(value)
	resolved := value

	if name == "eta0" || name == "eta_inf" {
		rho := m.store.Number("rho_ink", DefaultInkDensity)
		resolved = value / rho
		text = formatScientific(resolved)
		ctxlog.FromContext(ctx).Debug("converted dynamic viscosity to kinematic",
			"parameter", name, "eta", value, "rho", rho, "nu", text)
	}

	plan.addWrite(FileMomentumTransportWater, ofKey, text)
	plan.addWrite(FileTransportProperties, ofKey, text)
	if name == "eta0" {
		// The base viscosity of the Newtonian fallback model must stay in
		// step with the zero-shear Carreau viscosity.
		plan.addWrite(FilePhysicalPropsWater, "nu", text)
	}

	plan.Resolved[ofKey] = resolved
	m.store.SetNumber(ofKey, resolved)
	m.store.SetNumber(name, value)
	return plan, nil
}

// mapContactAngle produces a block write for one boundary surface. The
// solver's contact-angle format holds whole degrees only, so fractional
// inputs are rounded half away from zero on every substitution path.
func (m *Mapper) mapContactAngle(surface string, value float64) (*Plan, error) {
	if surface == "" {
		return nil, fmt.Errorf("empty contact angle surface name")
	}
	deg := math.Round(value)

	plan := newPlan()
	plan.BlockWrites = append(plan.BlockWrites, BlockWrite{
		File:   FileAlphaField,
		Block:  surface,
		SubKey: ThetaKey,
		Value:  strconv.Itoa(int(deg)),
	})
	plan.Resolved["CA_"+surface] = deg
	m.store.SetNumber("CA_"+surface, deg)
	return plan, nil
}

// mapSurface routes surface tension (and friends) to the phase properties
// file and the legacy transportProperties mirror.
func (m *Mapper) mapSurface(name string, value float64) (*Plan, error) {
	plan := newPlan()
	text := formatNumber(value)
	plan.addWrite(FilePhaseProperties, name, text)
	plan.addWrite(FileTransportProperties, name, text)
	plan.Resolved[name] = value
	m.store.SetNumber(name, value)
	return plan, nil
}

// mapPhysical routes phase densities and viscosities to the per-phase
// physical properties files.
func (m *Mapper) mapPhysical(name string, value float64) (*Plan, error) {
	plan := newPlan()
	text := formatNumber(value)

	switch name {
	case "rho_ink":
		plan.addWrite(FilePhysicalPropsWater, "rho", text)
	case "rho_air":
		plan.addWrite(FilePhysicalPropsAir, "rho", text)
	case "nu_air":
		plan.addWrite(FilePhysicalPropsAir, "nu", text)
	default:
		return nil, fmt.Errorf("unknown physical parameter %q", name)
	}

	plan.Resolved[name] = value
	m.store.SetNumber(name, value)
	return plan, nil
}

// mapControlDict writes a solver control keyword as-is.
func (m *Mapper) mapControlDict(name string, value float64) (*Plan, error) {
	plan := newPlan()
	plan.addWrite(FileControlDict, name, formatNumber(value))
	plan.Resolved[name] = value
	m.store.SetNumber(name, value)
	return plan, nil
}

// mapProcess translates process-level names onto their controlDict keys.
func (m *Mapper) mapProcess(name string, value float64) (*Plan, error) {
	if name != "end_time" {
		return nil, fmt.Errorf("process parameter %q has no file mapping", name)
	}
	plan := newPlan()
	plan.addWrite(FileControlDict, "endTime", formatNumber(value))
	plan.Resolved["endTime"] = value
	m.store.SetNumber("endTime", value)
	return plan, nil
}

// formatNumber renders a value the shortest way that round-trips, so whole
// numbers stay integral ("35") and small values keep their magnitude.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatScientific renders normalized scientific notation with six
// fractional digits, e.g. 1.666667e-04.
func formatScientific(v float64) string {
	return fmt.Sprintf("%.6e", v)
}
