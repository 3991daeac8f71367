// Package schema defines the raw observation record accepted by the
// classifier: the catalogue of recognised fields, their kinds and range
// constraints, and the named schema variants that differ only in which
// fields are mandatory.
package schema

import "math"

// Kind is the wire type of a field.
type Kind int

const (
	Number Kind = iota
	Text
)

func (k Kind) String() string {
	if k == Text {
		return "string"
	}
	return "number"
}

// Field names.
const (
	Mission         = "mission"
	PeriodDays      = "period_days"
	T0BJD           = "t0_bjd"
	DurationHours   = "duration_hours"
	DepthPPM        = "depth_ppm"
	Ror             = "ror"
	RadiusRe        = "radius_re"
	InsolationSe    = "insolation_se"
	TeqK            = "teq_k"
	StTeffK         = "st_teff_k"
	StLoggCgs       = "st_logg_cgs"
	StRadRe         = "st_rad_re"
	StMassMs        = "st_mass_ms"
	SemiMajorAxisAU = "semi_major_axis_au"
	InclinationDeg  = "inclination_deg"
)

// Field describes one recognised input field.
type Field struct {
	Name string
	Kind Kind
	Min  float64
	Max  float64
	// Feature marks numeric fields that enter the engineered feature vector.
	// Identification and epoch fields are carried but never scored.
	Feature bool
	Help    string
}

// Fields is the catalogue in canonical order. Feature vectors list raw
// columns in this order.
var Fields = []Field{
	{Name: Mission, Kind: Text, Help: "discovering mission (Kepler, K2, TESS)"},
	{Name: PeriodDays, Kind: Number, Min: 0, Max: 1e6, Feature: true, Help: "orbital period [days]"},
	{Name: T0BJD, Kind: Number, Min: 0, Max: 1e8, Help: "transit epoch [BJD]"},
	{Name: DurationHours, Kind: Number, Min: 0, Max: 1e4, Feature: true, Help: "transit duration [hours]"},
	{Name: DepthPPM, Kind: Number, Min: 0, Max: 1e6, Feature: true, Help: "transit depth [ppm]"},
	{Name: Ror, Kind: Number, Min: 0, Max: 1e3, Feature: true, Help: "planet/star radius ratio"},
	{Name: RadiusRe, Kind: Number, Min: 0, Max: 1e4, Feature: true, Help: "planet radius [Earth radii]"},
	{Name: InsolationSe, Kind: Number, Min: 0, Max: 1e7, Feature: true, Help: "insolation [Earth flux]"},
	{Name: TeqK, Kind: Number, Min: 0, Max: 1e5, Feature: true, Help: "equilibrium temperature [K]"},
	{Name: StTeffK, Kind: Number, Min: 0, Max: 1e6, Feature: true, Help: "stellar effective temperature [K]"},
	{Name: StLoggCgs, Kind: Number, Min: -10, Max: 10, Feature: true, Help: "stellar surface gravity [log10 cgs]"},
	{Name: StRadRe, Kind: Number, Min: 0, Max: 1e5, Feature: true, Help: "stellar radius"},
	{Name: StMassMs, Kind: Number, Min: 0, Max: 1e3, Feature: true, Help: "stellar mass [solar masses]"},
	{Name: SemiMajorAxisAU, Kind: Number, Min: 0, Max: 1e5, Feature: true, Help: "semi-major axis [AU]"},
	{Name: InclinationDeg, Kind: Number, Min: 0, Max: 180, Feature: true, Help: "orbital inclination [deg]"},
}

// starFields may also arrive nested under "star".
var starFields = []string{StTeffK, StLoggCgs, StRadRe}

// Missions accepted in the mission field.
var Missions = []string{"Kepler", "K2", "TESS"}

var fieldIndex = func() map[string]int {
	idx := make(map[string]int, len(Fields))
	for i, f := range Fields {
		idx[f.Name] = i
	}
	return idx
}()

// Lookup returns the catalogue entry for name.
func Lookup(name string) (Field, bool) {
	i, ok := fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return Fields[i], true
}

// FeatureNames returns the raw feature columns in canonical order.
func FeatureNames() []string {
	names := make([]string, 0, len(Fields))
	for _, f := range Fields {
		if f.Feature {
			names = append(names, f.Name)
		}
	}
	return names
}

// check reports why v violates the field's constraint, or "" when it holds.
func (f Field) check(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "must be a finite number"
	}
	if v < f.Min || v > f.Max {
		return "must be between " + formatFloat(f.Min) + " and " + formatFloat(f.Max)
	}
	return ""
}
