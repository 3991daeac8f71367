// Package features expands a raw observation into the engineered feature
// vector scored by the classifier.
//
// Every derived column is produced by a Rule that statically declares the
// columns it reads. A rule fires only when all of them are present, so a
// missing optional input removes exactly the columns that depend on it and
// nothing else. Denominators carry a fixed additive epsilon; no rule divides
// by exact zero.
package features

import (
	"fmt"
	"math"

	"exoclass/internal/schema"
)

// Derived column names.
const (
	DepthRatio             = "depth_ratio"
	StRadRJ                = "st_rad_rj"
	RorCheck               = "ror_check"
	RorDiff                = "ror_diff"
	DurationFraction       = "duration_fraction"
	DepthPerHour           = "depth_per_hour"
	TeqRatio               = "teq_ratio"
	TempContrast           = "temp_contrast"
	InsolationScaled       = "insolation_scaled"
	LogPeriod              = "log_period"
	ExpectedDepth          = "expected_depth"
	DepthAnomaly           = "depth_anomaly"
	LogSemiMajor           = "log_semi_major"
	OrbitalVelocity        = "orbital_velocity"
	PlanetStarRadiusRatio  = "planet_star_radius_ratio"
	StellarDensityProxy    = "stellar_density_proxy"
	LogTeq                 = "log_teq"
	ImpactParamProxy       = "impact_param_proxy"
	TransitProb            = "transit_prob"
	SignalStrength         = "signal_strength"
	SNRProxy               = "snr_proxy"
	PeriodDepthInteraction = "period_depth_interaction"
	RadiusInsolation       = "radius_insolation"
)

// Epsilons used as denominator guards.
const (
	Eps         = 1e-9
	EpsArea     = 1e-6
	EpsRelative = 1e-3
)

const (
	earthRadiiPerJupiter = 11.2
	solarRadiiPerAU      = 215.032
	daysPerYear          = 365.25
)

// Rule derives one column. Eval receives the values of Requires in the
// declared order.
type Rule struct {
	Name     string
	Requires []string
	Epsilon  float64
	Eval     func(in []float64) float64
}

// Rules is the catalogue in evaluation order. A rule may depend on a raw
// feature field or on a rule listed before it.
var Rules = []Rule{
	{
		Name:     DepthRatio,
		Requires: []string{schema.DepthPPM},
		Eval:     func(in []float64) float64 { return in[0] / 1e6 },
	},
	{
		Name:     StRadRJ,
		Requires: []string{schema.StRadRe},
		Eval:     func(in []float64) float64 { return in[0] / earthRadiiPerJupiter },
	},
	{
		Name:     RorCheck,
		Requires: []string{schema.RadiusRe, schema.StRadRe},
		Epsilon:  Eps,
		Eval:     func(in []float64) float64 { return in[0] / (in[1] + Eps) },
	},
	{
		Name:     RorDiff,
		Requires: []string{schema.Ror, RorCheck},
		Eval:     func(in []float64) float64 { return math.Abs(in[0] - in[1]) },
	},
	{
		Name:     DurationFraction,
		Requires: []string{schema.DurationHours, schema.PeriodDays},
		Epsilon:  Eps,
		Eval:     func(in []float64) float64 { return in[0] / (in[1]*24 + Eps) },
	},
	{
		Name:     DepthPerHour,
		Requires: []string{schema.DepthPPM, schema.DurationHours},
		Epsilon:  Eps,
		Eval:     func(in []float64) float64 { return in[0] / (in[1] + Eps) },
	},
	{
		Name:     TeqRatio,
		Requires: []string{schema.TeqK, schema.StTeffK},
		Epsilon:  Eps,
		Eval:     tempRatio,
	},
	{
		Name:     TempContrast,
		Requires: []string{schema.TeqK, schema.StTeffK},
		Epsilon:  Eps,
		Eval:     tempRatio,
	},
	{
		Name:     InsolationScaled,
		Requires: []string{schema.InsolationSe, schema.StRadRe},
		Epsilon:  EpsArea,
		Eval:     func(in []float64) float64 { return in[0] / (in[1]*in[1] + EpsArea) },
	},
	{
		Name:     LogPeriod,
		Requires: []string{schema.PeriodDays},
		Eval:     func(in []float64) float64 { return math.Log1p(in[0]) },
	},
	{
		Name:     ExpectedDepth,
		Requires: []string{schema.RadiusRe, schema.StRadRe},
		Epsilon:  Eps,
		Eval: func(in []float64) float64 {
			r := in[0] / (in[1] + Eps)
			return r * r * 1e6
		},
	},
	{
		Name:     DepthAnomaly,
		Requires: []string{schema.DepthPPM, ExpectedDepth},
		Epsilon:  EpsRelative,
		Eval:     func(in []float64) float64 { return math.Abs(in[0]-in[1]) / (in[1] + EpsRelative) },
	},
	{
		Name:     LogSemiMajor,
		Requires: []string{schema.SemiMajorAxisAU},
		Eval:     func(in []float64) float64 { return math.Log1p(in[0]) },
	},
	{
		Name:     OrbitalVelocity,
		Requires: []string{schema.SemiMajorAxisAU, schema.PeriodDays},
		Epsilon:  Eps,
		Eval:     func(in []float64) float64 { return 2 * math.Pi * in[0] / (in[1]/daysPerYear + Eps) },
	},
	{
		Name:     PlanetStarRadiusRatio,
		Requires: []string{schema.RadiusRe, schema.StRadRe},
		Epsilon:  Eps,
		Eval:     func(in []float64) float64 { return in[0] / (in[1] + Eps) },
	},
	{
		Name:     StellarDensityProxy,
		Requires: []string{schema.StMassMs, schema.StRadRe},
		Epsilon:  Eps,
		Eval:     func(in []float64) float64 { return in[0] / (in[1]*in[1]*in[1] + Eps) },
	},
	{
		Name:     LogTeq,
		Requires: []string{schema.TeqK},
		Eval:     func(in []float64) float64 { return math.Log1p(in[0]) },
	},
	{
		Name:     ImpactParamProxy,
		Requires: []string{schema.InclinationDeg},
		Eval:     func(in []float64) float64 { return in[0] / 90 },
	},
	{
		Name:     TransitProb,
		Requires: []string{StRadRJ, schema.SemiMajorAxisAU},
		Epsilon:  Eps,
		Eval:     func(in []float64) float64 { return (in[0] + Eps) / (in[1]*solarRadiiPerAU + Eps) },
	},
	{
		Name:     SignalStrength,
		Requires: []string{schema.DepthPPM, schema.DurationHours},
		Eval:     func(in []float64) float64 { return in[0] * math.Sqrt(in[1]) },
	},
	{
		Name:     SNRProxy,
		Requires: []string{schema.DepthPPM, schema.DurationHours},
		Epsilon:  Eps,
		Eval:     func(in []float64) float64 { return in[0] / (in[1] + Eps) },
	},
	{
		Name:     PeriodDepthInteraction,
		Requires: []string{LogPeriod, DepthRatio},
		Eval:     func(in []float64) float64 { return in[0] * in[1] },
	},
	{
		Name:     RadiusInsolation,
		Requires: []string{schema.RadiusRe, schema.InsolationSe},
		Eval:     func(in []float64) float64 { return in[0] * math.Log1p(in[1]) },
	},
}

func tempRatio(in []float64) float64 { return in[0] / (in[1] + Eps) }

// Names returns the derived column names in evaluation order.
func Names() []string {
	names := make([]string, len(Rules))
	for i, r := range Rules {
		names[i] = r.Name
	}
	return names
}

// CheckOrder verifies that rules form a valid evaluation order: names are
// unique, do not shadow raw fields, and every requirement is a raw feature
// field or a rule evaluated earlier.
func CheckOrder(rules []Rule) error {
	available := make(map[string]bool)
	for _, n := range schema.FeatureNames() {
		available[n] = true
	}
	for i, r := range rules {
		if r.Eval == nil {
			return fmt.Errorf("rule %d (%s): missing Eval", i, r.Name)
		}
		if available[r.Name] {
			return fmt.Errorf("rule %d (%s): name already defined", i, r.Name)
		}
		for _, req := range r.Requires {
			if !available[req] {
				return fmt.Errorf("rule %d (%s): requires %s which is not available yet", i, r.Name, req)
			}
		}
		available[r.Name] = true
	}
	return nil
}
