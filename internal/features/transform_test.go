package features

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exoclass/internal/schema"
)

const tol = 1e-9

func scenario() schema.Observation {
	return schema.NewObservation(map[string]float64{
		schema.PeriodDays:    10,
		schema.DurationHours: 3,
		schema.DepthPPM:      500,
		schema.Ror:           0.02,
		schema.RadiusRe:      1.5,
		schema.InsolationSe:  1.0,
		schema.TeqK:          300,
		schema.StTeffK:       5500,
		schema.StLoggCgs:     4.4,
		schema.StRadRe:       1.0,
	})
}

func withOptional() schema.Observation {
	obs := scenario()
	obs.Set(schema.StMassMs, 1.1)
	obs.Set(schema.SemiMajorAxisAU, 0.09)
	obs.Set(schema.InclinationDeg, 89.1)
	return obs
}

func assertClose(t *testing.T, want, got float64, name string) {
	t.Helper()
	scale := math.Max(1, math.Abs(want))
	if math.Abs(got-want) > tol*scale {
		t.Errorf("%s: expected %.12g, got %.12g", name, want, got)
	}
}

type mockTracker struct {
	vectors int
	skipped map[string]int
}

func (m *mockTracker) FeatureVectorsInc() { m.vectors++ }

func (m *mockTracker) FeatureRuleSkipped(rule string) {
	if m.skipped == nil {
		m.skipped = make(map[string]int)
	}
	m.skipped[rule]++
}

func TestCheckOrder_Catalogue(t *testing.T) {
	require.NoError(t, CheckOrder(Rules))
}

func TestCheckOrder_RejectsForwardDependency(t *testing.T) {
	rules := []Rule{
		{Name: "b", Requires: []string{"a"}, Eval: func([]float64) float64 { return 0 }},
		{Name: "a", Requires: []string{schema.PeriodDays}, Eval: func([]float64) float64 { return 0 }},
	}
	assert.Error(t, CheckOrder(rules))
}

func TestCheckOrder_RejectsShadowingRawField(t *testing.T) {
	rules := []Rule{{Name: schema.PeriodDays, Eval: func([]float64) float64 { return 0 }}}
	assert.Error(t, CheckOrder(rules))
}

func TestTransform_Scenario(t *testing.T) {
	vec := Transform(scenario())

	depthRatio, ok := vec.Get(DepthRatio)
	require.True(t, ok)
	assertClose(t, 0.0005, depthRatio, DepthRatio)

	durFrac, _ := vec.Get(DurationFraction)
	assertClose(t, 3/(240+1e-9), durFrac, DurationFraction)
	assert.InDelta(t, 0.0125, durFrac, 1e-9)

	logPeriod, _ := vec.Get(LogPeriod)
	assertClose(t, math.Log(11), logPeriod, LogPeriod)
	assert.InDelta(t, 2.3979, logPeriod, 1e-4)
}

func TestTransform_Formulas(t *testing.T) {
	obs := withOptional()
	vec := Transform(obs)

	period, depth, dur := 10.0, 500.0, 3.0
	ror, radius, insol := 0.02, 1.5, 1.0
	teq, teff, srad := 300.0, 5500.0, 1.0
	mass, au, inc := 1.1, 0.09, 89.1

	rorCheck := radius / (srad + 1e-9)
	expDepth := math.Pow(radius/(srad+1e-9), 2) * 1e6
	stRadRJ := srad / 11.2

	want := map[string]float64{
		DepthRatio:             depth / 1e6,
		StRadRJ:                stRadRJ,
		RorCheck:               rorCheck,
		RorDiff:                math.Abs(ror - rorCheck),
		DurationFraction:       dur / (period*24 + 1e-9),
		DepthPerHour:           depth / (dur + 1e-9),
		TeqRatio:               teq / (teff + 1e-9),
		TempContrast:           teq / (teff + 1e-9),
		InsolationScaled:       insol / (srad*srad + 1e-6),
		LogPeriod:              math.Log(1 + period),
		ExpectedDepth:          expDepth,
		DepthAnomaly:           math.Abs(depth-expDepth) / (expDepth + 1e-3),
		LogSemiMajor:           math.Log(1 + au),
		OrbitalVelocity:        2 * math.Pi * au / (period/365.25 + 1e-9),
		PlanetStarRadiusRatio:  radius / (srad + 1e-9),
		StellarDensityProxy:    mass / (math.Pow(srad, 3) + 1e-9),
		LogTeq:                 math.Log(1 + teq),
		ImpactParamProxy:       inc / 90,
		TransitProb:            (stRadRJ + 1e-9) / (au*215.032 + 1e-9),
		SignalStrength:         depth * math.Sqrt(dur),
		SNRProxy:               depth / (dur + 1e-9),
		PeriodDepthInteraction: math.Log(1+period) * (depth / 1e6),
		RadiusInsolation:       radius * math.Log(1+insol),
	}

	require.Len(t, want, len(Rules))
	for name, w := range want {
		got, ok := vec.Get(name)
		if !assert.True(t, ok, "missing %s", name) {
			continue
		}
		assertClose(t, w, got, name)
	}
}

func TestTransform_RawFieldsUnchanged(t *testing.T) {
	obs := withOptional()
	vec := Transform(obs)
	for _, name := range obs.Present() {
		want, _ := obs.Value(name)
		got, ok := vec.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestTransform_ColumnOrder(t *testing.T) {
	vec := Transform(withOptional())
	want := append(schema.FeatureNames(), Names()...)
	if diff := cmp.Diff(want, vec.Names()); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_OptionalAbsenceSuppressesDependents(t *testing.T) {
	tests := []struct {
		name   string
		drop   string
		absent []string
	}{
		{
			name:   "no stellar mass",
			drop:   schema.StMassMs,
			absent: []string{StellarDensityProxy},
		},
		{
			name:   "no semi-major axis",
			drop:   schema.SemiMajorAxisAU,
			absent: []string{LogSemiMajor, OrbitalVelocity, TransitProb},
		},
		{
			name:   "no inclination",
			drop:   schema.InclinationDeg,
			absent: []string{ImpactParamProxy},
		},
		{
			name: "no stellar radius",
			drop: schema.StRadRe,
			absent: []string{
				StRadRJ, RorCheck, RorDiff, InsolationScaled, ExpectedDepth,
				DepthAnomaly, PlanetStarRadiusRatio, StellarDensityProxy, TransitProb,
			},
		},
		{
			name:   "no depth",
			drop:   schema.DepthPPM,
			absent: []string{DepthRatio, DepthPerHour, DepthAnomaly, SignalStrength, SNRProxy, PeriodDepthInteraction},
		},
		{
			name:   "no period",
			drop:   schema.PeriodDays,
			absent: []string{DurationFraction, LogPeriod, OrbitalVelocity, PeriodDepthInteraction},
		},
	}

	full := Transform(withOptional())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := Transform(withOptional().Without(tt.drop))

			assert.False(t, vec.Has(tt.drop))
			for _, name := range tt.absent {
				assert.False(t, vec.Has(name), "%s should be absent", name)
			}

			// Every other column is still present with the same value.
			absent := map[string]bool{tt.drop: true}
			for _, n := range tt.absent {
				absent[n] = true
			}
			for _, name := range full.Names() {
				if absent[name] {
					continue
				}
				want, _ := full.Get(name)
				got, ok := vec.Get(name)
				assert.True(t, ok, "%s should be present", name)
				assert.Equal(t, want, got, name)
			}
		})
	}
}

func TestTransform_EmptyObservation(t *testing.T) {
	vec := Transform(schema.Observation{})
	assert.Equal(t, 0, vec.Len())
}

func TestTransform_ZeroStellarRadiusIsFinite(t *testing.T) {
	obs := withOptional()
	obs.Set(schema.StRadRe, 0)
	vec := Transform(obs)

	for _, name := range []string{RorCheck, StellarDensityProxy, ExpectedDepth, InsolationScaled, DepthAnomaly} {
		v, ok := vec.Get(name)
		require.True(t, ok, name)
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "%s = %v", name, v)
	}

	rorCheck, _ := vec.Get(RorCheck)
	assertClose(t, 1.5/1e-9, rorCheck, RorCheck)
	density, _ := vec.Get(StellarDensityProxy)
	assertClose(t, 1.1/1e-9, density, StellarDensityProxy)
	assert.Greater(t, rorCheck, 1e8, "guarded value should be large")
}

func TestTransform_ZeroDenominatorsAreFinite(t *testing.T) {
	obs := withOptional()
	for _, name := range []string{schema.PeriodDays, schema.DurationHours, schema.StTeffK, schema.SemiMajorAxisAU} {
		obs.Set(name, 0)
	}
	vec := Transform(obs)
	for i, v := range vec.Values() {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "%s = %v", vec.Names()[i], v)
	}
}

func TestTransform_Deterministic(t *testing.T) {
	a := Transform(withOptional())
	b := Transform(withOptional())
	assert.Equal(t, a.Names(), b.Names())
	for i, v := range a.Values() {
		assert.Equal(t, math.Float64bits(v), math.Float64bits(b.Values()[i]))
	}
}

func TestTransformWithMetrics(t *testing.T) {
	m := &mockTracker{}
	TransformWithMetrics(scenario(), m)

	assert.Equal(t, 1, m.vectors)
	assert.Equal(t, map[string]int{
		LogSemiMajor:        1,
		OrbitalVelocity:     1,
		StellarDensityProxy: 1,
		ImpactParamProxy:    1,
		TransitProb:         1,
	}, m.skipped)
}

func TestVector_MarshalJSONKeepsOrder(t *testing.T) {
	vec := Transform(scenario())
	data, err := json.Marshal(vec)
	require.NoError(t, err)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, vec.Len())
	assert.Equal(t, vec.Map(), decoded)

	assert.Equal(t, byte('{'), data[0])
	assert.Contains(t, string(data[:30]), `"period_days":10`)
}

func TestVector_AccessorsReturnCopies(t *testing.T) {
	vec := Transform(scenario())
	names := vec.Names()
	names[0] = "mutated"
	values := vec.Values()
	values[0] = -1

	assert.Equal(t, schema.PeriodDays, vec.Names()[0])
	v, _ := vec.Get(schema.PeriodDays)
	assert.Equal(t, 10.0, v)
}
