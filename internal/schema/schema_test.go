package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicBody = `{
	"period_days": 10, "duration_hours": 3, "depth_ppm": 500, "ror": 0.02,
	"radius_re": 1.5, "insolation_se": 1.0, "teq_k": 300,
	"st_teff_k": 5500, "st_logg_cgs": 4.4, "st_rad_re": 1.0
}`

func TestParse_BasicValid(t *testing.T) {
	obs, err := Basic.Parse([]byte(basicBody))
	require.NoError(t, err)

	v, ok := obs.Value(PeriodDays)
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = obs.Value(StMassMs)
	assert.False(t, ok, "optional field should be absent")
	assert.Len(t, obs.Present(), 10)
}

func TestParse_MissingRequiredFields(t *testing.T) {
	_, err := Basic.Parse([]byte(`{"period_days": 10, "depth_ppm": 500}`))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		DurationHours, Ror, RadiusRe, InsolationSe, TeqK, StTeffK, StLoggCgs, StRadRe,
	}, verr.FieldNames())
	for _, f := range verr.Fields {
		assert.Equal(t, "field required", f.Reason)
	}
}

func TestParse_MissionSchemaRequiresMissionAndEpoch(t *testing.T) {
	_, err := Basic.Parse([]byte(basicBody))
	require.NoError(t, err)

	_, err = MissionSchema.Parse([]byte(basicBody))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{Mission, T0BJD}, verr.FieldNames())
}

func TestParse_NullMeansAbsent(t *testing.T) {
	body := `{
		"period_days": null, "duration_hours": 3, "depth_ppm": 500, "ror": 0.02,
		"radius_re": 1.5, "insolation_se": 1.0, "teq_k": 300,
		"st_teff_k": 5500, "st_logg_cgs": 4.4, "st_rad_re": 1.0, "st_mass_ms": null
	}`
	_, err := Basic.Parse([]byte(body))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{PeriodDays}, verr.FieldNames())
}

func TestParse_TypeAndRangeErrors(t *testing.T) {
	body := `{
		"period_days": "ten", "duration_hours": -3, "depth_ppm": 500, "ror": 0.02,
		"radius_re": 1.5, "insolation_se": 1.0, "teq_k": 300,
		"st_teff_k": 5500, "st_logg_cgs": 4.4, "st_rad_re": 1.0,
		"inclination_deg": 200
	}`
	_, err := Basic.Parse([]byte(body))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	assert.Equal(t, []string{PeriodDays, DurationHours, InclinationDeg}, verr.FieldNames())
	assert.Equal(t, "must be a number", verr.Fields[0].Reason)
	assert.Contains(t, verr.Fields[1].Reason, "between")
}

func TestParse_NumericStringsAccepted(t *testing.T) {
	body := `{
		"period_days": "10.5", "duration_hours": 3, "depth_ppm": 500, "ror": 0.02,
		"radius_re": 1.5, "insolation_se": 1.0, "teq_k": 300,
		"st_teff_k": 5500, "st_logg_cgs": 4.4, "st_rad_re": 1.0
	}`
	obs, err := Basic.Parse([]byte(body))
	require.NoError(t, err)
	v, _ := obs.Value(PeriodDays)
	assert.Equal(t, 10.5, v)
}

func TestParse_MalformedBody(t *testing.T) {
	for _, body := range []string{`[1,2]`, `not json`, `null`} {
		_, err := Basic.Parse([]byte(body))
		assert.ErrorIs(t, err, ErrMalformed, body)
	}
}

func TestDecode_NestedStar(t *testing.T) {
	body := `{
		"mission": "Kepler", "t0_bjd": 2454833.2,
		"period_days": 10, "duration_hours": 3, "depth_ppm": 500, "ror": 0.02,
		"radius_re": 1.5, "insolation_se": 1.0, "teq_k": 300,
		"st_rad_re": 0.9,
		"star": {"id": 757450, "name": "KIC 757450", "st_teff_k": 5500, "st_logg_cgs": 4.4, "st_rad_re": 1.2}
	}`
	obs, err := MissionSchema.Parse([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "Kepler", obs.Mission)
	assert.Equal(t, "757450", obs.StarID)
	assert.Equal(t, "KIC 757450", obs.StarName)

	teff, _ := obs.Value(StTeffK)
	assert.Equal(t, 5500.0, teff)
	rad, _ := obs.Value(StRadRe)
	assert.Equal(t, 0.9, rad, "flat field wins over nested star value")
}

func TestValidate_UnknownMission(t *testing.T) {
	obs := NewObservation(map[string]float64{PeriodDays: 1})
	obs.Mission = "Hubble"
	err := Schema{Name: "x"}.Validate(obs)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{Mission}, verr.FieldNames())
}

func TestValidate_ZeroStellarRadiusAllowed(t *testing.T) {
	obs, err := Basic.Parse([]byte(basicBody))
	require.NoError(t, err)
	obs.Set(StRadRe, 0)
	assert.NoError(t, Basic.Validate(obs))
}

func TestObservation_SetIgnoresUnknown(t *testing.T) {
	obs := NewObservation(map[string]float64{"koi_score": 1, PeriodDays: 2})
	assert.Equal(t, []string{PeriodDays}, obs.Present())
	assert.False(t, obs.Has("koi_score"))
}

func TestObservation_WithoutCopies(t *testing.T) {
	obs := NewObservation(map[string]float64{PeriodDays: 2, DepthPPM: 3})
	cut := obs.Without(DepthPPM)
	assert.True(t, obs.Has(DepthPPM))
	assert.False(t, cut.Has(DepthPPM))
}

func TestByName(t *testing.T) {
	s, err := ByName("mission")
	require.NoError(t, err)
	assert.Equal(t, MissionSchema.Name, s.Name)

	s, err = ByName("")
	require.NoError(t, err)
	assert.Equal(t, Basic.Name, s.Name)

	_, err = ByName("k2")
	assert.Error(t, err)
}

func TestFeatureNames_ExcludeMetadata(t *testing.T) {
	names := FeatureNames()
	assert.NotContains(t, names, Mission)
	assert.NotContains(t, names, T0BJD)
	assert.Equal(t, PeriodDays, names[0])
	assert.Len(t, names, 13)
}
