package schema

import (
	"fmt"
	"strings"
)

// Schema is a named set of mandatory fields. Every schema shares the same
// field catalogue and the same derivation rules.
type Schema struct {
	Name     string
	Required []string
}

var basicRequired = []string{
	PeriodDays, DurationHours, DepthPPM, Ror, RadiusRe,
	InsolationSe, TeqK, StTeffK, StLoggCgs, StRadRe,
}

// Basic is served on /predict.
var Basic = Schema{
	Name:     "basic",
	Required: basicRequired,
}

// MissionSchema is served on /api/predict and additionally requires the
// mission name and the transit epoch.
var MissionSchema = Schema{
	Name:     "mission",
	Required: append([]string{Mission, T0BJD}, basicRequired...),
}

// ByName returns the schema registered under name.
func ByName(name string) (Schema, error) {
	switch strings.ToLower(name) {
	case Basic.Name, "":
		return Basic, nil
	case MissionSchema.Name:
		return MissionSchema, nil
	}
	return Schema{}, fmt.Errorf("unknown schema %q", name)
}

// Validate checks that every mandatory field is present and every present
// field satisfies its range constraint.
func (s Schema) Validate(o Observation) error {
	verr := &ValidationError{}
	for _, name := range s.Required {
		if !o.Has(name) {
			verr.add(name, "field required")
		}
	}
	for _, name := range o.Present() {
		f, _ := Lookup(name)
		v, _ := o.Value(name)
		if reason := f.check(v); reason != "" {
			verr.add(name, reason)
		}
	}
	if o.Mission != "" && !knownMission(o.Mission) {
		verr.add(Mission, "must be one of "+strings.Join(Missions, ", "))
	}
	return verr.errOrNil()
}

// Parse decodes a JSON observation and validates it against the schema.
// Decoding and validation problems are reported together.
func (s Schema) Parse(data []byte) (Observation, error) {
	obs, err := Decode(data)
	verr := &ValidationError{}
	if err != nil {
		de, ok := err.(*ValidationError)
		if !ok {
			return Observation{}, err
		}
		verr.merge(de)
	}
	if err := s.Validate(obs); err != nil {
		for _, fe := range err.(*ValidationError).Fields {
			if !verr.has(fe.Field) {
				verr.add(fe.Field, fe.Reason)
			}
		}
	}
	if err := verr.errOrNil(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

func (e *ValidationError) has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func knownMission(m string) bool {
	for _, k := range Missions {
		if strings.EqualFold(k, m) {
			return true
		}
	}
	return false
}
