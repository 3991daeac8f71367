package schema

import "sort"

// Observation is one transit-candidate detection. Numeric fields carry
// explicit presence: a field that was never set is absent, which is
// different from a field set to zero.
type Observation struct {
	Mission  string
	StarID   string
	StarName string

	values map[string]float64
}

// NewObservation builds an observation from numeric field values. Names that
// are not in the catalogue are dropped.
func NewObservation(values map[string]float64) Observation {
	o := Observation{values: make(map[string]float64, len(values))}
	for k, v := range values {
		o.Set(k, v)
	}
	return o
}

// Value returns the field value and whether it is present.
func (o Observation) Value(name string) (float64, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Has reports whether the numeric field, or the mission for Mission, is present.
func (o Observation) Has(name string) bool {
	if name == Mission {
		return o.Mission != ""
	}
	_, ok := o.values[name]
	return ok
}

// Set records a numeric field. Unknown and text fields are ignored.
func (o *Observation) Set(name string, v float64) {
	f, ok := Lookup(name)
	if !ok || f.Kind != Number {
		return
	}
	if o.values == nil {
		o.values = make(map[string]float64)
	}
	o.values[name] = v
}

// Without returns a copy of the observation with the named fields removed.
func (o Observation) Without(names ...string) Observation {
	cp := o
	cp.values = make(map[string]float64, len(o.values))
	for k, v := range o.values {
		cp.values[k] = v
	}
	for _, n := range names {
		if n == Mission {
			cp.Mission = ""
			continue
		}
		delete(cp.values, n)
	}
	return cp
}

// Present lists the numeric fields that are set, in catalogue order.
func (o Observation) Present() []string {
	names := make([]string, 0, len(o.values))
	for k := range o.values {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return fieldIndex[names[i]] < fieldIndex[names[j]] })
	return names
}
