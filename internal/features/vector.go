package features

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Vector is an ordered set of named numeric columns. It is built once by
// Transform and read-only afterwards.
type Vector struct {
	names  []string
	values []float64
	index  map[string]int
}

func newVector(capacity int) *Vector {
	return &Vector{
		names:  make([]string, 0, capacity),
		values: make([]float64, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

func (v *Vector) add(name string, value float64) {
	v.index[name] = len(v.names)
	v.names = append(v.names, name)
	v.values = append(v.values, value)
}

// Get returns the column value and whether the column is present.
func (v Vector) Get(name string) (float64, bool) {
	i, ok := v.index[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Has reports whether the column is present.
func (v Vector) Has(name string) bool {
	_, ok := v.index[name]
	return ok
}

// Len is the number of columns.
func (v Vector) Len() int { return len(v.names) }

// Names returns a copy of the column names in order.
func (v Vector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Values returns a copy of the column values in order.
func (v Vector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Map returns the columns as a name to value map.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.names))
	for i, n := range v.names {
		m[n] = v.values[i]
	}
	return m
}

// MarshalJSON encodes the vector as a JSON object that keeps column order.
func (v Vector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range v.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(v.values[i], 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
