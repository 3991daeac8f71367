package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when the body is not a JSON object.
var ErrMalformed = errors.New("malformed observation")

const starKey = "star"

// Decode reads a JSON object into an Observation. Unknown keys are ignored
// and null means absent. Numeric strings are accepted for number fields.
// Stellar fields may also be given in a nested "star" object; flat fields
// take precedence. Type errors are returned as a *ValidationError and the
// partially decoded observation is still returned.
func Decode(data []byte) (Observation, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return Observation{}, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}

	obs := Observation{values: make(map[string]float64)}
	verr := &ValidationError{}

	for _, f := range Fields {
		msg, ok := raw[f.Name]
		if !ok || isNull(msg) {
			continue
		}
		switch f.Kind {
		case Text:
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				verr.add(f.Name, "must be a string")
				continue
			}
			if f.Name == Mission {
				obs.Mission = strings.TrimSpace(s)
			}
		case Number:
			v, err := decodeNumber(msg)
			if err != nil {
				verr.add(f.Name, err.Error())
				continue
			}
			obs.values[f.Name] = v
		}
	}

	if msg, ok := raw[starKey]; ok && !isNull(msg) {
		decodeStar(msg, &obs, verr)
	}

	return obs, verr.errOrNil()
}

func decodeStar(msg json.RawMessage, obs *Observation, verr *ValidationError) {
	var star map[string]json.RawMessage
	if err := json.Unmarshal(msg, &star); err != nil {
		verr.add(starKey, "must be an object")
		return
	}
	for _, name := range starFields {
		v, ok := star[name]
		if !ok || isNull(v) {
			continue
		}
		if _, flat := obs.values[name]; flat {
			continue
		}
		n, err := decodeNumber(v)
		if err != nil {
			verr.add(starKey+"."+name, err.Error())
			continue
		}
		obs.values[name] = n
	}
	if v, ok := star["id"]; ok && !isNull(v) {
		obs.StarID = scalarString(v)
	}
	if v, ok := star["name"]; ok && !isNull(v) {
		obs.StarName = scalarString(v)
	}
}

func decodeNumber(msg json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(msg, &v); err == nil {
		return v, nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
	}
	return 0, errors.New("must be a number")
}

func scalarString(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(msg))
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}
