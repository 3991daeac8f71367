package features

import "exoclass/internal/schema"

// MetricsTracker receives feature engineering counts.
type MetricsTracker interface {
	FeatureVectorsInc()
	FeatureRuleSkipped(rule string)
}

// Transform builds the engineered vector for obs: the raw feature fields
// that are present, in catalogue order, followed by every derived column
// whose inputs are present, in rule order. It does not validate obs.
func Transform(obs schema.Observation) Vector {
	return TransformWithMetrics(obs, nil)
}

// TransformWithMetrics is Transform with optional metrics tracking.
func TransformWithMetrics(obs schema.Observation, metrics MetricsTracker) Vector {
	raw := schema.FeatureNames()
	vec := newVector(len(raw) + len(Rules))

	for _, name := range raw {
		if v, ok := obs.Value(name); ok {
			vec.add(name, v)
		}
	}

	args := make([]float64, 0, 4)
	for _, r := range Rules {
		args = args[:0]
		for _, req := range r.Requires {
			v, ok := vec.Get(req)
			if !ok {
				break
			}
			args = append(args, v)
		}
		if len(args) != len(r.Requires) {
			if metrics != nil {
				metrics.FeatureRuleSkipped(r.Name)
			}
			continue
		}
		vec.add(r.Name, r.Eval(args))
	}

	if metrics != nil {
		metrics.FeatureVectorsInc()
	}
	return *vec
}
