package ml

import "math"

// scorer returns P(CONFIRMED) for an input laid out in artifact column order.
type scorer interface {
	score(x []float64) float64
}

type logisticModel struct {
	intercept float64
	coef      []float64
	means     []float64
	scales    []float64
}

func newLogistic(p *LogisticParams) *logisticModel {
	return &logisticModel{
		intercept: p.Intercept,
		coef:      append([]float64(nil), p.Coefficients...),
		means:     append([]float64(nil), p.Means...),
		scales:    append([]float64(nil), p.Scales...),
	}
}

func (m *logisticModel) score(x []float64) float64 {
	z := m.intercept
	for i, c := range m.coef {
		v := x[i]
		if len(m.means) > 0 {
			v -= m.means[i]
		}
		if len(m.scales) > 0 {
			v /= m.scales[i]
		}
		z += c * v
	}
	return sigmoid(z)
}

type forestModel struct {
	trees []Tree
}

func newForest(p *ForestParams) *forestModel {
	trees := make([]Tree, len(p.Trees))
	for i, t := range p.Trees {
		trees[i] = Tree{Nodes: append([]Node(nil), t.Nodes...)}
	}
	return &forestModel{trees: trees}
}

func (m *forestModel) score(x []float64) float64 {
	var sum float64
	for _, t := range m.trees {
		i := 0
		for !t.Nodes[i].leaf() {
			n := t.Nodes[i]
			if x[n.Feature] <= n.Threshold {
				i = n.Left
			} else {
				i = n.Right
			}
		}
		sum += t.Nodes[i].Value
	}
	return sum / float64(len(m.trees))
}

// sigmoid converts a score to a probability
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func newScorer(a *Artifact) scorer {
	if a.Kind == KindForest {
		return newForest(a.Forest)
	}
	return newLogistic(a.Logistic)
}
