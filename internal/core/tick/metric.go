package tick

import "math"

// Metric keeps min, max and mean over a window of samples.
type Metric struct {
	count int
	min   float64
	max   float64
	total float64
}

func NewMetric() Metric {
	return Metric{min: math.Inf(1), max: math.Inf(-1)}
}

func (m *Metric) Sample(v float64) {
	m.min = math.Min(m.min, v)
	m.max = math.Max(m.max, v)
	m.total += v
	m.count++
}

func (m *Metric) Reset() { *m = NewMetric() }

func (m *Metric) Count() int     { return m.count }
func (m *Metric) Total() float64 { return m.total }
func (m *Metric) Min() float64   { return m.min }
func (m *Metric) Max() float64   { return m.max }

// Avg is zero for an empty window.
func (m *Metric) Avg() float64 {
	if m.count == 0 {
		return 0
	}
	return m.total / float64(m.count)
}
