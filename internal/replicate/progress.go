package replicate

import "time"

const (
	// progressCeiling is the asymptote of the estimate. The last 10% is
	// reserved for download and reporting after the prediction succeeds.
	progressCeiling = 0.9

	// emitStep bounds progress message volume: a new value is only
	// surfaced once it has advanced at least 5 percentage points.
	emitStep = 0.05
)

// Estimator converts elapsed wall-clock time into a monotone progress
// fraction that approaches but never reaches progressCeiling. The expected
// duration differs by media type (images render fastest, video slowest), so
// callers supply it.
type Estimator struct {
	expected time.Duration
	current  float64
	emitted  float64
}

func NewEstimator(expected time.Duration) *Estimator {
	if expected <= 0 {
		expected = 30 * time.Second
	}
	return &Estimator{expected: expected}
}

// Advance updates the estimate for the given elapsed time and reports
// whether the new value should be emitted. Values never decrease, and a
// value within emitStep of the last emission is suppressed.
func (e *Estimator) Advance(elapsed time.Duration) (float64, bool) {
	t := elapsed.Seconds()
	p := progressCeiling * t / (t + e.expected.Seconds())

	if p < e.current {
		p = e.current
	}
	e.current = p

	if p-e.emitted >= emitStep {
		e.emitted = p
		return p, true
	}
	return p, false
}

// Current returns the latest estimate without advancing it.
func (e *Estimator) Current() float64 {
	return e.current
}
