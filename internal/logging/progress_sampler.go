package logging

// ProgressSampler thins out progress logging for a done/total counter so a
// long job logs roughly once per step percent instead of once per item.
type ProgressSampler struct {
	step float64
	next float64
}

// NewProgressSampler returns a sampler reporting every step percent. A
// non-positive step falls back to 10.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step}
}

// Observe records that done of total items finished. It returns the
// completion percentage and whether this observation crossed the next
// reporting step. The first observation and completion always report.
func (s *ProgressSampler) Observe(done, total int) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	percent := float64(done) / float64(total) * 100
	if s == nil {
		return percent, true
	}
	switch {
	case done >= total && s.next <= 100:
		s.next = 100 + s.step
		return percent, true
	case percent >= s.next && s.next <= 100:
		s.next = (float64(int(percent/s.step)) + 1) * s.step
		if s.next > 100 {
			s.next = 100
		}
		return percent, true
	}
	return percent, false
}
