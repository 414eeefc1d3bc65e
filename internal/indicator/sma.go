package indicator

// SMA calculates a Simple Moving Average over a rolling window of closes.
// Uses a preallocated circular buffer so Update never allocates.
type SMA struct {
	period  int
	buf     []float64 // preallocated circular buffer
	idx     int       // current write position
	count   int       // total values received
	sum     float64
	current float64
}

// NewSMA creates a new SMA with the given period.
func NewSMA(period int) *SMA {
	if period < 1 {
		period = 1
	}
	return &SMA{
		period: period,
		buf:    make([]float64, period),
	}
}

// Period returns the window length.
func (s *SMA) Period() int { return s.period }

// Update feeds the next close.
func (s *SMA) Update(price float64) {
	if s.count >= s.period {
		// Subtract the oldest value being overwritten
		s.sum -= s.buf[s.idx]
	}

	s.buf[s.idx] = price
	s.sum += price
	s.idx = (s.idx + 1) % s.period
	s.count++

	if s.count >= s.period {
		s.current = s.sum / float64(s.period)
	}
}

// Value returns the current average. Returns 0 until Ready.
func (s *SMA) Value() float64 { return s.current }

// Ready reports whether a full window has been seen.
func (s *SMA) Ready() bool { return s.count >= s.period }
