package indicator

import (
	"fmt"
	"math"

	"barreplay/internal/feed"
)

// Indicator consumes bars one at a time and exposes a derived value.
type Indicator interface {
	Name() string
	Update(bar feed.Bar)
	Value() float64
}

// SimpleMovingAverage averages one decoded price field over a fixed window.
// Value reports NaN until the window has filled.
type SimpleMovingAverage struct {
	period    int
	appliedOn string
	window    []float64
	next      int
	count     int
	sum       float64
}

// NewSimpleMovingAverage creates an SMA over the given period.
// appliedOn selects the price field: "open", "high", "low" or "close".
func NewSimpleMovingAverage(period int, appliedOn string) *SimpleMovingAverage {
	return &SimpleMovingAverage{
		period:    period,
		appliedOn: appliedOn,
		window:    make([]float64, period),
	}
}

func (s *SimpleMovingAverage) Name() string {
	return fmt.Sprintf("SMA_%d_%s", s.period, s.appliedOn)
}

func (s *SimpleMovingAverage) Update(bar feed.Bar) {
	var price float64
	switch s.appliedOn {
	case feed.ColOpen:
		price = bar.OpenPrice()
	case feed.ColHigh:
		price = bar.HighPrice()
	case feed.ColLow:
		price = bar.LowPrice()
	default:
		price = bar.ClosePrice()
	}

	if s.count == s.period {
		s.sum -= s.window[s.next]
	} else {
		s.count++
	}
	s.window[s.next] = price
	s.sum += price
	s.next = (s.next + 1) % s.period
}

func (s *SimpleMovingAverage) Value() float64 {
	if s.count < s.period {
		return math.NaN()
	}
	return s.sum / float64(s.period)
}
