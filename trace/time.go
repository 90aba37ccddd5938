package trace

import (
	"math"
	"time"
)

// Time in milliseconds
type Time float64

// Live is used as the right edge of a window that follows newly arriving events.
var Live = Time(math.Inf(1))

// Epsilon is the tolerance used when comparing interval bounds and self-times.
const Epsilon Time = 1e-6

func NewTime(t time.Duration) Time { return Time(float64(t) / float64(time.Millisecond)) }

func (t Time) Std() time.Duration {
	return time.Duration(float64(t) * float64(time.Millisecond))
}

func (t Time) IsLive() bool { return math.IsInf(float64(t), 1) }

func (t Time) valid() bool {
	return !math.IsNaN(float64(t)) && !math.IsInf(float64(t), 0) && t >= 0
}

func (t Time) Min(b Time) Time {
	if t < b {
		return t
	}
	return b
}

func (t Time) Max(b Time) Time {
	if t > b {
		return t
	}
	return b
}
