package spin

import (
	"time"

	"github.com/hilthontt/spinwheel/internal/domain"
)

// EaseOutCubic maps linear progress to the wheel's deceleration curve.
func EaseOutCubic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	u := 1 - t
	return 1 - u*u*u
}

// RotationAt is the rotation a client must draw at instant now.
func RotationAt(record domain.SpinRecord, now time.Time) float64 {
	if record.Duration <= 0 {
		return record.FinalRotation
	}
	elapsed := float64(now.UnixMilli() - record.StartTime)
	progress := elapsed / float64(record.Duration)
	if progress >= 1 {
		return record.FinalRotation
	}
	return record.FinalRotation * EaseOutCubic(progress)
}
