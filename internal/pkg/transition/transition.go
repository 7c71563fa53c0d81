// Package transition generates smooth per-frame parameter sequences for
// animation, so callers never hand-write the easing trigonometry.
package transition

import (
	"fmt"
	"math"

	"github.com/aitorve/terramotion/internal/core/domain"
)

// Values produces steps interpolated values between from and to.
//
// With oneWay the sequence sweeps monotonically from from to to: the
// normalized progress p = i/(steps-1) is mapped through the easing to an
// interpolation weight (linear: w = p; cosine: w = (1-cos(pπ))/2, zero
// velocity at both ends).
//
// Without oneWay the sequence sweeps out and back over one full period
// (p = i/steps), so frame 0 of the next loop continues seamlessly:
// cosine uses w = (1-cos(2πp))/2 and linear uses a triangular sweep.
//
// from == to is legal and yields a constant sequence.
func Values(from, to float64, steps int, oneWay bool, easing domain.Easing) ([]float64, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", domain.ErrInvalidArgument, steps)
	}

	out := make([]float64, steps)
	for i := 0; i < steps; i++ {
		var w float64
		if oneWay {
			p := 0.0
			if steps > 1 {
				p = float64(i) / float64(steps-1)
			}
			w = easeOneWay(p, easing)
		} else {
			p := float64(i) / float64(steps)
			w = easeLoop(p, easing)
		}
		out[i] = from + (to-from)*w
	}
	return out, nil
}

func easeOneWay(p float64, easing domain.Easing) float64 {
	if easing == domain.EasingCosine {
		return (1 - math.Cos(p*math.Pi)) / 2
	}
	return p
}

func easeLoop(p float64, easing domain.Easing) float64 {
	if easing == domain.EasingCosine {
		return (1 - math.Cos(2*p*math.Pi)) / 2
	}
	// Triangular sweep: up to 1 at the half-way frame, back down.
	if p <= 0.5 {
		return 2 * p
	}
	return 2 * (1 - p)
}
