package transition_test

import (
	"errors"
	"math"
	"testing"

	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/pkg/transition"
)

const eps = 1e-9

func TestValues_OneWayLinear(t *testing.T) {
	got, err := transition.Values(0, 100, 5, true, domain.EasingLinear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 25, 50, 75, 100}
	assertSequence(t, got, want)
}

func TestValues_OneWayCosine(t *testing.T) {
	got, err := transition.Values(0, 100, 3, true, domain.EasingCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Cosine easing is symmetric: the midpoint is unchanged.
	assertSequence(t, got, []float64{0, 50, 100})
}

func TestValues_OneWayCosineEndpoints(t *testing.T) {
	got, err := transition.Values(-4, 12, 9, true, domain.EasingCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got[0]-(-4)) > eps {
		t.Errorf("first value must equal from, got %v", got[0])
	}
	if math.Abs(got[len(got)-1]-12) > eps {
		t.Errorf("last value must equal to, got %v", got[len(got)-1])
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1]-eps {
			t.Errorf("one-way sweep must be monotonic, got %v then %v at step %d", got[i-1], got[i], i)
		}
	}
}

func TestValues_SingleStep(t *testing.T) {
	for _, easing := range []domain.Easing{domain.EasingLinear, domain.EasingCosine} {
		got, err := transition.Values(7, 99, 1, true, easing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || math.Abs(got[0]-7) > eps {
			t.Errorf("steps=1 must yield [from], got %v", got)
		}
	}
}

func TestValues_Loop(t *testing.T) {
	for _, easing := range []domain.Easing{domain.EasingLinear, domain.EasingCosine} {
		got, err := transition.Values(10, 20, 8, false, easing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 8 {
			t.Fatalf("expected 8 values, got %d", len(got))
		}
		if math.Abs(got[0]-10) > eps {
			t.Errorf("%s: loop must start at from, got %v", easing, got[0])
		}
		// The half-way frame hits the far end of the sweep.
		if math.Abs(got[4]-20) > eps {
			t.Errorf("%s: expected to=20 at the half-way frame, got %v", easing, got[4])
		}
		// Seamless: the frame after the last one (i == steps) is frame 0 again.
		if math.Abs(got[1]-got[7]) > eps {
			t.Errorf("%s: loop must be symmetric around the half-way frame, got %v vs %v", easing, got[1], got[7])
		}
	}
}

func TestValues_ConstantWhenFromEqualsTo(t *testing.T) {
	for _, oneWay := range []bool{true, false} {
		for _, easing := range []domain.Easing{domain.EasingLinear, domain.EasingCosine} {
			got, err := transition.Values(5, 5, 10, oneWay, easing)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 10 {
				t.Fatalf("expected 10 values, got %d", len(got))
			}
			for i, v := range got {
				if math.Abs(v-5) > eps {
					t.Errorf("oneWay=%v easing=%s: expected constant 5 at step %d, got %v", oneWay, easing, i, v)
				}
			}
		}
	}
}

func TestValues_InvalidSteps(t *testing.T) {
	for _, steps := range []int{0, -3} {
		_, err := transition.Values(0, 1, steps, true, domain.EasingLinear)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("steps=%d: expected ErrInvalidArgument, got %v", steps, err)
		}
	}
}

func TestValues_NoNaN(t *testing.T) {
	got, err := transition.Values(-1000, 1000, 100, false, domain.EasingCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range got {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite value %v at step %d", v, i)
		}
	}
}

func assertSequence(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > eps {
			t.Errorf("step %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
