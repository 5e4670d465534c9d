package kalman

import (
	"math"
	"testing"
)

func TestNewIsotropicCovariance(t *testing.T) {
	f := New([2]float64{1, 2}, 1.5)
	s := f.State()
	if s.X != 1 || s.Y != 2 {
		t.Fatalf("center = (%v,%v), want (1,2)", s.X, s.Y)
	}
	if s.P00 != s.P11 || s.P01 != 0 {
		t.Fatalf("expected isotropic diagonal covariance, got %+v", s)
	}
}

func TestPredictTranslatesCenterAndInflatesVariance(t *testing.T) {
	f := New([2]float64{0, 0}, 1.0)
	before := f.State()
	f.Predict([2]float64{3, 4}, 0.3)
	after := f.State()

	if after.X != 3 || after.Y != 4 {
		t.Fatalf("center after predict = (%v,%v), want (3,4)", after.X, after.Y)
	}
	if after.P00 <= before.P00 || after.P11 <= before.P11 {
		t.Fatalf("expected covariance to grow on predict: before=%+v after=%+v", before, after)
	}
}

func TestUpdatePullsTowardMeasurement(t *testing.T) {
	f := New([2]float64{0, 0}, 5.0)
	f.Update([2]float64{10, 0}, 0.5)
	s := f.State()
	if s.X <= 0 || s.X >= 10 {
		t.Fatalf("x = %v, want strictly between 0 and 10", s.X)
	}
	if math.Abs(s.Y) > 1e-6 {
		t.Fatalf("y = %v, want ~0 (no y innovation)", s.Y)
	}
}

func TestUpdateShrinksCovariance(t *testing.T) {
	f := New([2]float64{0, 0}, 5.0)
	before := f.State().Trace()
	f.Update([2]float64{1, 1}, 1.0)
	after := f.State().Trace()
	if after >= before {
		t.Fatalf("trace did not shrink: before=%v after=%v", before, after)
	}
}

func TestUpdateSkipsOnSingularInnovation(t *testing.T) {
	f := New([2]float64{0, 0}, 0)
	f.s.P00, f.s.P01, f.s.P11 = 0, 0, 0
	before := f.State()
	f.Update([2]float64{100, 100}, 0)
	after := f.State()
	if after != before {
		t.Fatalf("expected update to be skipped on singular innovation, got %+v want %+v", after, before)
	}
}

func TestRepeatedUpdatesStayFinite(t *testing.T) {
	f := New([2]float64{0, 0}, 2.0)
	for i := 0; i < 500; i++ {
		f.Predict([2]float64{0.01, -0.01}, 0.05)
		f.Update([2]float64{float64(i) * 0.01, float64(i) * -0.01}, 1.5)
		if !f.State().IsFinite() {
			t.Fatalf("state became non-finite at iteration %d: %+v", i, f.State())
		}
	}
}

func TestResetDiscardsHistory(t *testing.T) {
	f := New([2]float64{0, 0}, 1.0)
	f.Predict([2]float64{50, 50}, 1.0)
	f.Reset([2]float64{-3, 7}, 2.0)
	s := f.State()
	if s.X != -3 || s.Y != 7 {
		t.Fatalf("reset center = (%v,%v), want (-3,7)", s.X, s.Y)
	}
	if s.P00 != 4 || s.P11 != 4 || s.P01 != 0 {
		t.Fatalf("reset covariance = %+v, want isotropic 4", s)
	}
}
