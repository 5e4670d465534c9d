// Package kalman implements the constant-position 2D Kalman filter
// used to fuse PDR displacement with Wi-Fi fixes. It mirrors the
// numerical discipline of the teacher engine's EKF (fusion.EKF):
// guarded minimum variances, a determinant floor before inverting the
// innovation covariance, and explicit symmetrization after update.
package kalman

import "math"

// minVariance is the floor applied to process/measurement variances,
// matching fusion.MinDistance-style guards against zero denominators.
const minVariance = 1e-6

// detFloor below which Kalman2D.Update is skipped rather than risking
// a near-singular inverse (spec contract: det(S) <= 1e-12 => skip).
const detFloor = 1e-12

// State is the filter's position estimate and covariance, stored as
// (x, y) and the symmetric 2x2 covariance (p00, p01, p11).
type State struct {
	X, Y           float64
	P00, P01, P11  float64
}

// Filter is a 2D constant-position Kalman filter.
type Filter struct {
	s State
}

// New creates a filter centered at start with isotropic covariance
// posSigma^2 (default 1.5m per the positioning service).
func New(start [2]float64, posSigma float64) *Filter {
	v := posSigma * posSigma
	return &Filter{s: State{X: start[0], Y: start[1], P00: v, P01: 0, P11: v}}
}

// Reset reinitializes the filter at p with isotropic covariance
// posSigma^2, discarding all history.
func (f *Filter) Reset(p [2]float64, posSigma float64) {
	v := posSigma * posSigma
	f.s = State{X: p[0], Y: p[1], P00: v, P01: 0, P11: v}
}

// State returns a copy of the current state.
func (f *Filter) State() State { return f.s }

// Center returns the current position estimate.
func (f *Filter) Center() [2]float64 { return [2]float64{f.s.X, f.s.Y} }

// Predict advances the state by displacement delta, inflating the
// diagonal covariance by procSigma^2 (the off-diagonal term is left
// untouched, matching the spec's predict contract).
func (f *Filter) Predict(delta [2]float64, procSigma float64) {
	q := procSigma * procSigma
	if q < minVariance {
		q = minVariance
	}
	f.s.X += delta[0]
	f.s.Y += delta[1]
	f.s.P00 += q
	f.s.P11 += q
}

// Update absorbs a 2D position measurement z with isotropic noise
// measSigma^2. If the innovation covariance is near-singular the
// update is skipped entirely, leaving the state and covariance
// unchanged.
func (f *Filter) Update(z [2]float64, measSigma float64) {
	r := measSigma * measSigma
	if r < minVariance {
		r = minVariance
	}

	p00, p01, p11 := f.s.P00, f.s.P01, f.s.P11
	s00, s01, s11 := p00+r, p01, p11+r

	det := s00*s11 - s01*s01
	if det <= detFloor {
		return
	}

	// S^-1 for a 2x2 symmetric matrix.
	inv00 := s11 / det
	inv01 := -s01 / det
	inv11 := s00 / det

	// Kalman gain K = P * S^-1 (2x2).
	k00 := p00*inv00 + p01*inv01
	k01 := p00*inv01 + p01*inv11
	k10 := p01*inv00 + p11*inv01
	k11 := p01*inv01 + p11*inv11

	innovX := z[0] - f.s.X
	innovY := z[1] - f.s.Y

	f.s.X += k00*innovX + k01*innovY
	f.s.Y += k10*innovX + k11*innovY

	// Covariance update: P' = P - K*S*K^T, then symmetrize to absorb
	// floating point drift (the teacher engine does the same after
	// every EKF update via its symmetrize helper).
	np00 := p00 - (k00*(k00*s00+k01*s01) + k01*(k00*s01+k01*s11))
	np01 := p01 - (k00*(k10*s00+k11*s01) + k01*(k10*s01+k11*s11))
	np11 := p11 - (k10*(k10*s00+k11*s01) + k11*(k10*s01+k11*s11))

	f.s.P00 = np00
	f.s.P01 = (np01 + np01) / 2 // symmetrize no-op for scalar, kept for clarity
	f.s.P11 = np11
	symmetrizeAndRegularize(&f.s)
}

// symmetrizeAndRegularize clamps tiny negative eigenvalues introduced
// by floating point error back to zero, preserving the PSD invariant
// within numerical slack (spec §8 invariant 4).
func symmetrizeAndRegularize(s *State) {
	if s.P00 < 0 {
		s.P00 = 0
	}
	if s.P11 < 0 {
		s.P11 = 0
	}
	det := s.P00*s.P11 - s.P01*s.P01
	if det < -1e-9 {
		// Numerically degenerate: fall back to an isotropic estimate
		// from the trace rather than leave a non-PSD matrix around.
		avg := (s.P00 + s.P11) / 2
		if avg < 0 {
			avg = 0
		}
		s.P00, s.P11, s.P01 = avg, avg, 0
	}
}

// Trace returns P00+P11, used by callers to watch for divergence.
func (s State) Trace() float64 { return s.P00 + s.P11 }

// IsFinite reports whether the state has no NaN/Inf components.
func (s State) IsFinite() bool {
	vals := []float64{s.X, s.Y, s.P00, s.P01, s.P11}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
