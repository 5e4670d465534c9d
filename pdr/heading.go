package pdr

import (
	"math"
	"time"

	"indoornav/geometry"
	"indoornav/sensors"
)

// headingFuser tracks a fused compass heading from magnetometer field
// samples and device-motion attitude/rotation-rate samples. It mirrors
// the structure of the other_examples magnetometer/AHRS fusers (a
// small struct of running EMA state updated by one method per sample
// stream) but follows the exact blend formulas the positioning
// service requires rather than a Mahony/Madgwick full attitude filter.
type headingFuser struct {
	magEMA        float64
	magReliability float64
	magHeading    float64
	hasMagHeading bool

	fused    float64
	lastRate float64 // most recent yaw rate, degrees/sec
	lastMotionAt time.Time
	hasMotion bool
}

const (
	magEMAAlpha   = 0.08
	magBandLow    = 15.0
	magBandHigh   = 80.0
	magRelSlow    = 0.85
	magRelFast    = 0.15
	fastTurnDegPerSec = 140.0
	fastTurnGain      = 0.2
	attitudeStepClampDeg = 20.0
)

func newHeadingFuser(startHeading float64) *headingFuser {
	return &headingFuser{fused: geometry.WrapHeading(startHeading)}
}

// OnMagnetometer absorbs one magnetometer sample.
func (h *headingFuser) OnMagnetometer(s sensors.MagSample) {
	mag3 := math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
	if h.magEMA == 0 {
		h.magEMA = mag3
	} else {
		h.magEMA = (1-magEMAAlpha)*h.magEMA + magEMAAlpha*mag3
	}

	instant := 0.0
	if h.magEMA > magBandLow && h.magEMA < magBandHigh {
		dev := math.Abs(mag3 - h.magEMA)
		if dev < h.magEMA*0.5 {
			instant = 1
		}
	}
	h.magReliability = magRelSlow*h.magReliability + magRelFast*instant

	candidate := geometry.WrapHeading(math.Atan2(s.Y, s.X) * 180 / math.Pi)
	if !h.hasMagHeading {
		h.magHeading = candidate
		h.hasMagHeading = true
	} else {
		blend := 0.03 + 0.09*h.magReliability
		h.magHeading = geometry.LowPassHeading(h.magHeading, candidate, blend)
	}

	h.applySlowMagCorrection()
}

// applySlowMagCorrection nudges the fused heading toward magHeading
// at a rate throttled during fast turns, called after every
// magnetometer and device-motion sample so the correction tracks
// continuously rather than only on mag updates.
func (h *headingFuser) applySlowMagCorrection() {
	if !h.hasMagHeading {
		return
	}
	fTurn := 1.0
	if math.Abs(h.lastRate) > fastTurnDegPerSec {
		fTurn = fastTurnGain
	}
	g := (0.008 + 0.05*h.magReliability) * fTurn
	h.fused = geometry.LowPassHeading(h.fused, h.magHeading, g)
}

// OnDeviceMotion absorbs one device-motion sample's rotation/rotationRate
// fields (acceleration fields are handled separately by the step detector).
func (h *headingFuser) OnDeviceMotion(s sensors.DeviceMotionSample) {
	if s.HasRotation {
		yaw := s.RotationAlpha
		if sensors.AlphaIsRadians(yaw) {
			yaw = yaw * 180 / math.Pi
		}
		yaw = geometry.WrapHeading(yaw)
		h.stepToward(yaw, attitudeStepClampDeg)
	}

	if s.HasRotationRate {
		rate := s.RotationRateAlpha
		if sensors.AlphaIsRadians(rate) {
			rate = rate * 180 / math.Pi
		}
		h.lastRate = rate

		if h.hasMotion && !s.At.IsZero() && !h.lastMotionAt.IsZero() {
			dt := s.At.Sub(h.lastMotionAt).Seconds()
			if dt < 0.001 {
				dt = 0.001
			} else if dt > 0.2 {
				dt = 0.2
			}
			h.fused = geometry.WrapHeading(h.fused + rate*dt)
		}
	}

	if !s.At.IsZero() {
		h.lastMotionAt = s.At
		h.hasMotion = true
	}

	h.applySlowMagCorrection()
}

// stepToward nudges fused toward target by at most clampDeg.
func (h *headingFuser) stepToward(target, clampDeg float64) {
	diff := geometry.HeadingDiff(target, h.fused)
	if diff > clampDeg {
		diff = clampDeg
	} else if diff < -clampDeg {
		diff = -clampDeg
	}
	h.fused = geometry.WrapHeading(h.fused + diff)
}

// Heading returns the current fused heading in [0,360).
func (h *headingFuser) Heading() float64 { return h.fused }

// MagHeading returns the smoothed magnetic-only heading candidate.
func (h *headingFuser) MagHeading() float64 { return h.magHeading }

// Reliability returns the current magnetometer reliability in [0,1].
func (h *headingFuser) Reliability() float64 { return h.magReliability }

// YawRate returns the most recently observed yaw rate in degrees/sec.
func (h *headingFuser) YawRate() float64 { return h.lastRate }

// AlignToMag snaps fused heading to the current magnetic heading.
func (h *headingFuser) AlignToMag() {
	if h.hasMagHeading {
		h.fused = h.magHeading
	}
}

// SetHeading forcibly overrides the fused heading.
func (h *headingFuser) SetHeading(deg float64) {
	h.fused = geometry.WrapHeading(deg)
}
