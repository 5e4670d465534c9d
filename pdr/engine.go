// Package pdr implements pedestrian dead reckoning: heading fusion
// from magnetometer and device-motion samples, and step detection from
// linear acceleration plus an optional external pedometer.
package pdr

import (
	"time"

	"indoornav/sensors"
)

// Engine owns the heading fuser and step detector for one positioning
// session. It never blocks.
type Engine struct {
	heading *headingFuser
	steps   *stepDetector

	strideScale float64

	magAvailable     bool
	magLastAt        time.Time
	magErr           string
	motionAvailable  bool
	motionLastAt     time.Time
	motionErr        string
	pedoAvailable    bool
	pedoLastAt       time.Time
	pedoErr          string
}

// New creates an engine with heading initialized to startHeading
// (degrees) and stride scale 1.0.
func New(startHeadingDeg float64) *Engine {
	return &Engine{
		heading:     newHeadingFuser(startHeadingDeg),
		steps:       newStepDetector(),
		strideScale: 1.0,
	}
}

// Reset discards all internal state; heading starts at startHeadingDeg
// (or 0 if not supplied by the caller as a non-pointer float, callers
// pass 0 explicitly for "no preference").
func (e *Engine) Reset(startHeadingDeg float64) {
	scale := e.strideScale
	*e = Engine{
		heading:     newHeadingFuser(startHeadingDeg),
		steps:       newStepDetector(),
		strideScale: scale,
	}
}

// SetStrideScale clamps s to [0.6, 1.5] and applies it to subsequent
// step lengths.
func (e *Engine) SetStrideScale(s float64) {
	e.strideScale = clamp(s, 0.6, 1.5)
}

// StrideScale returns the current stride scale factor.
func (e *Engine) StrideScale() float64 { return e.strideScale }

// OnMagnetometer absorbs one magnetometer sample.
func (e *Engine) OnMagnetometer(s sensors.MagSample) {
	e.heading.OnMagnetometer(s)
	e.magAvailable = true
	e.magLastAt = s.At
	e.magErr = ""
}

// MagnetometerUnavailable records a sensor-unavailable signal from the
// adapter, degrading heading reliability to 0 until samples resume.
func (e *Engine) MagnetometerUnavailable(reason string) {
	e.magAvailable = false
	e.magErr = reason
	e.heading.magReliability = 0
}

// OnDeviceMotion absorbs one device-motion sample and returns a step
// event if one fired.
func (e *Engine) OnDeviceMotion(s sensors.DeviceMotionSample) *StepEvent {
	e.heading.OnDeviceMotion(s)
	e.motionAvailable = true
	e.motionLastAt = s.At
	e.motionErr = ""

	ev := e.steps.OnDeviceMotion(s)
	if ev != nil {
		ev.Length *= e.strideScale
	}
	return ev
}

// DeviceMotionUnavailable records a sensor-unavailable signal; step
// detection falls back to pedometer-only.
func (e *Engine) DeviceMotionUnavailable(reason string) {
	e.motionAvailable = false
	e.motionErr = reason
}

// OnPedometer absorbs one cumulative pedometer sample and returns any
// suppressed-or-not step events it produces.
func (e *Engine) OnPedometer(s sensors.PedometerSample) []StepEvent {
	e.pedoAvailable = true
	e.pedoLastAt = s.At
	e.pedoErr = ""

	baseStride := strideBase * e.strideScale
	events := e.steps.OnPedometer(s, baseStride)
	return events
}

// PedometerUnavailable records a sensor-unavailable signal; this is
// non-fatal since device-motion stepping still works.
func (e *Engine) PedometerUnavailable(reason string) {
	e.pedoAvailable = false
	e.pedoErr = reason
}

// Heading returns the current fused heading in [0,360).
func (e *Engine) Heading() float64 { return e.heading.Heading() }

// MagHeading returns the smoothed magnetic-only heading candidate.
func (e *Engine) MagHeading() float64 { return e.heading.MagHeading() }

// MagReliability returns the current magnetometer reliability [0,1].
func (e *Engine) MagReliability() float64 { return e.heading.Reliability() }

// YawRate returns the most recent yaw rate in degrees/sec.
func (e *Engine) YawRate() float64 { return e.heading.YawRate() }

// AlignHeadingToMag snaps fused heading to the magnetic heading.
func (e *Engine) AlignHeadingToMag() { e.heading.AlignToMag() }

// Stationary reports whether the pedestrian is currently stationary.
func (e *Engine) Stationary() bool { return e.steps.Stationary() }

// RecentStep reports whether a device-motion step occurred within the
// given window of now.
func (e *Engine) RecentStep(now time.Time, within time.Duration) bool {
	return e.steps.TimeSinceLastStep(now) < within
}

// Health returns the aggregated availability snapshot for the three
// sensor inputs this engine consumes.
func (e *Engine) Health() sensors.Health {
	return sensors.Health{
		Magnetometer: sensors.Availability{Available: e.magAvailable, LastAt: e.magLastAt, Error: e.magErr},
		DeviceMotion: sensors.Availability{Available: e.motionAvailable, LastAt: e.motionLastAt, Error: e.motionErr},
		Pedometer:    sensors.Availability{Available: e.pedoAvailable, LastAt: e.pedoLastAt, Error: e.pedoErr},
	}
}
