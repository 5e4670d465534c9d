// Package sensors defines the adapter contract the engine consumes:
// sample shapes for magnetometer, device motion, and pedometer
// callbacks, plus the Wi-Fi scanner contract and the aggregated
// health snapshot surfaced to observers. Nothing in this package
// does any fusion; it only names the boundary types platform
// adapters and the PDR/positioning layers agree on.
package sensors

import "time"

// MagSample is a raw magnetometer reading. Units may be whatever the
// platform reports; the engine only uses magnitude band and bearing.
type MagSample struct {
	X, Y, Z float64
	At      time.Time
}

// Vector3 is a generic 3-axis sample, used for both acceleration
// fields of DeviceMotionSample.
type Vector3 struct {
	X, Y, Z float64
}

// DeviceMotionSample carries whatever subset of attitude, rotation
// rate, and acceleration the platform currently has available. Any
// field may be the zero value with its presence flag false.
type DeviceMotionSample struct {
	At time.Time

	HasRotation  bool
	RotationAlpha float64 // radians or degrees, see AlphaIsRadians

	HasRotationRate  bool
	RotationRateAlpha float64 // angular rate, same unit convention

	HasAcceleration  bool
	Acceleration     Vector3

	HasAccelIncludingGravity bool
	AccelIncludingGravity    Vector3
}

// AlphaIsRadians reports whether an attitude/rate alpha value should
// be treated as radians per the contract's heuristic: values whose
// magnitude is within a hair of 2*pi are radians, anything larger is
// already degrees.
func AlphaIsRadians(alpha float64) bool {
	const twoPi = 6.283185307179586
	return abs(alpha) <= twoPi+0.5
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// PedometerSample is a cumulative, monotonic step count report.
type PedometerSample struct {
	CumulativeSteps int
	At              time.Time
}

// Availability describes whether a sensor is currently delivering
// samples, and why not if it isn't.
type Availability struct {
	Available  bool
	LastAt     time.Time
	Error      string
	Permission string
}

// WifiReading is one access point observation from a scan.
type WifiReading struct {
	BSSID string
	Level float64 // dBm, negative
}

// ScanStatus classifies the outcome of a Wi-Fi scan request.
type ScanStatus string

const (
	ScanOK                ScanStatus = "ok"
	ScanUnavailable        ScanStatus = "unavailable"
	ScanPermissionDenied  ScanStatus = "permission_denied"
	ScanError             ScanStatus = "error"
)

// ScanResult is what a Wi-Fi scanner implementation returns.
type ScanResult struct {
	Readings []WifiReading
	Status   ScanStatus
	Message  string
}

// Scanner is the external collaborator the session calls on its scan
// timer. Implementations may be slow or platform-gated;
// Scan is expected to return promptly or report ScanUnavailable/ScanError
// rather than block indefinitely -- the core sets no timeout of its own.
type Scanner interface {
	Scan() ScanResult
}

// Health is the aggregated sensor health snapshot emitted to
// observers: one Availability per input stream.
type Health struct {
	Magnetometer Availability
	DeviceMotion Availability
	Pedometer    Availability
	Wifi         WifiHealth
}

// WifiHealth carries the last scan outcome for observability.
type WifiHealth struct {
	Status  ScanStatus
	Message string
	At      time.Time
}
