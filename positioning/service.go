package positioning

import (
	"time"

	"indoornav/geometry"
	"indoornav/kalman"
	"indoornav/pdr"
	"indoornav/sensors"
	"indoornav/snap"
	"indoornav/wifi"
)

const (
	maxStepsPerEvent  = 20
	recentStepWindow  = 1800 * time.Millisecond
	fastYawRateDegSec = 280.0
	wifiStartSigma    = 1.5
	hardResetDistance = 10.0
	hardResetConf     = 0.75
)

// Service is the top-level positioning orchestration: PDR -> Kalman ->
// snap, plus periodic Wi-Fi absorption. One Service instance belongs
// to exactly one navigation session and is driven by that session's
// single-threaded event loop -- no internal locking.
type Service struct {
	cfg Config

	engine *pdr.Engine
	kf     *kalman.Filter

	lastRawPos [2]float64
	prevEdge   *snap.EdgeRef
	path       pathBuffer
	reportedHeading float64
	hasReported     bool

	lastWifiHealth sensors.WifiHealth

	// OnRelocalize is invoked whenever a Wi-Fi fix triggers a hard
	// Kalman reset, so a UI layer can smooth the visible jump without
	// the core changing its own semantics.
	OnRelocalize func(from, to [2]float64)
}

// New constructs a Service from cfg and initializes it at cfg.Start.
func New(cfg Config) *Service {
	s := &Service{cfg: cfg}
	s.engine = pdr.New(0)
	if cfg.StrideScale > 0 {
		s.engine.SetStrideScale(cfg.StrideScale)
	}
	s.lastRawPos = cfg.Start
	s.path.reset(cfg.Start)
	if cfg.WifiEnabled {
		s.kf = kalman.New(cfg.Start, wifiStartSigma)
	}
	return s
}

// ResetTo reinitializes the PDR engine, replaces the path buffer with
// [p], and resets the Kalman filter (if enabled) to p.
func (s *Service) ResetTo(p [2]float64) {
	s.engine.Reset(0)
	s.lastRawPos = p
	s.path.reset(p)
	s.prevEdge = nil
	if s.kf != nil {
		s.kf.Reset(p, wifiStartSigma)
	}
}

// AlignHeadingToMag sets the fused heading equal to the current
// magnetic heading.
func (s *Service) AlignHeadingToMag() { s.engine.AlignHeadingToMag() }

// SetStrideScale clamps s to [0.6,1.5] and propagates it to the PDR engine.
func (s *Service) SetStrideScale(scale float64) { s.engine.SetStrideScale(scale) }

// SetWifiEnabled toggles Wi-Fi integration; disabling drops the
// Kalman filter entirely (position then tracks raw PDR displacement).
func (s *Service) SetWifiEnabled(enabled bool) {
	s.cfg.WifiEnabled = enabled
	if !enabled {
		s.kf = nil
		return
	}
	if s.kf == nil {
		base := s.currentCenter()
		s.kf = kalman.New(base, wifiStartSigma)
	}
}

// Engine exposes the underlying PDR engine for sensor callbacks.
func (s *Service) Engine() *pdr.Engine { return s.engine }

// currentCenter returns the Kalman center if present, else the raw
// tracked position.
func (s *Service) currentCenter() [2]float64 {
	if s.kf != nil {
		return s.kf.Center()
	}
	return s.lastRawPos
}

// OnSteps runs the pose update protocol for a batch of step events
// produced by one sensor callback, capping the displacement to the
// first 20 steps.
func (s *Service) OnSteps(events []pdr.StepEvent, now time.Time) Pose2D {
	if len(events) > maxStepsPerEvent {
		events = events[:maxStepsPerEvent]
	}

	heading := s.engine.Heading()
	magRel := s.engine.MagReliability()
	sigma := 0.22 + 0.08*(1-magRel)

	for _, ev := range events {
		delta := geometry.HeadingPoint(heading, ev.Length)
		d := [2]float64{delta.X, delta.Y}
		if s.kf != nil {
			s.kf.Predict(d, sigma)
		} else {
			s.lastRawPos[0] += d[0]
			s.lastRawPos[1] += d[1]
		}
	}

	return s.emitPose(SourcePDR, now)
}

// OnWifiScan runs the Wi-Fi scan protocol: compute a fix, decide
// between hard reset and soft update, and emit a pdr_wifi pose. It
// returns (pose, true) if a pose was emitted, or (Pose2D{}, false) if
// the scan produced no usable fix.
func (s *Service) OnWifiScan(result sensors.ScanResult, now time.Time) (Pose2D, bool) {
	s.lastWifiHealth = sensors.WifiHealth{Status: result.Status, Message: result.Message, At: now}
	if result.Status != sensors.ScanOK {
		return Pose2D{}, false
	}
	if !s.cfg.WifiEnabled || s.cfg.Map == nil {
		return Pose2D{}, false
	}

	fix, ok := wifi.Compute(result.Readings, s.cfg.Map.Anchors)
	if !ok {
		return Pose2D{}, false
	}

	if s.kf == nil {
		s.kf = kalman.New(s.currentCenter(), wifiStartSigma)
	}

	center := s.kf.Center()
	dist := geometry.Distance(geometry.Point2{X: center[0], Y: center[1]}, geometry.Point2{X: fix.X, Y: fix.Y})

	if dist > hardResetDistance && fix.Confidence > hardResetConf {
		from := center
		to := [2]float64{fix.X, fix.Y}
		s.kf.Reset(to, wifiStartSigma)
		if s.OnRelocalize != nil {
			s.OnRelocalize(from, to)
		}
	} else {
		measSigma := clampF(6-5.2*fix.Confidence, 1.2, 6)
		s.kf.Update([2]float64{fix.X, fix.Y}, measSigma)
	}

	return s.emitPose(SourcePDRWifi, now), true
}

// emitPose performs steps 4-7 of the pose update protocol: resolve
// the current position, snap it, smooth the reported heading, append
// to the path buffer, and build the observable Pose2D.
func (s *Service) emitPose(source Source, now time.Time) Pose2D {
	center := s.currentCenter()
	p := geometry.Point2{X: center[0], Y: center[1]}

	var res snap.Result
	snapped := false
	if s.cfg.Map != nil {
		res = snap.ToGraph(s.cfg.Map, p, s.prevEdge, s.cfg.Snap.toOptions())
		if res.Edge != nil {
			s.prevEdge = res.Edge
		}
		snapped = res.Distance <= s.cfg.Snap.toOptions().MaxSnapMeters
		p = res.Snapped
	}

	raw := s.engine.Heading()
	if !s.hasReported {
		s.reportedHeading = raw
		s.hasReported = true
	} else {
		s.reportedHeading = geometry.LowPassHeading(s.reportedHeading, raw, 0.18)
	}

	s.path.append([2]float64{p.X, p.Y})

	return Pose2D{
		X:          p.X,
		Y:          p.Y,
		HeadingDeg: s.reportedHeading,
		Timestamp:  now,
		Source:     source,
		Snapped:    snapped,
	}
}

// PathPoints returns a copy of the last up-to-240 positions emitted.
func (s *Service) PathPoints() [][2]float64 { return s.path.Points() }

// ConfidenceTier computes the current side-output trust tier.
func (s *Service) ConfidenceTier(now time.Time) ConfidenceTier {
	c := 0.35
	if s.engine.RecentStep(now, recentStepWindow) {
		c += 0.25
	}
	if !s.engine.Stationary() {
		c += 0.10
	}
	c += (s.engine.MagReliability() - 0.5) * 0.35
	if abs(s.engine.YawRate()) > fastYawRateDegSec {
		c -= 0.08
	}

	switch {
	case c > 0.72:
		return TierGood
	case c > 0.45:
		return TierOK
	default:
		return TierLow
	}
}

// WifiHealth returns the last recorded Wi-Fi scan outcome.
func (s *Service) WifiHealth() sensors.WifiHealth { return s.lastWifiHealth }

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
