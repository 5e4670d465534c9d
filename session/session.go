// Package session runs the single-consumer event loop that drives a
// positioning + navigation pair from sensor, Wi-Fi, and timer events.
// It is the message-passing core the design notes call for: a single
// event queue fed by possibly-concurrent producers (sensor callbacks,
// a scan timer), drained by exactly one goroutine that owns all
// mutable state. Grounded on the teacher's server/udp.go accept loop
// (`for { select { ... } }` over a socket and a done channel) and
// rbc/sender.go's reconnect loop, generalized from "one socket" to
// "one session."
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"indoornav/geometry"
	"indoornav/navigate"
	"indoornav/pdr"
	"indoornav/positioning"
	"indoornav/sensors"
)

// SensorEventKind discriminates the payload carried by a SensorEvent.
type SensorEventKind int

const (
	KindMagnetometer SensorEventKind = iota
	KindDeviceMotion
	KindPedometer
)

// SensorEvent is one sample from any of the three adapter streams.
type SensorEvent struct {
	Kind   SensorEventKind
	Mag    sensors.MagSample
	Motion sensors.DeviceMotionSample
	Pedo   sensors.PedometerSample
	At     time.Time
}

// WifiEvent carries one completed scan result back into the loop.
type WifiEvent struct {
	Result sensors.ScanResult
	At     time.Time
}

// Command is an arbitrary state-mutating closure run on the session's
// own goroutine -- the mechanism public methods use to serialize
// calls into the single consumer instead of taking a lock.
type Command func(*Session)

// Observers bundles every emitted-event callback a host can supply.
// Any may be nil.
type Observers struct {
	OnPose          func(positioning.Pose2D)
	OnPathPoint     func(geometry.Point2)
	OnRoute         func(*navigate.Route)
	OnInstruction   func(nextInstruction string, distanceToNext float64, next *navigate.Maneuver)
	OnOffRoute      func(bool)
	OnSensorHealth  func(sensors.Health)
}

// Session owns one positioning.Service + navigate.Service pair and
// drains events from sensors/wifi/timers/commands on a single
// goroutine.
type Session struct {
	pos *positioning.Service
	nav *navigate.Service

	scanner  sensors.Scanner
	interval time.Duration
	scanning atomic.Bool

	obs Observers

	sensorCh  chan SensorEvent
	wifiCh    chan WifiEvent
	cmdCh     chan Command
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	lastOffRoute bool
}

// New constructs a session wired to pos and nav, with scanner invoked
// on interval (or never, if scanner is nil).
func New(pos *positioning.Service, nav *navigate.Service, scanner sensors.Scanner, interval time.Duration, obs Observers) *Session {
	return &Session{
		pos:      pos,
		nav:      nav,
		scanner:  scanner,
		interval: interval,
		obs:      obs,
		sensorCh: make(chan SensorEvent, 256),
		wifiCh:   make(chan WifiEvent, 16),
		cmdCh:    make(chan Command, 32),
		done:     make(chan struct{}),
	}
}

// Run drains the event queue until ctx is canceled or Stop is called.
// It is meant to be run in its own goroutine; Run returns once
// draining stops.
func (s *Session) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer close(s.done)

	var scanTimer <-chan time.Time
	var ticker *time.Ticker
	if s.scanner != nil && s.interval > 0 {
		ticker = time.NewTicker(s.interval)
		scanTimer = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case <-runCtx.Done():
			return
		case ev := <-s.sensorCh:
			s.handleSensor(ev)
		case ev := <-s.wifiCh:
			s.handleWifi(ev)
		case <-scanTimer:
			s.triggerScan()
		case cmd := <-s.cmdCh:
			cmd(s)
		}
	}
}

// Stop cancels the run loop. The cancellation is posted onto the
// command queue and run by the loop itself, so a Stop that races ahead
// of Run still takes effect once Run starts. Events enqueued before
// the loop reaches it may still be processed; once Run has returned
// nothing reads the channels, so later events are discarded.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		select {
		case s.cmdCh <- func(sess *Session) { sess.cancel() }:
		default:
			if s.cancel != nil {
				s.cancel()
			}
		}
	})
}

// Done returns a channel closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// PostSensor enqueues a sensor sample for processing on the loop.
// Safe to call from any goroutine (e.g. a platform callback thread).
func (s *Session) PostSensor(ev SensorEvent) {
	select {
	case s.sensorCh <- ev:
	default: // drop under sustained backpressure rather than block a sensor callback
	}
}

// PostWifi enqueues a completed Wi-Fi scan result.
func (s *Session) PostWifi(ev WifiEvent) {
	select {
	case s.wifiCh <- ev:
	default:
	}
}

// Exec runs fn on the session's own goroutine and returns once it has
// run, serializing arbitrary read/mutate operations without a lock.
func (s *Session) Exec(fn func(pos *positioning.Service, nav *navigate.Service)) {
	done := make(chan struct{})
	s.cmdCh <- func(sess *Session) {
		fn(sess.pos, sess.nav)
		close(done)
	}
	<-done
}

// SetDestination posts a destination change onto the loop.
func (s *Session) SetDestination(nodeID string) {
	s.cmdCh <- func(sess *Session) {
		center := sess.pos.PathPoints()
		cur := geometry.Point2{}
		if n := len(center); n > 0 {
			cur = geometry.Point2{X: center[n-1][0], Y: center[n-1][1]}
		}
		sess.nav.SetDestination(nodeID, cur, time.Now())
		sess.emitRoute()
	}
}

func (s *Session) handleSensor(ev SensorEvent) {
	var step *pdr.StepEvent
	switch ev.Kind {
	case KindMagnetometer:
		s.pos.Engine().OnMagnetometer(ev.Mag)
	case KindDeviceMotion:
		step = s.pos.Engine().OnDeviceMotion(ev.Motion)
	case KindPedometer:
		events := s.pos.Engine().OnPedometer(ev.Pedo)
		for i := range events {
			s.applyStep(events[i], ev.At)
		}
		s.emitHealth()
		return
	}

	if step != nil {
		s.applyStep(*step, ev.At)
	}
	s.emitHealth()
}

func (s *Session) applyStep(step pdr.StepEvent, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	pose := s.pos.OnSteps([]pdr.StepEvent{step}, at)
	s.emitPose(pose)
	s.updateNavigation(pose, at)
}

func (s *Session) handleWifi(ev WifiEvent) {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	pose, ok := s.pos.OnWifiScan(ev.Result, at)
	s.emitHealth()
	if !ok {
		return
	}
	s.emitPose(pose)
	s.updateNavigation(pose, at)
}

// triggerScan fires the scan off the event loop goroutine: Scan may
// block for the duration of a radio sweep, and the loop must keep
// draining sensorCh/wifiCh/cmdCh while it runs. The result comes back
// through the same PostWifi path a platform callback would use. If a
// scan from a previous tick is still running, this tick is skipped
// rather than piling up another goroutine behind a stuck scanner.
func (s *Session) triggerScan() {
	if s.scanner == nil {
		return
	}
	if !s.scanning.CompareAndSwap(false, true) {
		return
	}
	scanner := s.scanner
	go func() {
		defer s.scanning.Store(false)
		result := scanner.Scan()
		s.PostWifi(WifiEvent{Result: result, At: time.Now()})
	}()
}

func (s *Session) updateNavigation(pose positioning.Pose2D, at time.Time) {
	st := s.nav.UpdatePosition(geometry.Point2{X: pose.X, Y: pose.Y}, at)
	if s.obs.OnInstruction != nil {
		s.obs.OnInstruction(st.NextInstruction, st.DistanceToNext, st.NextManeuver)
	}
	if st.OffRoute != s.lastOffRoute {
		s.lastOffRoute = st.OffRoute
		if s.obs.OnOffRoute != nil {
			s.obs.OnOffRoute(st.OffRoute)
		}
	}
}

func (s *Session) emitRoute() {
	if s.obs.OnRoute == nil {
		return
	}
	s.obs.OnRoute(s.nav.CurrentRoute())
}

func (s *Session) emitPose(pose positioning.Pose2D) {
	if s.obs.OnPose != nil {
		s.obs.OnPose(pose)
	}
	if s.obs.OnPathPoint != nil {
		s.obs.OnPathPoint(geometry.Point2{X: pose.X, Y: pose.Y})
	}
}

func (s *Session) emitHealth() {
	if s.obs.OnSensorHealth == nil {
		return
	}
	health := s.pos.Engine().Health()
	health.Wifi = s.pos.WifiHealth()
	s.obs.OnSensorHealth(health)
}
