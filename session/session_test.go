package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"indoornav/navigate"
	"indoornav/positioning"
	"indoornav/sensors"
)

type fakeScanner struct {
	result sensors.ScanResult
}

func (f fakeScanner) Scan() sensors.ScanResult { return f.result }

type slowScanner struct {
	delay   time.Duration
	started chan struct{}
	once    *sync.Once
}

func (s slowScanner) Scan() sensors.ScanResult {
	s.once.Do(func() { close(s.started) })
	time.Sleep(s.delay)
	return sensors.ScanResult{Status: sensors.ScanUnavailable}
}

func TestSessionEmitsPoseOnDeviceMotionStep(t *testing.T) {
	pos := positioning.New(positioning.Config{Start: [2]float64{0, 0}})
	nav := navigate.New()

	var mu sync.Mutex
	var poses int
	obs := Observers{
		OnPose: func(p positioning.Pose2D) {
			mu.Lock()
			poses++
			mu.Unlock()
		},
	}

	sess := New(pos, nav, nil, 0, obs)
	ctx, cancel := context.WithCancel(context.Background())
	go sess.Run(ctx)
	defer cancel()

	// Warm the step detector window with a quiet signal, then post one
	// spike above the threshold followed by a drop below the window
	// mean: a clean peak-exit, so a step event reaches the session.
	sess.Exec(func(p *positioning.Service, n *navigate.Service) {})

	post := func(mag float64) {
		motion := sensors.DeviceMotionSample{
			At:              time.Now(),
			HasAcceleration: true,
			Acceleration:    sensors.Vector3{X: mag, Y: 0, Z: 0},
		}
		sess.PostSensor(SensorEvent{Kind: KindDeviceMotion, Motion: motion, At: time.Now()})
		time.Sleep(time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		post(0.05)
	}
	post(1.0)
	post(0.01)

	// Allow the loop to drain.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := poses
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if poses == 0 {
		t.Fatal("expected at least one pose emission from device-motion steps")
	}
}

func TestSessionStopStopsLoop(t *testing.T) {
	pos := positioning.New(positioning.Config{Start: [2]float64{0, 0}})
	nav := navigate.New()
	sess := New(pos, nav, nil, 0, Observers{})

	ctx := context.Background()
	go sess.Run(ctx)
	sess.Stop()

	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Run to return after Stop")
	}
}

func TestSlowScannerDoesNotStallEventLoop(t *testing.T) {
	pos := positioning.New(positioning.Config{Start: [2]float64{0, 0}})
	nav := navigate.New()
	scanner := slowScanner{delay: 500 * time.Millisecond, started: make(chan struct{}), once: &sync.Once{}}

	sess := New(pos, nav, scanner, 5*time.Millisecond, Observers{})
	ctx, cancel := context.WithCancel(context.Background())
	go sess.Run(ctx)
	defer cancel()

	select {
	case <-scanner.started:
	case <-time.After(time.Second):
		t.Fatal("expected scan to start")
	}

	// The scan above is still sleeping; if triggerScan ran it on the
	// loop goroutine, this Exec would block until the scan returns.
	done := make(chan struct{})
	go func() {
		sess.Exec(func(p *positioning.Service, n *navigate.Service) {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Exec blocked on the loop while a Wi-Fi scan was in flight")
	}
}

func TestExecRunsOnLoopGoroutine(t *testing.T) {
	pos := positioning.New(positioning.Config{Start: [2]float64{2, 3}})
	nav := navigate.New()
	sess := New(pos, nav, nil, 0, Observers{})

	ctx, cancel := context.WithCancel(context.Background())
	go sess.Run(ctx)
	defer cancel()

	var x, y float64
	sess.Exec(func(p *positioning.Service, n *navigate.Service) {
		pts := p.PathPoints()
		x, y = pts[len(pts)-1][0], pts[len(pts)-1][1]
	})
	if x != 2 || y != 3 {
		t.Fatalf("got (%v,%v), want (2,3)", x, y)
	}
}
