package positioning

import (
	"testing"
	"time"

	"indoornav/pdr"
	"indoornav/sensors"
)

func TestResetThenZeroStepsYieldsPoseAtP(t *testing.T) {
	svc := New(Config{Start: [2]float64{1, 1}})
	svc.ResetTo([2]float64{5, 5})
	pose := svc.OnSteps(nil, time.Now())
	if pose.X != 5 || pose.Y != 5 {
		t.Fatalf("pose = (%v,%v), want (5,5)", pose.X, pose.Y)
	}
}

func TestPathBufferNeverExceeds240(t *testing.T) {
	svc := New(Config{Start: [2]float64{0, 0}})
	now := time.Now()
	for i := 0; i < 500; i++ {
		svc.OnSteps([]pdr.StepEvent{{Length: 0.1}}, now)
	}
	if len(svc.PathPoints()) > 240 {
		t.Fatalf("path buffer has %d points, want <= 240", len(svc.PathPoints()))
	}
}

func TestWifiToggleOffThenOnPreservesHeading(t *testing.T) {
	svc := New(Config{Start: [2]float64{0, 0}, WifiEnabled: true})
	svc.OnSteps([]pdr.StepEvent{{Length: 0.7}}, time.Now())
	headingBefore := svc.engine.Heading()

	svc.SetWifiEnabled(false)
	svc.SetWifiEnabled(true)

	if svc.engine.Heading() != headingBefore {
		t.Fatalf("heading changed across wifi toggle: %v -> %v", headingBefore, svc.engine.Heading())
	}
}

func TestWifiScanIgnoredWhenStatusNotOK(t *testing.T) {
	svc := New(Config{Start: [2]float64{0, 0}, WifiEnabled: true})
	_, ok := svc.OnWifiScan(sensors.ScanResult{Status: sensors.ScanUnavailable}, time.Now())
	if ok {
		t.Fatal("expected no pose when scan status is not ok")
	}
}

func TestStepsCapAt20PerEvent(t *testing.T) {
	svc := New(Config{Start: [2]float64{0, 0}})
	events := make([]pdr.StepEvent, 50)
	for i := range events {
		events[i] = pdr.StepEvent{Length: 1.0}
	}
	pose := svc.OnSteps(events, time.Now())
	// heading 0 => displacement is (0, -L) per step; 20 steps of
	// length 1.0 => y == -20.
	if pose.Y != -20 {
		t.Fatalf("pose.Y = %v, want -20 (20-step cap)", pose.Y)
	}
}
