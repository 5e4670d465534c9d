package navigate

import (
	"math"
	"testing"

	"indoornav/geometry"
)

func TestBuildManeuversStartAndArrive(t *testing.T) {
	poly := []geometry.Point2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	ms := BuildManeuvers(poly)
	if ms[0].Type != ManeuverStart || ms[0].AtIndex != 0 {
		t.Fatalf("first maneuver = %+v, want start at 0", ms[0])
	}
	last := ms[len(ms)-1]
	if last.Type != ManeuverArrive || last.AtIndex != len(poly)-1 {
		t.Fatalf("last maneuver = %+v, want arrive at %d", last, len(poly)-1)
	}
	count := map[ManeuverType]int{}
	for _, m := range ms {
		count[m.Type]++
	}
	if count[ManeuverStart] != 1 || count[ManeuverArrive] != 1 {
		t.Fatalf("expected exactly one start and one arrive, got %v", count)
	}
}

func TestBuildManeuversSuppressesNearStraight(t *testing.T) {
	// A gentle bend of about 8.5 degrees should be suppressed (< 28deg threshold).
	poly := []geometry.Point2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 1.5}}
	ms := BuildManeuvers(poly)
	for _, m := range ms {
		if m.Type != ManeuverStart && m.Type != ManeuverArrive {
			t.Fatalf("expected only start/arrive for a near-straight path, got %v", m.Type)
		}
	}
}

func TestBuildManeuversClassifiesTurns(t *testing.T) {
	// Sharp right turn: east then south.
	poly := []geometry.Point2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	ms := BuildManeuvers(poly)
	found := false
	for _, m := range ms {
		if m.Type == ManeuverRight {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a right turn among maneuvers, got %+v", ms)
	}
}

func TestBuildManeuversInteriorDeltaAboveThreshold(t *testing.T) {
	poly := []geometry.Point2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	ms := BuildManeuvers(poly)
	for _, m := range ms {
		if m.Type == ManeuverStart || m.Type == ManeuverArrive {
			continue
		}
		b1 := geometry.Bearing(poly[m.AtIndex-1], poly[m.AtIndex])
		b2 := geometry.Bearing(poly[m.AtIndex], poly[m.AtIndex+1])
		delta := math.Abs(geometry.HeadingDiff(b2, b1))
		if delta < straightThresholdDeg {
			t.Errorf("interior maneuver at %d has |delta|=%v, want >= %v", m.AtIndex, delta, straightThresholdDeg)
		}
	}
}

func TestFormatNextInstruction(t *testing.T) {
	if got := FormatNextInstruction(nil, 0); got != "Select a destination" {
		t.Errorf("nil maneuver = %q", got)
	}
	arrive := &Maneuver{Type: ManeuverArrive}
	if got := FormatNextInstruction(arrive, 1.0); got != "Arrive" {
		t.Errorf("near arrive = %q, want Arrive", got)
	}
	if got := FormatNextInstruction(arrive, 5.0); got != "Continue to destination" {
		t.Errorf("far arrive = %q, want Continue to destination", got)
	}
	turn := &Maneuver{Type: ManeuverLeft, Instruction: "Turn left"}
	if got := FormatNextInstruction(turn, 12.4); got != "In 13 m, Turn left" {
		t.Errorf("turn instruction = %q", got)
	}
}
