package wifi

import (
	"math"
	"testing"

	"indoornav/sensors"
	"indoornav/storemap"
)

func TestComputeWeightedCentroidS3(t *testing.T) {
	anchors := []storemap.Anchor{
		{BSSID: "a", X: 0, Y: 0},
		{BSSID: "b", X: 10, Y: 0},
	}
	readings := []sensors.WifiReading{
		{BSSID: "A", Level: -60},
		{BSSID: "B", Level: -80},
	}
	fix, ok := Compute(readings, anchors)
	if !ok {
		t.Fatal("expected a fix")
	}
	want := 10 * math.Exp(2) / (math.Exp(4) + math.Exp(2))
	if math.Abs(fix.X-want) > 0.05 {
		t.Errorf("fix.X = %v, want ~%v", fix.X, want)
	}
	if fix.Y != 0 {
		t.Errorf("fix.Y = %v, want 0", fix.Y)
	}
	if fix.Matched != 2 {
		t.Errorf("matched = %d, want 2", fix.Matched)
	}
	if fix.BestBSSID != "a" {
		t.Errorf("best = %q, want %q", fix.BestBSSID, "a")
	}
}

func TestComputeNoMatchReturnsNotOK(t *testing.T) {
	anchors := []storemap.Anchor{{BSSID: "a", X: 0, Y: 0}}
	readings := []sensors.WifiReading{{BSSID: "zzz", Level: -50}}
	_, ok := Compute(readings, anchors)
	if ok {
		t.Fatal("expected no fix for unmatched bssid")
	}
}

func TestComputeEmptyScanReturnsNotOK(t *testing.T) {
	_, ok := Compute(nil, []storemap.Anchor{{BSSID: "a", X: 0, Y: 0}})
	if ok {
		t.Fatal("expected no fix for empty scan")
	}
}

func TestConfidenceClampedToRange(t *testing.T) {
	anchors := []storemap.Anchor{{BSSID: "a", X: 0, Y: 0}}
	readings := []sensors.WifiReading{{BSSID: "a", Level: -30}} // clamps to -35
	fix, ok := Compute(readings, anchors)
	if !ok {
		t.Fatal("expected a fix")
	}
	if fix.Confidence < confLo || fix.Confidence > confHi {
		t.Errorf("confidence = %v out of [%v,%v]", fix.Confidence, confLo, confHi)
	}
}

func TestComputeCaseInsensitiveBSSIDMatch(t *testing.T) {
	anchors := []storemap.Anchor{{BSSID: storemap.NormalizeBSSID(" AA:BB "), X: 3, Y: 4}}
	readings := []sensors.WifiReading{{BSSID: "aa:bb", Level: -50}}
	fix, ok := Compute(readings, anchors)
	if !ok {
		t.Fatal("expected a fix")
	}
	if fix.X != 3 || fix.Y != 4 {
		t.Errorf("fix = (%v,%v), want (3,4)", fix.X, fix.Y)
	}
}
