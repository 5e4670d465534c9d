// Package wifi computes a weighted-centroid position fix from a Wi-Fi
// scan and a known anchor set, plus a confidence heuristic for the
// positioning service to decide between a soft update and a hard
// relocalization. It generalizes fusion/rssi.go's RSSI<->range
// heuristics from a single-anchor range estimate into a multi-anchor
// weighted centroid, since there is no ranging radio here -- only
// receive signal strength.
package wifi

import (
	"math"

	"indoornav/sensors"
	"indoornav/storemap"
)

// Fix is a computed Wi-Fi position estimate.
type Fix struct {
	X, Y       float64
	Matched    int
	BestBSSID  string
	BestRSSI   float64
	Confidence float64
}

const (
	rssiClampLo = -95.0
	rssiClampHi = -35.0
	weightLo    = 1.0
	weightHi    = 400.0

	confLo = 0.15
	confHi = 0.98
)

// Compute maps a scan's readings against anchors and returns a
// weighted-centroid fix, or ok=false if no reading matched any
// anchor. It never panics or errors -- an empty/garbled scan simply
// yields no fix.
func Compute(readings []sensors.WifiReading, anchors []storemap.Anchor) (Fix, bool) {
	byBSSID := make(map[string]storemap.Anchor, len(anchors))
	for _, a := range anchors {
		byBSSID[a.BSSID] = a
	}

	var sumW, sumWX, sumWY float64
	matched := 0
	bestRSSI := math.Inf(-1)
	bestBSSID := ""

	for _, r := range readings {
		norm := storemap.NormalizeBSSID(r.BSSID)
		a, ok := byBSSID[norm]
		if !ok {
			continue
		}
		matched++
		clamped := clamp(r.Level, rssiClampLo, rssiClampHi)
		w := clamp(math.Exp((clamped+100)/10), weightLo, weightHi)
		sumW += w
		sumWX += w * a.X
		sumWY += w * a.Y

		if r.Level > bestRSSI {
			bestRSSI = r.Level
			bestBSSID = norm
		}
	}

	if matched == 0 || sumW <= 0 {
		return Fix{}, false
	}

	conf := clamp((bestRSSI+100)/55, confLo, 0.95) + clamp(0.08*float64(matched-1), 0, 0.2)
	conf = clamp(conf, confLo, confHi)

	return Fix{
		X:          sumWX / sumW,
		Y:          sumWY / sumW,
		Matched:    matched,
		BestBSSID:  bestBSSID,
		BestRSSI:   bestRSSI,
		Confidence: conf,
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
