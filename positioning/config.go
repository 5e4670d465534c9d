// Package positioning orchestrates the PDR engine, the Kalman
// position filter, and snap-to-graph into a single pose stream, and
// absorbs periodic Wi-Fi fixes. It is the direct analog of the
// teacher engine's fusion.FusionPipeline: a small state machine that
// picks which correction source to trust per update and emits a
// single fused observable.
package positioning

import (
	"time"

	"indoornav/snap"
	"indoornav/storemap"
)

// SnapConfig mirrors snap.Options with the field names the
// positioning config uses.
type SnapConfig struct {
	MaxSnapMeters       float64
	HardClamp           bool
	SwitchPenaltyMeters float64
}

func (c SnapConfig) toOptions() snap.Options {
	o := snap.DefaultOptions()
	if c.MaxSnapMeters > 0 {
		o.MaxSnapMeters = c.MaxSnapMeters
	}
	o.HardClamp = c.HardClamp
	if c.SwitchPenaltyMeters > 0 {
		o.SwitchPenaltyMeters = c.SwitchPenaltyMeters
	}
	return o
}

// Config configures a Service at construction time.
type Config struct {
	Map                *storemap.StoreMap
	Start              [2]float64
	StrideScale        float64
	WifiEnabled        bool
	WifiScanIntervalMs int
	Snap               SnapConfig
}

// DefaultWifiScanIntervalMs is the spec's default scan cadence.
const DefaultWifiScanIntervalMs = 3500

// WifiScanInterval returns the configured scan interval, defaulting
// when unset.
func (c Config) WifiScanInterval() time.Duration {
	ms := c.WifiScanIntervalMs
	if ms <= 0 {
		ms = DefaultWifiScanIntervalMs
	}
	return time.Duration(ms) * time.Millisecond
}
