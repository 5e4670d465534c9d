// Package config loads the YAML session configuration that tunes the
// positioning and navigation services: stride scale, Wi-Fi cadence,
// snap parameters, and reroute thresholds. The graph asset itself is
// the separate JSON document storemap.Load expects -- this package
// only owns the engine's tuning knobs. Styled after the mesh config
// loader's load-validate-defaults shape.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SnapConfig mirrors snap.Options in wire form.
type SnapConfig struct {
	MaxSnapMeters       float64 `yaml:"maxSnapMeters"`
	HardClamp           bool    `yaml:"hardClamp"`
	SwitchPenaltyMeters float64 `yaml:"switchPenaltyMeters"`
}

// RerouteConfig mirrors navigate.RerouteConfig in wire form.
type RerouteConfig struct {
	OffRouteMeters float64 `yaml:"offRouteMeters"`
	PersistMs      int     `yaml:"persistMs"`
}

// Session is the top-level tuning document for one positioning
// session.
type Session struct {
	MapPath            string        `yaml:"mapPath"`
	Start              [2]float64    `yaml:"start"`
	StrideScale        float64       `yaml:"strideScale"`
	WifiEnabled        bool          `yaml:"wifiEnabled"`
	WifiScanIntervalMs int           `yaml:"wifiScanIntervalMs"`
	Snap               SnapConfig    `yaml:"snap"`
	Reroute            RerouteConfig `yaml:"reroute"`

	Downstream DownstreamConfig `yaml:"downstream"`
	Recorder   RecorderConfig   `yaml:"recorder"`
	UDP        UDPConfig        `yaml:"udp"`
}

// DownstreamConfig tunes the TCP/UDP pose fan-out sender.
type DownstreamConfig struct {
	TCPAddr  string   `yaml:"tcpAddr"`
	UDPAddrs []string `yaml:"udpAddrs"`
}

// RecorderConfig tunes the binary replay log writer.
type RecorderConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// UDPConfig holds a listen address for the inbound sensor/Wi-Fi UDP
// listener. navigationd does not read it; it takes the UDP port from
// its -udp-port flag.
type UDPConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// Load reads and validates a session config from a YAML file,
// applying the same defaults the positioning/navigate packages use
// when a field is left at its zero value.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Session
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if cfg.MapPath == "" {
		return nil, fmt.Errorf("mapPath is required")
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Session) {
	if cfg.StrideScale == 0 {
		cfg.StrideScale = 1.0
	}
	if cfg.WifiScanIntervalMs == 0 {
		cfg.WifiScanIntervalMs = 3500
	}
	if cfg.Snap.MaxSnapMeters == 0 {
		cfg.Snap.MaxSnapMeters = 1.75
	}
	if cfg.Snap.SwitchPenaltyMeters == 0 {
		cfg.Snap.SwitchPenaltyMeters = 0.35
	}
	if cfg.Reroute.OffRouteMeters == 0 {
		cfg.Reroute.OffRouteMeters = 5
	}
	if cfg.Reroute.PersistMs == 0 {
		cfg.Reroute.PersistMs = 3000
	}
}

// Save writes cfg back out as YAML, used by debug tooling to capture
// a working tuning set.
func Save(path string, cfg *Session) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
