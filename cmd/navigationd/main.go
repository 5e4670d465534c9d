// Command navigationd is the production daemon: it loads a session
// config and store map, accepts sensor/Wi-Fi traffic from one or more
// pedestrians over UDP, fuses and routes each of them, and fans the
// resulting poses out over WebSocket, TCP/UDP downstream, and an
// optional capture file. Grounded on cmd/udp_server/main.go's overall
// wiring shape: flag parsing, fail-fast config loading with
// log.Fatalf, assembling the pipeline pieces, starting the listener
// in a goroutine, and waiting on SIGINT/SIGTERM to shut down cleanly.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"indoornav/config"
	"indoornav/downstream"
	"indoornav/geometry"
	"indoornav/httpapi"
	"indoornav/navigate"
	"indoornav/positioning"
	"indoornav/recorder"
	"indoornav/sensors"
	"indoornav/session"
	"indoornav/storemap"
	udptransport "indoornav/transport/udp"
	"indoornav/wsx"
)

func main() {
	configPath := flag.String("config", "session.yaml", "path to session config YAML")
	udpPort := flag.Int("udp-port", 44333, "UDP port for sensor/wifi ingress")
	httpPort := flag.Int("http", 8080, "HTTP/WebSocket port. 0 to disable.")
	distDir := flag.String("dist", "", "static frontend directory to serve (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	mapData, err := os.ReadFile(cfg.MapPath)
	if err != nil {
		log.Fatalf("reading map file %s: %v", cfg.MapPath, err)
	}
	sm, err := storemap.Load(mapData)
	if err != nil {
		log.Fatalf("parsing map file %s: %v", cfg.MapPath, err)
	}

	hub := wsx.NewHub()
	go hub.Run()

	var rec *recorder.Writer
	if cfg.Recorder.Enabled && cfg.Recorder.Path != "" {
		rec, err = recorder.NewWriter(cfg.Recorder.Path)
		if err != nil {
			log.Fatalf("opening recorder capture %s: %v", cfg.Recorder.Path, err)
		}
		defer rec.Close()
		log.Printf("recording session events to %s", cfg.Recorder.Path)
	}

	sender := downstream.NewSender()
	for _, addr := range cfg.Downstream.UDPAddrs {
		if err := sender.AddUDPTarget(addr, downstream.FlagPose|downstream.FlagInstruction|downstream.FlagOffRoute|downstream.FlagReroute); err != nil {
			log.Fatalf("adding downstream UDP target %s: %v", addr, err)
		}
	}
	if cfg.Downstream.TCPAddr != "" {
		sender.AddTCPTarget(cfg.Downstream.TCPAddr, downstream.FlagPose|downstream.FlagInstruction|downstream.FlagOffRoute|downstream.FlagReroute)
	}
	if err := sender.Start(); err != nil {
		log.Fatalf("starting downstream sender: %v", err)
	}
	defer sender.Stop()

	sessionCtx, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()

	factory := func(sessionID string) *session.Session {
		pos := positioning.New(positioning.Config{
			Map:                sm,
			Start:               cfg.Start,
			StrideScale:         cfg.StrideScale,
			WifiEnabled:         cfg.WifiEnabled,
			WifiScanIntervalMs:  cfg.WifiScanIntervalMs,
			Snap: positioning.SnapConfig{
				MaxSnapMeters:       cfg.Snap.MaxSnapMeters,
				HardClamp:           cfg.Snap.HardClamp,
				SwitchPenaltyMeters: cfg.Snap.SwitchPenaltyMeters,
			},
		})
		nav := navigate.New()
		nav.SetReroute(navigate.RerouteConfig{
			OffRouteMeters: cfg.Reroute.OffRouteMeters,
			PersistMs:      cfg.Reroute.PersistMs,
		})

		obs := session.Observers{
			OnPose: func(p positioning.Pose2D) {
				hub.BroadcastPose(p)
				sender.Send(downstream.FormatPoseLine(sessionID, p), downstream.FlagPose)
				if rec != nil {
					rec.WriteEvent(recorder.EventPose, p, p.Timestamp)
				}
			},
			OnPathPoint: func(p geometry.Point2) {
				hub.BroadcastPathPoint(p)
			},
			OnRoute: func(route *navigate.Route) {
				hub.BroadcastRoute(route)
			},
			OnInstruction: func(next string, distance float64, m *navigate.Maneuver) {
				hub.BroadcastInstruction(next, distance, m)
			},
			OnOffRoute: func(off bool) {
				hub.BroadcastOffRoute(off)
			},
			OnSensorHealth: func(h sensors.Health) {
				hub.BroadcastSensorHealth(h)
			},
		}

		sess := session.New(pos, nav, nil, 0, obs)
		go sess.Run(sessionCtx)
		log.Printf("navigationd: started session %q", sessionID)
		return sess
	}

	listener, err := udptransport.NewListener(*udpPort, factory)
	if err != nil {
		log.Fatalf("starting UDP listener on port %d: %v", *udpPort, err)
	}
	go listener.Start()
	defer listener.Stop()

	if *httpPort > 0 {
		httpSvr := httpapi.NewServer(hub, sm)
		go func() {
			if err := httpSvr.Start(*httpPort, *distDir); err != nil {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("navigationd: shutting down")
}
