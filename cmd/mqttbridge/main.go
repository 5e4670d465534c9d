// Command mqttbridge runs the MQTT-sourced sensor/Wi-Fi ingestion
// bridge standalone: one positioning+navigate session per MQTT
// sessionId, fed entirely by subscribed samples, broadcasting fused
// poses over the same httpapi/wsx front door navigationd uses.
// Grounded on cmd/udp_server/main.go's wiring shape, swapping the
// UDP listener for an MQTT subscription.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"indoornav/config"
	"indoornav/httpapi"
	"indoornav/mqttbridge"
	"indoornav/navigate"
	"indoornav/positioning"
	"indoornav/sensors"
	"indoornav/session"
	"indoornav/storemap"
	"indoornav/wsx"
)

func main() {
	configPath := flag.String("config", "session.yaml", "path to session config YAML")
	broker := flag.String("broker", "tcp://127.0.0.1:1883", "MQTT broker URL")
	topicPrefix := flag.String("topic-prefix", "indoornav", "MQTT topic prefix for sample subscriptions")
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

	newSession := func(sessionID string) *session.Session {
		pos := positioning.New(positioning.Config{
			Map:                sm,
			Start:              cfg.Start,
			StrideScale:        cfg.StrideScale,
			WifiEnabled:        cfg.WifiEnabled,
			WifiScanIntervalMs: cfg.WifiScanIntervalMs,
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
			OnPose:         func(p positioning.Pose2D) { hub.BroadcastPose(p) },
			OnRoute:        func(route *navigate.Route) { hub.BroadcastRoute(route) },
			OnInstruction:  func(next string, distance float64, m *navigate.Maneuver) { hub.BroadcastInstruction(next, distance, m) },
			OnOffRoute:     func(off bool) { hub.BroadcastOffRoute(off) },
			OnSensorHealth: func(h sensors.Health) { hub.BroadcastSensorHealth(h) },
		}

		sess := session.New(pos, nav, nil, 0, obs)
		go sess.Run(context.Background())
		log.Printf("mqttbridge: started session %q", sessionID)
		return sess
	}

	var mu sync.Mutex
	sessions := map[string]*session.Session{}
	sessionFactory := func(id string) *session.Session {
		mu.Lock()
		defer mu.Unlock()
		if s, ok := sessions[id]; ok {
			return s
		}
		s := newSession(id)
		sessions[id] = s
		return s
	}

	bridge := mqttbridge.Connect(mqttbridge.Config{
		Broker:      *broker,
		TopicPrefix: *topicPrefix,
	}, sessionFactory)
	defer bridge.Disconnect()

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
	log.Println("mqttbridge: shutting down")
}
