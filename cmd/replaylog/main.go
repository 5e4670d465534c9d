// Command replaylog re-delivers a recorder capture file at its
// original timing (optionally scaled), forwarding each record's raw
// JSON payload over UDP when a destination is given, and prints a
// per-kind summary at the end. Grounded on
// cmd/replay/main.go's pacing loop and payload forwarding, re-pointed
// at recorder.Replay instead of hand-rolled PCAP record parsing.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"

	"indoornav/recorder"
)

func main() {
	capturePath := flag.String("capture", "", "path to a recorder capture file")
	destAddr := flag.String("dest", "", "UDP destination to forward payloads to (optional)")
	speed := flag.Float64("speed", 1.0, "replay speed multiplier (0 for max speed)")
	flag.Parse()

	if *capturePath == "" {
		log.Fatal("--capture is required")
	}

	var conn *net.UDPConn
	if *destAddr != "" {
		raddr, err := net.ResolveUDPAddr("udp", *destAddr)
		if err != nil {
			log.Fatalf("invalid dest address: %v", err)
		}
		conn, err = net.DialUDP("udp", nil, raddr)
		if err != nil {
			log.Fatalf("dial failed: %v", err)
		}
		defer conn.Close()
	}

	log.Printf("replaying %s at %.1fx speed...", *capturePath, *speed)

	counts := map[uint16]int{}
	n, err := recorder.Replay(*capturePath, *speed, func(rec recorder.Record) error {
		counts[rec.Kind]++
		if conn != nil {
			if _, err := conn.Write(rec.Payload); err != nil {
				log.Printf("forward error: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	fmt.Printf("done: replayed %d records (pose=%d wifi=%d route=%d instruction=%d)\n",
		n, counts[recorder.EventPose], counts[recorder.EventWifi],
		counts[recorder.EventRoute], counts[recorder.EventInstruction])
}
