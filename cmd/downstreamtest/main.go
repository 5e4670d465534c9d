// Command downstreamtest exercises a downstream.Sender against a
// UDP and a TCP target by emitting a synthetic walking pose once a
// second, for manually verifying a downstream consumer's wiring.
// Grounded on cmd/rbc_sender/main.go: same flag-driven
// sender-then-loop-forever shape. Each one-second tick sends a
// FlagPose line (received by the UDP target) and a FlagInstruction
// line (received by the TCP target).
package main

import (
	"flag"
	"log"
	"math"
	"time"

	"indoornav/downstream"
	"indoornav/positioning"
)

func main() {
	udpAddr := flag.String("udp", "127.0.0.1:5555", "UDP destination")
	tcpAddr := flag.String("tcp", "127.0.0.1:6666", "TCP destination")
	sessionID := flag.String("session", "demo", "session id tag for emitted pose lines")
	flag.Parse()

	sender := downstream.NewSender()
	if err := sender.AddUDPTarget(*udpAddr, downstream.FlagPose); err != nil {
		log.Fatalf("failed to add UDP target: %v", err)
	}
	sender.AddTCPTarget(*tcpAddr, downstream.FlagInstruction)

	if err := sender.Start(); err != nil {
		log.Fatalf("failed to start sender: %v", err)
	}
	defer sender.Stop()

	log.Println("downstreamtest running. Press Ctrl+C to exit.")

	t := 0.0
	for {
		p := positioning.Pose2D{
			X:          5 * math.Cos(t),
			Y:          5 * math.Sin(t),
			HeadingDeg: math.Mod(t*57.3, 360),
			Timestamp:  time.Now(),
			Source:     positioning.SourcePDR,
		}
		sender.Send(downstream.FormatPoseLine(*sessionID, p), downstream.FlagPose)
		sender.Send([]byte("instruction,In 5 m, turn left\r\n"), downstream.FlagInstruction)

		time.Sleep(1 * time.Second)
		t += 0.2
	}
}
