package downstream

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"indoornav/positioning"
)

func TestFormatPoseLineFieldOrder(t *testing.T) {
	p := positioning.Pose2D{
		X: 1.5, Y: -2.25, HeadingDeg: 90.1,
		Timestamp: time.Date(2026, 8, 6, 12, 30, 0, 0, time.UTC),
		Source:    positioning.SourcePDRWifi,
		Snapped:   true,
	}
	line := string(FormatPoseLine("sess-1", p))

	if !strings.HasPrefix(line, "pose,sess-1,20260806123000.000,1.500,-2.250,90.10,pdr_wifi") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.HasSuffix(line, "\r\n") {
		t.Fatalf("expected CRLF terminator, got %q", line)
	}
}

func TestSendBeforeStartIsNoop(t *testing.T) {
	s := NewSender()
	if err := s.AddUDPTarget("127.0.0.1:9", FlagPose); err != nil {
		t.Fatalf("AddUDPTarget: %v", err)
	}
	// Sender has not been Start()-ed, so running is false and Send must
	// return without touching a nil connUDP.
	s.Send([]byte("x"), FlagPose)
}

func TestAddTCPTargetFlagFiltering(t *testing.T) {
	s := NewSender()
	s.AddTCPTarget("127.0.0.1:0", FlagInstruction)

	if len(s.tcpClients) != 1 {
		t.Fatalf("expected one tcp client, got %d", len(s.tcpClients))
	}
	if s.tcpClients[0].flag != FlagInstruction {
		t.Fatalf("expected flag %d, got %d", FlagInstruction, s.tcpClients[0].flag)
	}

	// A message flagged FlagPose must not match a FlagInstruction-only client.
	if s.tcpClients[0].flag&FlagPose == FlagPose {
		t.Fatalf("FlagInstruction client should not match FlagPose messages")
	}
}

// TestTCPClientCoalescesPoseButQueuesEvents enqueues onto a tcpClient
// directly, without starting its delivery loop, so the coalescing
// logic can be inspected deterministically: a later pose must
// supersede an earlier one in the single pose slot, while instruction
// events land in the reliable queue untouched.
func TestTCPClientCoalescesPoseButQueuesEvents(t *testing.T) {
	c := &tcpClient{
		flag:   FlagPose | FlagInstruction,
		wake:   make(chan struct{}, 1),
		events: make(chan *Message, 32),
	}

	c.enqueue(&Message{Data: []byte("pose,stale"), Flag: FlagPose})
	c.enqueue(&Message{Data: []byte("pose,fresh"), Flag: FlagPose})
	c.enqueue(&Message{Data: []byte("instruction,turn-left"), Flag: FlagInstruction})

	if c.pose == nil || string(c.pose.Data) != "pose,fresh" {
		t.Fatalf("expected the pose slot to hold only the latest pose, got %v", c.pose)
	}

	select {
	case msg := <-c.events:
		if string(msg.Data) != "instruction,turn-left" {
			t.Fatalf("unexpected event message: %q", msg.Data)
		}
	default:
		t.Fatal("expected the instruction event to be queued")
	}

	select {
	case <-c.events:
		t.Fatal("expected exactly one queued event, the stale pose must not be queued")
	default:
	}
}

// TestTCPClientDeliversCoalescedPoseAndQueuedEvent runs the real
// delivery loop end to end against a local TCP listener and checks
// that both the superseding pose and the discrete event reach the
// wire, exercising Sender.Send's flag-routed fan-out into enqueue.
func TestTCPClientDeliversCoalescedPoseAndQueuedEvent(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	lines := make(chan string, 16)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	s := NewSender()
	s.AddTCPTarget(ln.Addr().String(), FlagPose|FlagInstruction)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	s.Send([]byte("pose,fresh\n"), FlagPose)
	s.Send([]byte("instruction,turn-left\n"), FlagInstruction)

	seen := map[string]bool{}
	deadline := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case line := <-lines:
			seen[strings.TrimRight(line, "\r")] = true
		case <-deadline:
			t.Fatalf("timed out waiting for delivery, got %v", seen)
		}
	}

	if !seen["pose,fresh"] || !seen["instruction,turn-left"] {
		t.Fatalf("expected both messages delivered, got %v", seen)
	}
}
