// Package downstream fans out pose/instruction/off-route/reroute lines
// to TCP and UDP consumers outside the process, with per-target flag filtering.
// It is adapted from rbc/sender.go's reconnecting-TCP-client +
// best-effort-UDP shape, but the backpressure policy is reworked for
// this engine's traffic mix instead of carrying over RBC's single
// bounded queue verbatim: FlagPose messages arrive at the fix cadence
// and each one supersedes the last, so a client that falls behind
// should catch up on the freshest pose rather than work through a
// backlog of stale ones. Instruction/off-route/reroute messages are
// discrete, one-shot events that must not be skipped just because
// a newer pose came in, so they go through their own reliable bounded
// queue instead of sharing the pose slot.
package downstream

import (
	"log"
	"net"
	"sync"
	"time"
)

// Message is one framed payload plus the flag bits selecting which
// targets should receive it.
type Message struct {
	Data []byte
	Flag uint32
}

type udpTarget struct {
	addr *net.UDPAddr
	flag uint32
}

// tcpClient delivers to one reconnecting TCP destination. Pose
// updates are coalesced into a single latest-value slot; everything
// else rides a small reliable queue.
type tcpClient struct {
	addr string
	flag uint32

	mu   sync.Mutex
	pose *Message
	wake chan struct{}

	events chan *Message
	done   chan struct{}
	wg     sync.WaitGroup
}

// Sender owns zero or more UDP targets and reconnecting TCP clients.
type Sender struct {
	udpTargets []*udpTarget
	tcpClients []*tcpClient
	connUDP    *net.UDPConn
	running    bool
}

// NewSender constructs an idle sender; call Start before Send.
func NewSender() *Sender {
	return &Sender{}
}

// AddUDPTarget registers a fire-and-forget UDP destination that
// receives messages whose flag bits include flag.
func (s *Sender) AddUDPTarget(addr string, flag uint32) error {
	uaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	s.udpTargets = append(s.udpTargets, &udpTarget{addr: uaddr, flag: flag})
	return nil
}

// AddTCPTarget registers a reconnecting TCP destination that receives
// messages whose flag bits include flag.
func (s *Sender) AddTCPTarget(addr string, flag uint32) {
	s.tcpClients = append(s.tcpClients, &tcpClient{
		addr:   addr,
		flag:   flag,
		wake:   make(chan struct{}, 1),
		events: make(chan *Message, 32),
	})
}

// Start opens the shared UDP socket and launches every TCP client's
// reconnect loop.
func (s *Sender) Start() error {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return err
	}
	s.connUDP = conn
	s.running = true

	for _, c := range s.tcpClients {
		c.start()
	}
	return nil
}

// Stop closes the UDP socket and stops every TCP client's delivery
// loop; messages still waiting for a TCP client are not sent.
func (s *Sender) Stop() {
	s.running = false
	if s.connUDP != nil {
		s.connUDP.Close()
	}
	for _, c := range s.tcpClients {
		c.stop()
	}
}

// Send delivers data to every target whose flag bits include flag.
// UDP sends are best-effort. TCP delivery splits by kind: a FlagPose
// message supersedes any pose still waiting to go out to that client;
// every other flag is queued for reliable, in-order delivery.
func (s *Sender) Send(data []byte, flag uint32) {
	if !s.running {
		return
	}

	for _, t := range s.udpTargets {
		if t.flag&flag == flag {
			if _, err := s.connUDP.WriteToUDP(data, t.addr); err != nil {
				log.Printf("downstream: udp send to %s failed: %v", t.addr, err)
			}
		}
	}

	for _, c := range s.tcpClients {
		if c.flag&flag == flag {
			c.enqueue(&Message{Data: data, Flag: flag})
		}
	}
}

func (c *tcpClient) enqueue(msg *Message) {
	if msg.Flag == FlagPose {
		c.mu.Lock()
		c.pose = msg
		c.mu.Unlock()
		select {
		case c.wake <- struct{}{}:
		default: // a wake is already pending, the client will pick up the latest pose
		}
		return
	}

	select {
	case c.events <- msg:
	default:
		log.Printf("downstream: event queue full for %s, dropping message", c.addr)
	}
}

func (c *tcpClient) start() {
	c.done = make(chan struct{})
	c.wg.Add(1)
	go c.loop()
}

func (c *tcpClient) stop() {
	close(c.done)
	c.wg.Wait()
}

func (c *tcpClient) loop() {
	defer c.wg.Done()
	var conn net.Conn

	connect := func() bool {
		if conn != nil {
			return true
		}
		var err error
		conn, err = net.DialTimeout("tcp", c.addr, 2*time.Second)
		return err == nil
	}

	deliver := func(msg *Message) {
		if !connect() {
			time.Sleep(500 * time.Millisecond)
			if !connect() {
				return
			}
		}

		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if _, err := conn.Write(msg.Data); err != nil {
			log.Printf("downstream: tcp write to %s failed: %v", c.addr, err)
			conn.Close()
			conn = nil
			time.Sleep(100 * time.Millisecond)
		}
	}

	for {
		select {
		case <-c.done:
			if conn != nil {
				conn.Close()
			}
			return
		case msg := <-c.events:
			deliver(msg)
		case <-c.wake:
			c.mu.Lock()
			msg := c.pose
			c.pose = nil
			c.mu.Unlock()
			if msg != nil {
				deliver(msg)
			}
		}
	}
}
