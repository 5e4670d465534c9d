// Package udp is the multi-session UDP ingress for navigationd: one
// socket, many pedestrians. It is supplemented directly from
// server/udp.go's shape -- a single ReadFromUDP loop, a
// map[sessionID]*session.Session standing in for tagsState/lastGw,
// and per-session last-seen return address tracking for any future
// downstream command push -- adapted from raw UNIB tag frames to
// JSON sensor/Wi-Fi packets, one object per datagram, tagged with a
// session id field.
package udp

import (
	"encoding/json"
	"log"
	"net"
	"sync"
	"time"

	"indoornav/sensors"
	"indoornav/session"
)

const maxPacketSize = 65535

// packet is the wire shape of one inbound UDP datagram: exactly one
// JSON object per datagram. Dispatch goes by which payload field is
// present; Kind is only reported in the log for unrecognized packets.
type packet struct {
	SessionID string `json:"sessionId"`
	Kind      string `json:"kind"`

	Mag   *sensors.MagSample          `json:"mag,omitempty"`
	Motion *sensors.DeviceMotionSample `json:"motion,omitempty"`
	Pedo  *sensors.PedometerSample    `json:"pedo,omitempty"`
	Wifi  *sensors.ScanResult         `json:"wifi,omitempty"`
}

// SessionFactory creates a new Session the first time a given
// sessionId is seen.
type SessionFactory func(sessionID string) *session.Session

// Listener owns the shared socket and the live session set.
type Listener struct {
	conn    *net.UDPConn
	factory SessionFactory
	running bool

	mu       sync.Mutex
	sessions map[string]*session.Session
	lastAddr map[string]*net.UDPAddr
}

// NewListener binds port (0.0.0.0) and returns an idle Listener.
func NewListener(port int, factory SessionFactory) (*Listener, error) {
	addr := net.UDPAddr{Port: port, IP: net.ParseIP("0.0.0.0")}
	conn, err := net.ListenUDP("udp", &addr)
	if err != nil {
		return nil, err
	}
	conn.SetReadBuffer(256 * 1024)

	return &Listener{
		conn:     conn,
		factory:  factory,
		sessions: make(map[string]*session.Session),
		lastAddr: make(map[string]*net.UDPAddr),
	}, nil
}

// Start blocks, reading and dispatching datagrams until Stop is
// called.
func (l *Listener) Start() {
	l.running = true
	buf := make([]byte, maxPacketSize)
	log.Printf("transport/udp: listening on %s", l.conn.LocalAddr())

	for l.running {
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if l.running {
				log.Printf("transport/udp: read error: %v", err)
			}
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		l.dispatch(data, addr)
	}
}

// Stop closes the socket, unblocking Start.
func (l *Listener) Stop() {
	l.running = false
	l.conn.Close()
}

// Sessions returns a snapshot of the currently live session ids.
func (l *Listener) Sessions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.sessions))
	for id := range l.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (l *Listener) dispatch(data []byte, addr *net.UDPAddr) {
	var pkt packet
	if err := json.Unmarshal(data, &pkt); err != nil {
		log.Printf("transport/udp: malformed packet from %s: %v", addr, err)
		return
	}
	if pkt.SessionID == "" {
		log.Printf("transport/udp: packet from %s missing sessionId", addr)
		return
	}

	sess := l.sessionFor(pkt.SessionID)
	l.mu.Lock()
	l.lastAddr[pkt.SessionID] = addr
	l.mu.Unlock()

	now := time.Now()
	switch {
	case pkt.Mag != nil:
		sess.PostSensor(session.SensorEvent{Kind: session.KindMagnetometer, Mag: *pkt.Mag, At: now})
	case pkt.Motion != nil:
		sess.PostSensor(session.SensorEvent{Kind: session.KindDeviceMotion, Motion: *pkt.Motion, At: now})
	case pkt.Pedo != nil:
		sess.PostSensor(session.SensorEvent{Kind: session.KindPedometer, Pedo: *pkt.Pedo, At: now})
	case pkt.Wifi != nil:
		sess.PostWifi(session.WifiEvent{Result: *pkt.Wifi, At: now})
	default:
		log.Printf("transport/udp: packet from %s carried no recognized payload (kind=%q)", addr, pkt.Kind)
	}
}

func (l *Listener) sessionFor(id string) *session.Session {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.sessions[id]; ok {
		return s
	}
	s := l.factory(id)
	l.sessions[id] = s
	return s
}
