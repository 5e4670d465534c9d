// Package mqttbridge subscribes to MQTT topics carrying
// sensor-adapter samples and Wi-Fi scan results from a remote device
// and feeds them into a running session.Session, giving spec.md's
// "external adapter" sensor/Wi-Fi boundary a concrete transport.
// Grounded on kwv-tudomesh/mesh/mqtt.go: connect-with-retry client
// setup, an onConnect handler that subscribes per-topic, and a
// per-topic message handler closing over the entity id -- here the
// sessionId derived from the topic instead of a vacuum id.
package mqttbridge

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"indoornav/sensors"
	"indoornav/session"
)

// Config tunes the MQTT connection and topic layout.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// TopicPrefix is the root under which per-session sensor/wifi
	// topics live: "<prefix>/<sessionId>/mag", ".../motion",
	// ".../pedo", ".../wifi".
	TopicPrefix string
}

func (c Config) prefix() string {
	if c.TopicPrefix == "" {
		return "indoornav"
	}
	return c.TopicPrefix
}

// SessionFactory creates or looks up the Session that should receive
// events published for sessionID.
type SessionFactory func(sessionID string) *session.Session

// Bridge owns the MQTT client and dispatches incoming samples to
// sessions by id.
type Bridge struct {
	client  mqtt.Client
	cfg     Config
	factory SessionFactory
}

// Connect builds a client from cfg, wires the topic subscriptions for
// the onConnect handler, and starts the connect-with-retry loop in
// the background.
func Connect(cfg Config, factory SessionFactory) *Bridge {
	b := &Bridge{cfg: cfg, factory: factory}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "indoornav-mqttbridge"
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false)
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(b.onConnect)
	opts.SetConnectionLostHandler(b.onConnectionLost)

	b.client = mqtt.NewClient(opts)
	go b.connectWithRetry()
	return b
}

func (b *Bridge) connectWithRetry() {
	retryDelay := 1 * time.Second
	const maxRetryDelay = 60 * time.Second

	for {
		token := b.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				return
			}
			log.Printf("mqttbridge: connect failed: %v", token.Error())
		} else {
			log.Println("mqttbridge: connect timeout")
		}

		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// onConnect subscribes to the four wildcard sample topics under
// TopicPrefix, dispatching each by the sessionId segment embedded in
// the topic ("<prefix>/<sessionId>/<kind>").
func (b *Bridge) onConnect(client mqtt.Client) {
	log.Println("mqttbridge: connected, subscribing to sample topics")

	kinds := []string{"mag", "motion", "pedo", "wifi"}
	for _, kind := range kinds {
		topic := b.cfg.prefix() + "/+/" + kind
		token := client.Subscribe(topic, 0, b.handlerFor(kind))
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Printf("mqttbridge: subscribe %s failed: %v", topic, token.Error())
		}
	}
}

func (b *Bridge) onConnectionLost(_ mqtt.Client, err error) {
	log.Printf("mqttbridge: connection lost: %v", err)
}

// handlerFor builds the mqtt.MessageHandler for one sample kind,
// extracting the sessionId from the topic and routing the decoded
// payload into that session's event loop.
func (b *Bridge) handlerFor(kind string) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		sessionID := sessionIDFromTopic(msg.Topic())
		if sessionID == "" {
			log.Printf("mqttbridge: could not parse sessionId from topic %s", msg.Topic())
			return
		}

		sess := b.factory(sessionID)
		now := time.Now()

		switch kind {
		case "mag":
			var s sensors.MagSample
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("mqttbridge: bad mag payload on %s: %v", msg.Topic(), err)
				return
			}
			sess.PostSensor(session.SensorEvent{Kind: session.KindMagnetometer, Mag: s, At: now})
		case "motion":
			var s sensors.DeviceMotionSample
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("mqttbridge: bad motion payload on %s: %v", msg.Topic(), err)
				return
			}
			sess.PostSensor(session.SensorEvent{Kind: session.KindDeviceMotion, Motion: s, At: now})
		case "pedo":
			var s sensors.PedometerSample
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("mqttbridge: bad pedo payload on %s: %v", msg.Topic(), err)
				return
			}
			sess.PostSensor(session.SensorEvent{Kind: session.KindPedometer, Pedo: s, At: now})
		case "wifi":
			var result sensors.ScanResult
			if err := json.Unmarshal(msg.Payload(), &result); err != nil {
				log.Printf("mqttbridge: bad wifi payload on %s: %v", msg.Topic(), err)
				return
			}
			sess.PostWifi(session.WifiEvent{Result: result, At: now})
		}
	}
}

// sessionIDFromTopic extracts the <sessionId> segment from a topic
// shaped "<prefix>/<sessionId>/<kind>".
func sessionIDFromTopic(topic string) string {
	segs := strings.Split(topic, "/")
	if len(segs) < 3 {
		return ""
	}
	return segs[len(segs)-2]
}

// Disconnect gracefully closes the MQTT connection.
func (b *Bridge) Disconnect() {
	if b.client != nil {
		b.client.Disconnect(250)
	}
}
