package wsx

import (
	"encoding/json"
	"log"

	"indoornav/geometry"
	"indoornav/navigate"
	"indoornav/positioning"
	"indoornav/sensors"
)

// envelope tags every broadcast message with its kind so a JavaScript
// viewer can dispatch on a single field.
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (h *Hub) send(kind string, data interface{}) {
	b, err := json.Marshal(envelope{Type: kind, Data: data})
	if err != nil {
		log.Printf("wsx: marshal %s: %v", kind, err)
		return
	}
	h.Broadcast(b)
}

// BroadcastPose sends an onPose event.
func (h *Hub) BroadcastPose(p positioning.Pose2D) { h.send("pose", p) }

// BroadcastPathPoint sends an onPathPoint event.
func (h *Hub) BroadcastPathPoint(p geometry.Point2) { h.send("pathPoint", p) }

// BroadcastRoute sends an onRoute event; route may be nil.
func (h *Hub) BroadcastRoute(route *navigate.Route) { h.send("route", route) }

type instructionPayload struct {
	NextInstruction string            `json:"nextInstruction"`
	DistanceToNext  float64           `json:"distanceToNext"`
	NextManeuver    *navigate.Maneuver `json:"nextManeuver"`
}

// BroadcastInstruction sends an onInstruction event.
func (h *Hub) BroadcastInstruction(next string, distance float64, m *navigate.Maneuver) {
	h.send("instruction", instructionPayload{NextInstruction: next, DistanceToNext: distance, NextManeuver: m})
}

// BroadcastOffRoute sends an onOffRoute event.
func (h *Hub) BroadcastOffRoute(offRoute bool) { h.send("offRoute", offRoute) }

// BroadcastSensorHealth sends an onSensorHealth event.
func (h *Hub) BroadcastSensorHealth(health sensors.Health) { h.send("sensorHealth", health) }
