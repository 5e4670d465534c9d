// Package navigate builds turn-by-turn maneuvers from a route
// polyline, tracks progress along the active route, and runs the
// navigation service that ties destination selection, pose updates,
// and reroute scheduling together.
package navigate

import (
	"fmt"
	"math"

	"indoornav/geometry"
)

// ManeuverType classifies one step of a route.
type ManeuverType string

const (
	ManeuverStart    ManeuverType = "start"
	ManeuverArrive   ManeuverType = "arrive"
	ManeuverLeft     ManeuverType = "left"
	ManeuverRight    ManeuverType = "right"
	ManeuverStraight ManeuverType = "straight"
	ManeuverUTurn    ManeuverType = "uturn"
)

// Maneuver is one instruction point along a route.
type Maneuver struct {
	Type                    ManeuverType
	AtIndex                 int
	Point                   geometry.Point2
	DistanceFromStartMeters float64
	Instruction             string
}

const (
	straightThresholdDeg = 28.0
	uturnThresholdDeg    = 150.0
)

// BuildManeuvers classifies every interior vertex of polyline by the
// bearing change across it, suppressing near-straight vertices, and
// always emits a leading start and trailing arrive maneuver.
func BuildManeuvers(polyline []geometry.Point2) []Maneuver {
	if len(polyline) == 0 {
		return nil
	}

	cumulative := make([]float64, len(polyline))
	for i := 1; i < len(polyline); i++ {
		cumulative[i] = cumulative[i-1] + geometry.Distance(polyline[i-1], polyline[i])
	}

	maneuvers := []Maneuver{{
		Type:                    ManeuverStart,
		AtIndex:                 0,
		Point:                   polyline[0],
		DistanceFromStartMeters: 0,
		Instruction:             "Start walking",
	}}

	for i := 1; i < len(polyline)-1; i++ {
		b1 := geometry.Bearing(polyline[i-1], polyline[i])
		b2 := geometry.Bearing(polyline[i], polyline[i+1])
		delta := geometry.HeadingDiff(b2, b1)

		mtype := classify(delta)
		if mtype == ManeuverStraight {
			continue
		}

		maneuvers = append(maneuvers, Maneuver{
			Type:                    mtype,
			AtIndex:                 i,
			Point:                   polyline[i],
			DistanceFromStartMeters: cumulative[i],
			Instruction:             instructionFor(mtype),
		})
	}

	last := len(polyline) - 1
	maneuvers = append(maneuvers, Maneuver{
		Type:                    ManeuverArrive,
		AtIndex:                 last,
		Point:                   polyline[last],
		DistanceFromStartMeters: cumulative[last],
		Instruction:             "Arrive",
	})

	return maneuvers
}

func classify(delta float64) ManeuverType {
	abs := math.Abs(delta)
	switch {
	case abs < straightThresholdDeg:
		return ManeuverStraight
	case abs > uturnThresholdDeg:
		return ManeuverUTurn
	case delta > 0:
		return ManeuverRight
	default:
		return ManeuverLeft
	}
}

func instructionFor(t ManeuverType) string {
	switch t {
	case ManeuverLeft:
		return "Turn left"
	case ManeuverRight:
		return "Turn right"
	case ManeuverUTurn:
		return "Make a U-turn"
	default:
		return "Continue"
	}
}

// FormatNextInstruction renders the next-instruction string for
// display from a maneuver and the remaining distance to it.
func FormatNextInstruction(m *Maneuver, distanceMeters float64) string {
	if m == nil {
		return "Select a destination"
	}
	switch m.Type {
	case ManeuverStart:
		return "Start walking"
	case ManeuverArrive:
		if distanceMeters < 2 {
			return "Arrive"
		}
		return "Continue to destination"
	default:
		return fmt.Sprintf("In %d m, %s", int(math.Ceil(distanceMeters)), m.Instruction)
	}
}
