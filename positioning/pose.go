package positioning

import "time"

// Source identifies which correction produced a Pose2D.
type Source string

const (
	SourcePDR     Source = "pdr"
	SourcePDRWifi Source = "pdr_wifi"
)

// Pose2D is one fused position+heading observation.
type Pose2D struct {
	X, Y       float64
	HeadingDeg float64
	Timestamp  time.Time
	Source     Source
	Snapped    bool
}

// ConfidenceTier is a coarse side-output summarizing pose trust.
type ConfidenceTier string

const (
	TierGood ConfidenceTier = "good"
	TierOK   ConfidenceTier = "ok"
	TierLow  ConfidenceTier = "low"
)

const maxPathPoints = 240

// pathBuffer is a fixed-capacity FIFO of recent positions.
type pathBuffer struct {
	points [][2]float64
}

func (b *pathBuffer) append(p [2]float64) {
	b.points = append(b.points, p)
	if len(b.points) > maxPathPoints {
		b.points = b.points[len(b.points)-maxPathPoints:]
	}
}

func (b *pathBuffer) reset(p [2]float64) {
	b.points = [][2]float64{p}
}

// Points returns a copy of the buffered path.
func (b *pathBuffer) Points() [][2]float64 {
	out := make([][2]float64, len(b.points))
	copy(out, b.points)
	return out
}
