package downstream

import (
	"fmt"

	"indoornav/positioning"
)

// FormatPoseLine renders a Pose2D as a CSV-ish text line for
// downstream consumers, mirroring rbc/formatter.go's FormatTagPos
// fixed-field layout (id-like header, timestamp, then the numeric
// payload) adapted from millimeter ranging coordinates to this
// engine's pose/heading/source fields.
func FormatPoseLine(sessionID string, p positioning.Pose2D) []byte {
	body := fmt.Sprintf("pose,%s,%s,%.3f,%.3f,%.2f,%s\r\n",
		sessionID,
		p.Timestamp.Format("20060102150405.000"),
		p.X, p.Y, p.HeadingDeg,
		p.Source,
	)
	return []byte(body)
}
