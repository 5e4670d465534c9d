// Command fuselog replays a recorder capture's raw sensor/Wi-Fi
// records through a fresh positioning.Service offline, writes the
// resulting fused track to a CSV file, and, given a reference track,
// reports the best-shift RMSE against it. Grounded on cmd/fuse/main.go:
// same shape (parse input, run the fusion/positioning pipeline frame by
// frame, write a CSV, optionally score against a reference CSV by
// sliding-shift RMSE) re-pointed from offline PCAP/BLE/TWR fusion at
// this engine's PDR+Kalman+snap pipeline.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"indoornav/pdr"
	"indoornav/positioning"
	"indoornav/recorder"
	"indoornav/sensors"
)

func main() {
	capturePath := flag.String("capture", "", "recorder capture file with raw sensor/wifi records")
	outPath := flag.String("out", "fused.csv", "output CSV path")
	refPath := flag.String("ref", "", "optional reference CSV (x_m,y_m) for RMSE")
	maxShift := flag.Int("max-shift", 200, "max row shift searched for RMSE alignment")
	flag.Parse()

	if *capturePath == "" {
		fmt.Println("--capture required")
		os.Exit(1)
	}

	pos := positioning.New(positioning.Config{})
	rows := [][]string{{"seq", "x_m", "y_m", "heading_deg", "source"}}
	seq := 0

	r, err := recorder.OpenReader(*capturePath)
	if err != nil {
		fmt.Printf("open capture failed: %v\n", err)
		os.Exit(1)
	}
	defer r.Close()

	engine := pos.Engine()

	for {
		rec, err := r.Next()
		if err != nil {
			break
		}

		switch rec.Kind {
		case recorder.EventMagnetometer:
			var s sensors.MagSample
			if json.Unmarshal(rec.Payload, &s) == nil {
				engine.OnMagnetometer(s)
			}
		case recorder.EventDeviceMotion:
			var s sensors.DeviceMotionSample
			if json.Unmarshal(rec.Payload, &s) == nil {
				if step := engine.OnDeviceMotion(s); step != nil {
					pose := pos.OnSteps([]pdr.StepEvent{*step}, s.At)
					seq++
					rows = append(rows, poseRow(seq, pose))
				}
			}
		case recorder.EventPedometer:
			var s sensors.PedometerSample
			if json.Unmarshal(rec.Payload, &s) == nil {
				for _, step := range engine.OnPedometer(s) {
					pose := pos.OnSteps([]pdr.StepEvent{step}, s.At)
					seq++
					rows = append(rows, poseRow(seq, pose))
				}
			}
		case recorder.EventWifi:
			var result sensors.ScanResult
			if json.Unmarshal(rec.Payload, &result) == nil {
				at := recordTime(rec)
				if pose, ok := pos.OnWifiScan(result, at); ok {
					seq++
					rows = append(rows, poseRow(seq, pose))
				}
			}
		}
	}

	if err := writeCSV(*outPath, rows); err != nil {
		fmt.Printf("write csv failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d rows to %s\n", len(rows)-1, *outPath)

	if *refPath != "" {
		fused, err := readTrack(*outPath)
		if err != nil {
			fmt.Printf("rmse compare failed: %v\n", err)
			return
		}
		reference, err := readTrack(*refPath)
		if err != nil {
			fmt.Printf("rmse compare failed: %v\n", err)
			return
		}
		rmse, shift := bestAlignment(fused, reference, *maxShift)
		fmt.Printf("ref shift %d rows, RMSE %.3f m\n", shift, rmse)
	}
}

func poseRow(seq int, p positioning.Pose2D) []string {
	return []string{
		fmt.Sprintf("%d", seq),
		fmt.Sprintf("%.3f", p.X),
		fmt.Sprintf("%.3f", p.Y),
		fmt.Sprintf("%.2f", p.HeadingDeg),
		string(p.Source),
	}
}

func recordTime(rec recorder.Record) time.Time {
	return time.Unix(int64(rec.TsSec), int64(rec.TsUsec)*1000)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// fixPoint is the x/y position of one fused or reference track row;
// RMSE alignment only ever compares positions, so the heading/source
// columns a fused track also carries don't need to survive this far.
type fixPoint struct {
	X, Y float64
}

// bestAlignment searches shifts in [-maxShift, maxShift] rows and
// returns the RMSE and shift of the best-aligned overlap between a
// fused track and a reference track. A reference log and a replayed
// capture rarely start on the same row -- the reference may begin
// recording a few fixes before or after the capture does -- so the
// shift search finds the row offset that makes the two tracks agree
// best before reporting positional error.
func bestAlignment(fused, reference []fixPoint, maxShift int) (rmse float64, shift int) {
	bestShift := 0
	bestRMSE := math.MaxFloat64
	for candidate := -maxShift; candidate <= maxShift; candidate++ {
		overlap, sumSq := alignedSumSq(fused, reference, candidate)
		if overlap <= 0 {
			continue
		}
		candidateRMSE := math.Sqrt(sumSq / float64(overlap))
		if candidateRMSE < bestRMSE {
			bestRMSE = candidateRMSE
			bestShift = candidate
		}
	}
	return bestRMSE, bestShift
}

// alignedSumSq sums squared positional error over the rows where
// fused (offset by shift) and reference overlap, returning the
// overlap length alongside the sum so the caller can average it.
func alignedSumSq(fused, reference []fixPoint, shift int) (overlap int, sumSq float64) {
	if shift >= 0 {
		overlap = min(len(fused)-shift, len(reference))
		for i := 0; i < overlap; i++ {
			dx := fused[i+shift].X - reference[i].X
			dy := fused[i+shift].Y - reference[i].Y
			sumSq += dx*dx + dy*dy
		}
		return overlap, sumSq
	}

	back := -shift
	overlap = min(len(reference)-back, len(fused))
	for i := 0; i < overlap; i++ {
		dx := fused[i].X - reference[i+back].X
		dy := fused[i].Y - reference[i+back].Y
		sumSq += dx*dx + dy*dy
	}
	return overlap, sumSq
}

// readTrack loads the x_m/y_m columns a fuselog CSV (fused or
// reference) always carries into a position-only track.
func readTrack(path string) ([]fixPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) <= 1 {
		return nil, fmt.Errorf("no rows")
	}

	header := recs[0]
	idxX, idxY := -1, -1
	for i, h := range header {
		switch h {
		case "x_m":
			idxX = i
		case "y_m":
			idxY = i
		}
	}
	if idxX < 0 || idxY < 0 {
		return nil, fmt.Errorf("missing x_m/y_m columns")
	}

	track := make([]fixPoint, 0, len(recs)-1)
	for _, row := range recs[1:] {
		var p fixPoint
		fmt.Sscanf(row[idxX], "%f", &p.X)
		fmt.Sscanf(row[idxY], "%f", &p.Y)
		track = append(track, p)
	}
	return track, nil
}
