package recorder

import (
	"io"
	"time"
)

// Sink receives replayed records in their original order.
type Sink func(Record) error

// Replay reads every record from path and delivers it to sink,
// sleeping between records to reproduce the original inter-record
// timing scaled by speed. speed <= 0 replays as fast as possible,
// matching server/replay.go's "0 for max speed" convention.
func Replay(path string, speed float64, sink Sink) (int, error) {
	r, err := OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var firstTs float64
	var startReal time.Time
	count := 0

	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}

		ts := float64(rec.TsSec) + float64(rec.TsUsec)/1e6
		if firstTs == 0 {
			firstTs = ts
			startReal = time.Now()
		} else if speed > 0 {
			targetDelay := time.Duration((ts - firstTs) / speed * float64(time.Second))
			elapsed := time.Since(startReal)
			if targetDelay > elapsed {
				time.Sleep(targetDelay - elapsed)
			}
		}

		if err := sink(rec); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
