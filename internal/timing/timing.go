package timing

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoSegments         = errors.New("tempo map has no bpm segments")
	ErrUnsortedSegments   = errors.New("bpm segments are not sorted by start beat")
	ErrDuplicateStartBeat = errors.New("two bpm segments share a start beat")
	ErrNonPositiveBPM     = errors.New("bpm must be strictly positive")
	ErrUnsortedStops      = errors.New("stops are not sorted by beat")
	ErrNegativeStop       = errors.New("stop duration must not be negative")
)

// BPMSegment is one tempo map entry, valid from StartBeat until the
// next segment.
type BPMSegment struct {
	StartBeat float64
	BPM       float64
}

// StopSegment freezes the beat at AtBeat for Seconds of song time.
type StopSegment struct {
	AtBeat  float64
	Seconds float64
}

// Data converts between beats and song seconds for one chart.
// Immutable after New.
type Data struct {
	bpms   []BPMSegment
	stops  []StopSegment
	offset float64 // seconds at the first segment's start beat

	// Seconds at each segment's start beat, stops excluded.
	// Parallel to bpms.
	timeAt []float64

	maxBPM float64
}

// New validates and builds a tempo map. The offset is the song time, in
// seconds, of the first segment's start beat. Structural problems are
// load errors; no partial Data is returned.
func New(bpms []BPMSegment, stops []StopSegment, offset float64) (*Data, error) {
	if len(bpms) == 0 {
		return nil, ErrNoSegments
	}
	for i, seg := range bpms {
		if seg.BPM <= 0 {
			return nil, fmt.Errorf("segment %d (beat %v): %w", i, seg.StartBeat, ErrNonPositiveBPM)
		}
		if i == 0 {
			continue
		}
		if seg.StartBeat == bpms[i-1].StartBeat {
			return nil, fmt.Errorf("segment %d (beat %v): %w", i, seg.StartBeat, ErrDuplicateStartBeat)
		}
		if seg.StartBeat < bpms[i-1].StartBeat {
			return nil, fmt.Errorf("segment %d (beat %v): %w", i, seg.StartBeat, ErrUnsortedSegments)
		}
	}
	for i, stop := range stops {
		if stop.Seconds < 0 {
			return nil, fmt.Errorf("stop %d (beat %v): %w", i, stop.AtBeat, ErrNegativeStop)
		}
		if i > 0 && stop.AtBeat < stops[i-1].AtBeat {
			return nil, fmt.Errorf("stop %d (beat %v): %w", i, stop.AtBeat, ErrUnsortedStops)
		}
	}

	d := &Data{
		bpms:   append([]BPMSegment(nil), bpms...),
		stops:  append([]StopSegment(nil), stops...),
		offset: offset,
		timeAt: make([]float64, len(bpms)),
	}
	t := offset
	for i, seg := range d.bpms {
		if i > 0 {
			prev := d.bpms[i-1]
			t += (seg.StartBeat - prev.StartBeat) * 60.0 / prev.BPM
		}
		d.timeAt[i] = t
		if seg.BPM > d.maxBPM {
			d.maxBPM = seg.BPM
		}
	}
	return d, nil
}

// TimeForBeat returns the song time of a beat in seconds. It is total:
// beats before the first segment or after the last extrapolate with the
// boundary segment's bpm. A stop at beat s contributes its full duration
// to every beat strictly after s, so the plateau starts at TimeForBeat(s).
func (d *Data) TimeForBeat(beat float64) float64 {
	i := d.segmentFor(beat)
	seg := d.bpms[i]
	t := d.timeAt[i] + (beat-seg.StartBeat)*60.0/seg.BPM
	for _, stop := range d.stops {
		if stop.AtBeat >= beat {
			break
		}
		t += stop.Seconds
	}
	return t
}

// BeatForTime is the inverse of TimeForBeat. For a song time inside a
// stop plateau it returns exactly the beat the stop started at, which
// freezes on-screen note positions for the duration of the stop.
func (d *Data) BeatForTime(sec float64) float64 {
	adjusted := sec
	elapsed := 0.0
	for _, stop := range d.stops {
		start := d.beatTimeNoStops(stop.AtBeat) + elapsed
		if sec < start {
			break
		}
		if sec < start+stop.Seconds {
			return stop.AtBeat
		}
		adjusted -= stop.Seconds
		elapsed += stop.Seconds
	}

	i := 0
	for j := 1; j < len(d.timeAt); j++ {
		if d.timeAt[j] > adjusted {
			break
		}
		i = j
	}
	seg := d.bpms[i]
	return seg.StartBeat + (adjusted-d.timeAt[i])*seg.BPM/60.0
}

// BPMForBeat returns the tempo in effect at a beat.
func (d *Data) BPMForBeat(beat float64) float64 {
	return d.bpms[d.segmentFor(beat)].BPM
}

// MaxBPM returns the highest bpm in the map, for M-mod speed scaling.
func (d *Data) MaxBPM() float64 {
	return d.maxBPM
}

// Duration is TimeForBeat as a time.Duration, the unit note target
// times are carried in at runtime.
func (d *Data) Duration(beat float64) time.Duration {
	return time.Duration(d.TimeForBeat(beat) * float64(time.Second))
}

// beatTimeNoStops is TimeForBeat with stop durations excluded.
func (d *Data) beatTimeNoStops(beat float64) float64 {
	i := d.segmentFor(beat)
	seg := d.bpms[i]
	return d.timeAt[i] + (beat-seg.StartBeat)*60.0/seg.BPM
}

func (d *Data) segmentFor(beat float64) int {
	i := 0
	for j := 1; j < len(d.bpms); j++ {
		if d.bpms[j].StartBeat > beat {
			break
		}
		i = j
	}
	return i
}
