package config

import (
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	Directory   = kingpin.Arg("directory", "Song/chart directory").Required().ExistingDir()
	Rate        = kingpin.Flag("rate", "Playback speed").Default("1.0").Short('r').Float64()
	Offset      = kingpin.Flag("offset", "Global offset").Default("0ms").Short('o').Duration()
	Delay       = kingpin.Flag("delay", "Start delay").Default("1.5s").Short('d').Duration()
	FramePeriod = kingpin.Flag("frame-period", "Render frame period").Default("1ms").Short('p').Duration()

	ScrollSpeed = kingpin.Flag("speed", "Scroll speed: C<bpm>, X<mult> or M<bpm>").Default("C600").Short('s').String()
	RefHeight   = kingpin.Flag("ref-height", "Rows the scroll speed is calibrated for").Default("50").Float64()
	BarRow      = kingpin.Flag("bar-row", "Console rows between hit bar and bottom").Default("8").Uint()

	DrawBeatsForward = kingpin.Flag("draw-forward", "Beats ahead of now to keep active").Default("16").Float64()
	DrawBeatsBack    = kingpin.Flag("draw-back", "Beats behind now to keep active").Default("4").Float64()

	ColumnSpacing = kingpin.Flag("spacing", "Columns between keys").Default("6").Short('S').Uint()

	ExplosionDuration = kingpin.Flag("explosion", "Hit explosion lifetime").Default("600ms").Duration()
	TextDuration      = kingpin.Flag("text", "Judgment text lifetime").Default("800ms").Duration()
	TextFadeDuration  = kingpin.Flag("text-fade", "Judgment text fade tail").Default("200ms").Duration()

	keys4 = kingpin.Flag("keys-single", "Keys for 4k").Default("_-mp").Short('k').String()
	keys6 = kingpin.Flag("keys-solo", "Keys for 6k").Default("ieotsc").String()
	keys8 = kingpin.Flag("keys-double", "Keys for 8k").Default("ieonhtsc").String()
)

func Keys(nKeys uint8) []rune {
	switch nKeys {
	case 4:
		return []rune(*keys4)
	case 6:
		return []rune(*keys6)
	case 8:
		return []rune(*keys8)
	}
	return []rune(*keys4)
}

func KeyColumn(r rune, nKeys uint8) int {
	for i, c := range Keys(nKeys) {
		if r == c {
			return i
		}
	}
	return -1
}

func init() {
	kingpin.Version("0.1.0")
	kingpin.Parse()
}
