package parser

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"git.lost.host/meutraa/steps/internal/game"
	"git.lost.host/meutraa/steps/internal/timing"
)

type DefaultParser struct{}

// 0 – No note
// 1 – Normal note
// 2 – Hold head
// 3 – Hold/Roll tail
// 4 – Roll head
// M – Mine (or other negative note)
// L – Lift note
// F – Fake note
func kindFor(ch byte) (game.NoteKind, bool) {
	switch ch {
	case '1':
		return game.Tap, true
	case '2':
		return game.HoldStart, true
	case '3':
		return game.HoldEnd, true
	case '4':
		return game.RollStart, true
	case 'M':
		return game.Mine, true
	case 'L':
		return game.Lift, true
	case 'F':
		return game.Fake, true
	}
	return 0, false
}

func parseBeatValuePairs(body string) ([][2]float64, error) {
	body = strings.ReplaceAll(body, "\n", "")
	body = strings.TrimSuffix(strings.TrimSpace(body), ";")
	if body == "" {
		return nil, nil
	}
	pairs := [][2]float64{}
	for _, pair := range strings.Split(body, ",") {
		as := strings.Split(pair, "=")
		if len(as) != 2 {
			return nil, fmt.Errorf("malformed beat=value pair %q", pair)
		}
		beat, err := strconv.ParseFloat(strings.TrimSpace(as[0]), 64)
		if nil != err {
			return nil, err
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(as[1]), 64)
		if nil != err {
			return nil, err
		}
		pairs = append(pairs, [2]float64{beat, value})
	}
	return pairs, nil
}

func (p *DefaultParser) Parse(file string) ([]*ChartData, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}

	str := strings.ReplaceAll(string(data), "\r", "")
	sections := strings.Split(str, "#NOTES:")
	meta := sections[0]

	difficulties := []game.Difficulty{}
	for _, section := range sections[1:] {
		lines := strings.SplitN(section, "\n", 7)
		if len(lines) < 7 {
			continue
		}
		chartType := strings.TrimSuffix(strings.TrimSpace(lines[1]), ":")
		nKeys, ok := game.NKeyMap[chartType]
		if !ok {
			continue
		}
		difficulties = append(difficulties, game.Difficulty{
			Name:    strings.TrimSuffix(strings.TrimSpace(lines[3]), ":"),
			Msd:     strings.TrimSuffix(strings.TrimSpace(lines[4]), ":"),
			Section: lines[6],
			NKeys:   nKeys,
		})
	}

	offset := 0.0
	bpms := []timing.BPMSegment{}
	stops := []timing.StopSegment{}

	for _, mdl := range strings.Split(meta, "\n#") {
		mdl = strings.TrimSpace(mdl)
		switch {
		case strings.HasPrefix(mdl, "OFFSET:"):
			body := strings.TrimSuffix(strings.TrimPrefix(mdl, "OFFSET:"), ";")
			offs, err := strconv.ParseFloat(body, 64)
			if nil != err {
				return nil, err
			}
			offset = -offs
		case strings.HasPrefix(mdl, "BPMS:"):
			pairs, err := parseBeatValuePairs(strings.TrimPrefix(mdl, "BPMS:"))
			if nil != err {
				return nil, err
			}
			for _, pair := range pairs {
				bpms = append(bpms, timing.BPMSegment{StartBeat: pair[0], BPM: pair[1]})
			}
		case strings.HasPrefix(mdl, "STOPS:"):
			pairs, err := parseBeatValuePairs(strings.TrimPrefix(mdl, "STOPS:"))
			if nil != err {
				return nil, err
			}
			for _, pair := range pairs {
				stops = append(stops, timing.StopSegment{AtBeat: pair[0], Seconds: pair[1]})
			}
		}
	}
	if len(bpms) == 0 {
		return nil, fmt.Errorf("%s: no #BPMS tag", file)
	}

	charts := []*ChartData{}
	for _, difficulty := range difficulties {
		events := []game.Note{}

		// Four beats per measure; a measure's line count sets its
		// subdivision
		for measure, block := range strings.Split(difficulty.Section, "\n,") {
			lines := []string{}
			for _, l := range strings.Split(block, "\n") {
				if strings.HasPrefix(l, " ") || strings.Contains(l, "-") {
					continue
				}
				l = strings.TrimSpace(l)
				if len(l) >= int(difficulty.NKeys) {
					lines = append(lines, l)
				}
			}
			lineCount := int64(len(lines))
			if lineCount == 0 {
				continue
			}

			for i, line := range lines {
				beat := float64(measure)*4 + float64(i)*4/float64(lineCount)
				denom := big.NewRat(int64(i*4), lineCount).Denom().Int64()
				for lane := 0; lane < int(difficulty.NKeys) && lane < len(line); lane++ {
					kind, ok := kindFor(line[lane])
					if !ok {
						continue
					}
					events = append(events, game.Note{
						Beat:  beat,
						Lane:  uint8(lane),
						Kind:  kind,
						Denom: int(denom),
					})
				}
			}
		}

		charts = append(charts, &ChartData{
			Difficulty: difficulty,
			Offset:     offset,
			BPMs:       bpms,
			Stops:      stops,
			Events:     events,
		})
	}

	return charts, nil
}
