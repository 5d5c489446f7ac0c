package main

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"git.lost.host/meutraa/steps/internal/config"
	"git.lost.host/meutraa/steps/internal/game"
	"git.lost.host/meutraa/steps/internal/parser"
	"git.lost.host/meutraa/steps/internal/render"
	"git.lost.host/meutraa/steps/internal/score"
	"git.lost.host/meutraa/steps/internal/scroll"
	"git.lost.host/meutraa/steps/internal/session"
	"git.lost.host/meutraa/steps/internal/theme"
	"git.lost.host/meutraa/steps/internal/timing"
	"github.com/eiannone/keyboard"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
)

// Terminal input has no release events; a lane counts as held while key
// repeat keeps pressing it.
const keyRepeatHold = 250 * time.Millisecond

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

// songTime converts wall time since the start delay to chart time,
// folding in the global offset and the playback rate.
func songTime(duration time.Duration) time.Duration {
	return time.Duration(float64(duration+*config.Offset) * *config.Rate)
}

func run() error {
	// Ensure our Default implementations are used as interfaces
	var r render.Renderer = &render.DefaultRenderer{}
	var th theme.Theme = &theme.DefaultTheme{}
	var psr parser.Parser = &parser.DefaultParser{}
	var scr score.Scorer = &score.DefaultScorer{}

	cc16, rc16, err := r.Size()
	if nil != err {
		return fmt.Errorf("unable to get terminal size: %w", err)
	}
	rc, cc := int(rc16), int(cc16)

	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			log.Println("unable to close keyboard", err)
		}
	}()

	if err := scr.Init(); nil != err {
		return fmt.Errorf("unable to open score database: %w", err)
	}
	defer scr.Deinit()

	var mp3File, ogg, chartFile string
	if err := filepath.Walk(*config.Directory, func(p string, info os.FileInfo, err error) error {
		switch path.Ext(info.Name()) {
		case ".mp3":
			mp3File = p
		case ".ogg":
			ogg = p
		case ".sm":
			chartFile = p
		}
		return nil
	}); nil != err {
		return fmt.Errorf("unable to walk song directory: %w", err)
	}
	if (mp3File == "" && ogg == "") || chartFile == "" {
		return errors.New("unable to find .sm and .mp3/.ogg file in given directory")
	}

	charts, err := psr.Parse(chartFile)
	if nil != err {
		return err
	}

	// Difficulty selection
	for i, c := range charts {
		fmt.Printf("%2v) %3v  %5v  %v\n", i, c.Difficulty.Msd, len(c.Events), c.Difficulty.Name)
	}
	key := <-keyChannel
	index, err := strconv.ParseInt(string(key.Rune), 10, 64)
	if nil != err || index > int64(len(charts)-1) {
		return err
	}
	cd := charts[index]

	tempo, err := timing.New(cd.BPMs, cd.Stops, cd.Offset)
	if nil != err {
		return fmt.Errorf("unable to build tempo map for %v: %w", chartFile, err)
	}
	chart, err := game.Compile(cd.Events, cd.Difficulty)
	if nil != err {
		return fmt.Errorf("unable to compile %v: %w", chartFile, err)
	}

	spd, err := scroll.ParseSpeed(*config.ScrollSpeed)
	if nil != err {
		return err
	}

	cfg := session.DefaultConfig()
	cfg.DrawBeatsForward = *config.DrawBeatsForward
	cfg.DrawBeatsBack = *config.DrawBeatsBack
	cfg.Explosion = *config.ExplosionDuration
	cfg.Text = *config.TextDuration
	cfg.TextFade = *config.TextFadeDuration
	cfg.Projector = scroll.Projector{
		ReceptorY:    float64(rc - int(*config.BarRow)),
		WindowHeight: float64(rc),
		RefHeight:    *config.RefHeight,
		// One row per beat at the effective scroll bpm, fixed at song start
		BaseSpeed: spd.EffectiveBPM(tempo.BPMForBeat(0), tempo.MaxBPM()) / 60.0,
	}
	sess, err := session.New(chart, tempo, cfg)
	if nil != err {
		return err
	}

	nKeys := chart.Difficulty.NKeys
	mc := cc >> 1
	cen := rc >> 1
	cis := make([]int, nKeys)
	for i := range cis {
		cis[i] = mc + int(*config.ColumnSpacing)*(2*i-int(nKeys)+1)
	}
	sideCol := cis[0] - 36
	if sideCol < 2 {
		sideCol = 2
	}

	audioFile := mp3File
	if ogg != "" {
		audioFile = ogg
	}
	log.Printf("Opening %v (%v)\n", audioFile, chartFile)
	f, err := os.Open(audioFile)
	if err != nil {
		return err
	}
	var streamer beep.StreamSeekCloser
	var format beep.Format
	if ogg != "" {
		streamer, format, err = vorbis.Decode(f)
	} else {
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		return err
	}
	defer streamer.Close()

	speaker.Init(beep.SampleRate(math.Round(float64(format.SampleRate)*(*config.Rate))), format.SampleRate.N(time.Second/60))

	// Clear the screen and hide the cursor
	r.Init()
	defer func() {
		// Restore the terminal state
		r.Deinit()
	}()

	go func() {
		time.Sleep(*config.Delay)
		speaker.Play(streamer)
	}()

	inputs := []game.Input{}
	lastPress := make([]time.Duration, nKeys)
	for i := range lastPress {
		lastPress[i] = -time.Hour
	}
	pressed := make([]bool, nKeys)

	type cell struct{ row, col int }
	prev := []cell{}

	renderTime := time.Duration(0)
	lastBreaks := 0

	r.RenderLoop(*config.Delay, *config.FramePeriod, func(startTime time.Time, duration time.Duration) bool {
		now := songTime(duration)

		// get the key inputs that occured so far
		for i := 0; i < len(keyChannel); i++ {
			key := <-keyChannel
			if key.Key == keyboard.KeyEsc {
				return false
			}
			col := config.KeyColumn(key.Rune, nKeys)
			if col < 0 {
				continue
			}
			in := game.Input{Lane: uint8(col), Time: now}
			held := now-lastPress[col] < keyRepeatHold
			lastPress[col] = now
			if held {
				// Key repeat while holding; not a fresh press
				continue
			}
			inputs = append(inputs, in)
			sess.Judge(in)
		}
		for i := range pressed {
			pressed[i] = now-lastPress[i] < keyRepeatHold
			if !pressed[i] && lastPress[i] > -time.Hour {
				sess.Release(game.Input{Lane: uint8(i), Time: now})
			}
		}

		sess.Tick(now, pressed)
		snap := sess.Snapshot()

		if sess.Finished() && len(keyChannel) == 0 {
			return false
		}

		// Clear last frame's playfield cells, then the hit bar
		for _, c := range prev {
			r.Fill(uint16(c.row), uint16(c.col), " ")
		}
		prev = prev[:0]
		for i := uint8(0); i < nKeys; i++ {
			r.Fill(uint16(rc-int(*config.BarRow)), uint16(cis[i]), th.RenderHitField(i))
		}

		for _, n := range snap.Notes {
			col := cis[n.Lane]
			row := int(math.Round(n.Y))
			if n.Kind == game.HoldStart || n.Kind == game.RollStart {
				tail := int(math.Round(n.TailY))
				for body := row - 1; body > tail; body-- {
					if body > 0 && body <= rc {
						r.Fill(uint16(body), uint16(col), th.RenderHoldBody(n.Lane))
						prev = append(prev, cell{body, col})
					}
				}
			}
			if row <= 0 || row > rc {
				continue
			}
			switch n.Kind {
			case game.Mine:
				r.Fill(uint16(row), uint16(col), th.RenderMine(n.Lane, n.Denom))
			case game.Lift, game.Fake:
				// Drawn as ordinary notes; they just never judge
				fallthrough
			default:
				r.Fill(uint16(row), uint16(col), th.RenderNote(n.Lane, n.Denom, n.Frame))
			}
			prev = append(prev, cell{row, col})
		}

		// Flash a red frame around the judgment text on any combo break
		if breaks := snap.Counters.Grades[game.Miss] + snap.Counters.MinesHit; breaks > lastBreaks {
			frames := int(*config.TextDuration / *config.FramePeriod)
			r.AddDecoration(uint16(mc-6), uint16(cen-1), "\033[1;31m╭", frames)
			r.AddDecoration(uint16(mc+6), uint16(cen-1), "\033[1;31m╮", frames)
			r.AddDecoration(uint16(mc-6), uint16(cen+1), "\033[1;31m╰", frames)
			r.AddDecoration(uint16(mc+6), uint16(cen+1), "\033[1;31m╯", frames)
			lastBreaks = breaks
		}

		for _, e := range snap.Effects {
			col := cis[e.Lane]
			if e.ExplosionAlive {
				r.Fill(uint16(rc-int(*config.BarRow)), uint16(col), th.RenderExplosion(e.Lane, e.Grade))
			}
			if e.TextAlpha > 0 {
				r.Fill(uint16(cen), uint16(mc-4), th.RenderJudgement(e.Grade, e.TextAlpha))
				prev = append(prev, cell{cen, mc - 4})
			}
		}

		r.Fill(2, uint16(sideCol), fmt.Sprintf("Render Time:  %5.0f µs", float64(renderTime.Nanoseconds())/1000.0))
		r.Fill(4, uint16(sideCol), fmt.Sprintf("       Beat:  %6.1f", snap.Beat))
		r.Fill(5, uint16(sideCol), fmt.Sprintf("       Life:  %5.0f%%", snap.Life*100))
		r.Fill(6, uint16(sideCol), fmt.Sprintf("      Combo:  %6v", snap.Combo))
		r.Fill(7, uint16(sideCol), fmt.Sprintf("  Max Combo:  %6v", snap.Counters.MaxCombo))
		r.Fill(9, uint16(sideCol), fmt.Sprintf("      Total:  %6v", chart.NoteCount))
		r.Fill(10, uint16(sideCol), fmt.Sprintf("      Holds:  %3v/%v", snap.Counters.HoldsHeld, chart.HoldCount))
		r.Fill(11, uint16(sideCol), fmt.Sprintf("      Mines:  %3v/%v", snap.Counters.MinesHit, chart.MineCount))
		for i := 0; i < game.NumGrades; i++ {
			r.Fill(uint16(14+i), uint16(sideCol), fmt.Sprintf("%9v:  %6v", game.Grade(i), snap.Counters.Grades[i]))
		}

		return true
	}, func(d time.Duration) {
		renderTime = d
	})

	history := &score.History{
		Rate:     *config.Rate,
		Inputs:   inputs,
		Counters: sess.Counters(),
	}
	if err := scr.Save(chart, history); nil != err {
		return fmt.Errorf("unable to save score: %w", err)
	}
	_ = <-keyChannel
	return nil
}
