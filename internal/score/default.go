package score

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"git.lost.host/meutraa/steps/internal/game"
	"git.lost.host/meutraa/steps/internal/session"
	"git.lost.host/meutraa/steps/internal/timing"
	_ "github.com/mattn/go-sqlite3"
)

type DefaultScorer struct {
	// Path of the sqlite database; "./scores.db" when empty
	Path string

	db *sql.DB
}

// InputsCompact groups press times by lane so a history row stores one
// entry per lane instead of one per press.
type InputsCompact struct {
	Lane  uint8
	Times []time.Duration
}

func compactInputs(inputs []game.Input) []InputsCompact {
	laneCount := 0
	for _, in := range inputs {
		if int(in.Lane) >= laneCount {
			laneCount = int(in.Lane) + 1
		}
	}
	ins := make([]InputsCompact, laneCount)
	for i := range ins {
		ins[i].Lane = uint8(i)
		ins[i].Times = []time.Duration{}
	}
	for _, in := range inputs {
		ins[in.Lane].Times = append(ins[in.Lane].Times, in.Time)
	}
	return ins
}

func uncompactInputs(compact []InputsCompact) []game.Input {
	ins := []game.Input{}
	for _, c := range compact {
		for _, t := range c.Times {
			ins = append(ins, game.Input{Lane: c.Lane, Time: t})
		}
	}
	return ins
}

func (s *DefaultScorer) Init() error {
	path := s.Path
	if path == "" {
		path = "./scores.db"
	}
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return err
	}

	initStatement := `
	create table if not exists scores
	  (
		  id integer not null primary key,
		  sum text,
		  rate real,
		  inputs bytearray,
		  counters bytearray
	  );
	`
	if _, err := db.Exec(initStatement); nil != err {
		db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *DefaultScorer) Deinit() {
	if nil != s.db {
		s.db.Close()
	}
}

func hashChart(c *game.Chart) string {
	sum := sha256.Sum256([]byte(c.Difficulty.Section))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *DefaultScorer) Save(c *game.Chart, history *History) error {
	inputs, err := json.Marshal(compactInputs(history.Inputs))
	if nil != err {
		return fmt.Errorf("unable to marshal inputs: %w", err)
	}
	counters, err := json.Marshal(history.Counters)
	if nil != err {
		return fmt.Errorf("unable to marshal counters: %w", err)
	}
	_, err = s.db.Exec(
		"insert into scores(sum, rate, inputs, counters) values(?, ?, ?, ?)",
		hashChart(c), history.Rate, inputs, counters,
	)
	if nil != err {
		return fmt.Errorf("unable to save score: %w", err)
	}
	return nil
}

func (s *DefaultScorer) Load(c *game.Chart) ([]History, error) {
	histories := []History{}
	rows, err := s.db.Query("select sum, rate, inputs, counters from scores where sum = ?", hashChart(c))
	if nil != err {
		return nil, fmt.Errorf("unable to load scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var history History
		var inputs, counters []byte
		if err := rows.Scan(&history.Sum, &history.Rate, &inputs, &counters); nil != err {
			return nil, err
		}
		var compact []InputsCompact
		if err := json.Unmarshal(inputs, &compact); nil != err {
			return nil, fmt.Errorf("unable to unmarshal input history: %w", err)
		}
		history.Inputs = uncompactInputs(compact)
		if len(counters) > 0 {
			if err := json.Unmarshal(counters, &history.Counters); nil != err {
				return nil, fmt.Errorf("unable to unmarshal counters: %w", err)
			}
		}
		histories = append(histories, history)
	}
	return histories, rows.Err()
}

// Replay rebuilds a history's tally by running its inputs through a
// fresh session, ticking up to each press time and once past the final
// miss horizon.
func (s *DefaultScorer) Replay(chart *game.Chart, tempo *timing.Data, cfg session.Config, history *History) (session.Counters, error) {
	sess, err := session.New(chart, tempo, cfg)
	if nil != err {
		return session.Counters{}, err
	}

	inputs := append([]game.Input(nil), history.Inputs...)
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Time < inputs[j].Time })

	for _, in := range inputs {
		sess.Tick(in.Time, nil)
		sess.Judge(in)
	}

	end := time.Duration(0)
	for _, n := range chart.Notes {
		beat := n.Beat
		if n.EndBeat > beat {
			beat = n.EndBeat
		}
		if t := tempo.Duration(beat); t > end {
			end = t
		}
	}
	sess.Tick(end+cfg.MissAfter+time.Millisecond, nil)
	return sess.Counters(), nil
}
