// Package prosody computes the normalized Pairwise Variability Index (nPVI)
// over syllable nuclei extracted by Prosogram.
package prosody

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrBadDuration marks a nucleus whose duration is not a positive finite number.
var ErrBadDuration = errors.New("prosody: nucleus duration must be positive")

// Event is one row of a Prosogram nucleus table.
type Event struct {
	T1          float64           `json:"nucl_t1"`
	T2          float64           `json:"nucl_t2"`
	BeforePause bool              `json:"before_pause"`
	Row         map[string]string `json:"row,omitempty"`
}

// Duration of the nucleus in seconds.
func (e Event) Duration() float64 { return e.T2 - e.T1 }

// CheckDurations rejects events that cannot take part in a pairwise ratio.
func CheckDurations(events []Event) error {
	for i, e := range events {
		d := e.Duration()
		if !finite(d) || d <= 0 {
			return fmt.Errorf("%w: event %d spans %v to %v", ErrBadDuration, i+1, e.T1, e.T2)
		}
	}
	return nil
}

// Score is an nPVI value that may be absent. Absent scores marshal as null
// and are skipped by Mean; they are never read as zero. A non-finite value
// counts as absent.
type Score struct {
	Value float64
	Valid bool
}

func Some(v float64) Score { return Score{Value: v, Valid: true} }

// Defined reports whether s holds a usable number.
func (s Score) Defined() bool { return s.Valid && finite(s.Value) }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func (s *Score) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Score{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Some(v)
	return nil
}

// String renders the value for tabular output; absent is the empty string.
func (s Score) String() string {
	if !s.Defined() {
		return ""
	}
	return strconv.FormatFloat(s.Value, 'g', -1, 64)
}

// NPVI = 100/(N-1) * Σ |d_i - d_{i+1}| / ((d_i + d_{i+1}) / 2) for N >= 2 events.
// It is absent when any pair mean is zero, negative or not finite.
func NPVI(events []Event) Score {
	if len(events) < 2 {
		return Score{}
	}
	sum := 0.0
	for i := 0; i < len(events)-1; i++ {
		cur := events[i].Duration()
		nxt := events[i+1].Duration()
		mean := (cur + nxt) / 2
		if !finite(mean) || mean <= 0 {
			return Score{}
		}
		sum += math.Abs((cur - nxt) / mean)
	}
	return Some(100 * sum / float64(len(events)-1))
}

// Mean averages the valid scores; it is absent when none are valid.
func Mean(scores []Score) Score {
	sum, n := 0.0, 0
	for _, s := range scores {
		if s.Defined() {
			sum += s.Value
			n++
		}
	}
	if n == 0 {
		return Score{}
	}
	return Some(sum / float64(n))
}

type Phrase struct {
	Events []Event `json:"events"`
	NPVI   Score   `json:"npvi"`
}

// SplitPhrases walks events in order and closes a phrase on every
// before_pause event, that event included. Events after the last pause form
// no phrase unless keepTrailing is set; they are returned as trailing either way.
func SplitPhrases(events []Event, keepTrailing bool) (phrases []Phrase, trailing []Event) {
	var cur []Event
	for _, e := range events {
		cur = append(cur, e)
		if e.BeforePause {
			phrases = append(phrases, Phrase{Events: cur, NPVI: NPVI(cur)})
			cur = nil
		}
	}
	if len(cur) > 0 && keepTrailing {
		phrases = append(phrases, Phrase{Events: cur, NPVI: NPVI(cur)})
	}
	return phrases, cur
}
