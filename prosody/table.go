package prosody

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a nucleus table lacks a required column.
var ErrMissingColumn = errors.New("prosody: missing column")

const (
	ColT1          = "nucl_t1"
	ColT2          = "nucl_t2"
	ColBeforePause = "before_pause"
)

// ReadTable parses a tab-separated Prosogram nucleus table with a header row.
// Every column is kept in Event.Row; the three timing columns are also parsed.
func ReadTable(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{ColT1, ColT2, ColBeforePause} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var events []Event
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(idx))
		for name, i := range idx {
			if i < len(rec) {
				row[name] = strings.TrimSpace(rec[i])
			} else {
				row[name] = ""
			}
		}
		e := Event{Row: row}
		if e.T1, err = strconv.ParseFloat(row[ColT1], 64); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, ColT1, err)
		}
		if e.T2, err = strconv.ParseFloat(row[ColT2], 64); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, ColT2, err)
		}
		bp, err := strconv.ParseFloat(row[ColBeforePause], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, ColBeforePause, err)
		}
		e.BeforePause = bp != 0
		events = append(events, e)
	}
	return events, nil
}

func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	events, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return events, nil
}

// SessionCode identifies a recording. Corpus ids are six characters:
// three for the field site, two for the participant, one for the condition.
type SessionCode struct {
	ID          string `json:"id"`
	Culture     string `json:"culture,omitempty"`
	Participant string `json:"participant,omitempty"`
	Condition   string `json:"condition,omitempty"`
}

const codeLen = 6

// ParseSessionCode derives the code from a table filename such as
// "WEL24D_data.txt". Names shorter than a full code keep the whole stem as ID.
func ParseSessionCode(filename, suffix string) SessionCode {
	stem := strings.TrimSuffix(filepath.Base(filename), suffix)
	if len(stem) < codeLen {
		return SessionCode{ID: stem}
	}
	return SessionCode{
		ID:          stem[:codeLen],
		Culture:     stem[0:3],
		Participant: stem[3:5],
		Condition:   stem[5:6],
	}
}
