package orchestrator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/themusiclab/infant-speech-song/fileutils"
	"github.com/themusiclab/infant-speech-song/prosody"
)

func writeJSON(path string, v any) error {
	return fileutils.WriteAtomicSameDir(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	return fileutils.WriteAtomicSameDir(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return err
		}
		if err := w.WriteAll(rows); err != nil {
			return err
		}
		return w.Error()
	})
}

func writeClipTimes(path string, times []ClipTime) error {
	rows := make([][]string, 0, len(times))
	for _, t := range times {
		rows = append(rows, []string{t.ID, formatFloat(t.Length)})
	}
	return writeCSV(path, []string{"id", "length"}, rows)
}

func writeSubclipTimes(path string, times []SubclipTime) error {
	rows := make([][]string, 0, len(times))
	for _, t := range times {
		rows = append(rows, []string{t.ID, formatFloat(t.Length), formatFloat(t.Beg), formatFloat(t.End)})
	}
	return writeCSV(path, []string{"id", "length", "beg", "end"}, rows)
}

// writeSummary writes one row per session; absent scores are empty cells.
func writeSummary(path string, recs []prosody.Record) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{r.ID, r.PhraseNPVI.String(), r.TotalNPVI.String()})
	}
	return writeCSV(path, []string{"id", "npvi_phrase", "npvi_total"}, rows)
}

func persistCache(path, runID, source string, recs []prosody.Record) error {
	bundle := CacheBundle{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		Sessions:    make(map[string]prosody.Record, len(recs)),
	}
	for _, r := range recs {
		bundle.Sessions[r.ID] = r
	}
	return writeJSON(path, bundle)
}

func loadCache(path string) (*CacheBundle, error) {
	var b CacheBundle
	if err := readJSON(path, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
