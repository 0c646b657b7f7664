package orchestrator

import (
	"time"

	"github.com/themusiclab/infant-speech-song/prosody"
)

// ClipTime is one row of clip_times.csv.
type ClipTime struct {
	ID     string  // session id
	Length float64 // sec
}

// SubclipTime is one row of subclip_times.csv.
type SubclipTime struct {
	ID     string  // "{session}_{n}"
	Length float64 // sec, End-Beg from the annotation
	Beg    float64 // sec
	End    float64 // sec
}

// SubclipRef is a subclip file found on disk during concatenation.
type SubclipRef struct {
	Session string
	Index   int // 1-based position among the session's non-silent intervals
	Path    string
}

type ExportReport struct {
	Sessions     int
	Failed       int
	Subclips     int
	ClipTimes    []ClipTime
	SubclipTimes []SubclipTime
}

type ConcatReport struct {
	Sessions int
	Failed   int
	Written  []string
}

type AnalyzeReport struct {
	Sessions    int
	Failed      int
	Records     []prosody.Record
	CachePath   string
	SummaryPath string
}

// CacheBundle is the persisted intermediate nPVI result, keyed by session id.
type CacheBundle struct {
	RunID       string                    `json:"run_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Source      string                    `json:"source_dir"`
	Sessions    map[string]prosody.Record `json:"sessions"`
}
